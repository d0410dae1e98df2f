package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/baldhumanity/ipd-go/ipd"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <checkpoint>",
		Short: "Summarise a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			top, _ := cmd.Flags().GetInt("top")
			return inspectCheckpoint(cmd.OutOrStdout(), args[0], top)
		},
	}
	cmd.Flags().Int("top", 5, "Number of largest networks to list")
	return cmd
}

func inspectCheckpoint(w io.Writer, path string, top int) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	ex, err := ipd.ReadCheckpoint(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "checkpoint:  %s (%s)\n", path, humanize.Bytes(uint64(info.Size())))
	fmt.Fprintf(w, "generation:  %s\n", humanize.Comma(int64(ex.Generation)))
	fmt.Fprintf(w, "population:  %s\n", humanize.Comma(int64(len(ex.Beings))))

	histogram := make(map[int]int)
	for _, be := range ex.Beings {
		histogram[len(be.Brain.HiddenNodes)]++
	}
	hidden := make([]int, 0, len(histogram))
	for h := range histogram {
		hidden = append(hidden, h)
	}
	sort.Ints(hidden)

	fmt.Fprintln(w, "\narchitectures:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, h := range hidden {
		fmt.Fprintf(tw, "  %s\t%d\n", ipd.ArchitectureLabel(h), histogram[h])
	}
	tw.Flush()

	beings := append([]ipd.BeingExport(nil), ex.Beings...)
	sort.SliceStable(beings, func(i, j int) bool {
		hi, hj := len(beings[i].Brain.HiddenNodes), len(beings[j].Brain.HiddenNodes)
		if hi != hj {
			return hi > hj
		}
		return connectionCount(beings[i]) > connectionCount(beings[j])
	})
	if top > len(beings) {
		top = len(beings)
	}
	if top > 0 {
		fmt.Fprintln(w, "\nlargest networks:")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  ID\tHIDDEN\tCONNECTIONS")
		for _, be := range beings[:top] {
			fmt.Fprintf(tw, "  %s\t%d\t%d\n", be.Brain.ID, len(be.Brain.HiddenNodes), connectionCount(be))
		}
		tw.Flush()
	}
	return nil
}

func connectionCount(be ipd.BeingExport) int {
	n := len(be.Brain.OutputNode.Connections)
	for _, ne := range be.Brain.InputNodes {
		n += len(ne.Connections)
	}
	for _, ne := range be.Brain.HiddenNodes {
		n += len(ne.Connections)
	}
	return n
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <checkpoint> <out.json>",
		Short: "Write a checkpoint as plain indented JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := ipd.ReadCheckpoint(args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(ex, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode population: %w", err)
			}
			if err := os.WriteFile(args[1], append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[1], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d beings (generation %d) to %s\n", len(ex.Beings), ex.Generation, args[1])
			return nil
		},
	}
}
