package ipd

import "sort"

// ArchitectureBucket groups network beings that share a hidden-node count.
type ArchitectureBucket struct {
	Label      string   `json:"label"`
	Hidden     int      `json:"hidden"`
	Population int      `json:"population"`
	TotalScore int      `json:"totalScore"`
	MeanScore  float64  `json:"meanScore"`
	Members    []string `json:"members"`
}

// bucketArchitectures groups beings by NodeCount, ordered by hidden-node count.
func bucketArchitectures(beings []*NetworkBeing, scores map[string]int) []ArchitectureBucket {
	byHidden := make(map[int]*ArchitectureBucket)
	for _, b := range beings {
		n := b.NodeCount()
		bucket, ok := byHidden[n]
		if !ok {
			bucket = &ArchitectureBucket{Label: ArchitectureLabel(n), Hidden: n}
			byHidden[n] = bucket
		}
		bucket.Population++
		bucket.TotalScore += scores[b.ID()]
		bucket.Members = append(bucket.Members, b.ID())
	}

	buckets := make([]ArchitectureBucket, 0, len(byHidden))
	for _, bucket := range byHidden {
		bucket.MeanScore = float64(bucket.TotalScore) / float64(bucket.Population)
		buckets = append(buckets, *bucket)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Hidden < buckets[j].Hidden
	})
	return buckets
}
