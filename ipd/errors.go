package ipd

import (
	"errors"

	"github.com/baldhumanity/ipd-go/ipd/nn"
)

var (
	// ErrNotImplemented is returned by a being that has no decision policy.
	ErrNotImplemented = errors.New("decision policy not implemented")

	// ErrScript wraps compile and evaluation failures of scripted strategies.
	ErrScript = errors.New("strategy script error")

	// ErrMalformedImport is returned when a population or brain payload cannot
	// be rebuilt. It is the same sentinel the network package uses.
	ErrMalformedImport = nn.ErrMalformedImport
)
