package intake

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

// ErrDimensionsUnknown reports that a probe could not produce a pixel size.
var ErrDimensionsUnknown = errors.New("artwork dimensions unknown")

// Prober reads the pixel dimensions of an artwork candidate.
type Prober interface {
	Probe(ctx context.Context, c Candidate) (Dimensions, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, c Candidate) (Dimensions, error)

func (f ProberFunc) Probe(ctx context.Context, c Candidate) (Dimensions, error) {
	return f(ctx, c)
}

// DeclaredProbe trusts the width and height supplied with the candidate.
type DeclaredProbe struct{}

func (DeclaredProbe) Probe(_ context.Context, c Candidate) (Dimensions, error) {
	if c.Width <= 0 || c.Height <= 0 {
		return Dimensions{}, fmt.Errorf("%w: no declared size", ErrDimensionsUnknown)
	}
	return Dimensions{Width: c.Width, Height: c.Height}, nil
}

// DecodeProbe decodes the image header from the candidate's Source. Decoding
// runs in its own goroutine so a stalled reader cannot outlive ctx. When ctx
// ends first the goroutine keeps reading until the caller closes Source.
type DecodeProbe struct{}

func (DecodeProbe) Probe(ctx context.Context, c Candidate) (Dimensions, error) {
	if c.Source == nil {
		return Dimensions{}, fmt.Errorf("%w: no source", ErrDimensionsUnknown)
	}

	type result struct {
		cfg image.Config
		err error
	}
	done := make(chan result, 1)
	go func() {
		cfg, _, err := image.DecodeConfig(c.Source)
		done <- result{cfg: cfg, err: err}
	}()

	select {
	case <-ctx.Done():
		return Dimensions{}, fmt.Errorf("%w: %w", ErrDimensionsUnknown, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return Dimensions{}, fmt.Errorf("%w: %w", ErrDimensionsUnknown, res.err)
		}
		return Dimensions{Width: res.cfg.Width, Height: res.cfg.Height}, nil
	}
}
