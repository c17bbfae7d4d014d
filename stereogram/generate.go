package stereogram

import (
	"context"
	"fmt"
)

// DefaultShift is the shift used when Options.Shift is zero.
const DefaultShift = 20

// Pattern sources reported in Result.PatternSource.
const (
	PatternRandom = "random"
	PatternCustom = "custom"
)

// Options controls Generate. Zero values select the defaults of the command
// line tool.
type Options struct {
	// Shift is the repetition period of the background plane. 0 means DefaultShift.
	Shift int
	// Width is the total output width including the shift. 0 means shift plus
	// the longest depth map line.
	Width int
	// Height is the number of output rows. 0 means one per depth map line.
	Height int
	// Rescale multiplies every elevation. nil means 1.
	Rescale *float64
	// PatternLines, when non-nil, replaces the random pattern.
	PatternLines []string
	// Seed feeds the random pattern.
	Seed int64
	// Workers > 1 synthesizes rows concurrently.
	Workers int
}

// Result is a generated stereogram together with the parameters that were
// actually used.
type Result struct {
	Stereogram    Stereogram
	DepthMap      *DepthMap
	Shift         int
	Width         int
	Height        int
	Rescale       float64
	Seed          int64
	PatternSource string
}

// Generate runs the whole pipeline: build the depth map, validate the shift,
// pick a pattern and synthesize.
func Generate(ctx context.Context, depthLines []string, opts Options) (*Result, error) {
	shift := opts.Shift
	if shift == 0 {
		shift = DefaultShift
	}
	rescale := 1.0
	if opts.Rescale != nil {
		rescale = *opts.Rescale
	}
	if opts.Width < 0 || opts.Height < 0 {
		return nil, ErrInvalidDimensions
	}
	if shift > MaxDimension || shift < -MaxDimension || opts.Width > MaxDimension || opts.Height > MaxDimension {
		return nil, fmt.Errorf("%w: shift %d, width %d and height %d must stay within %d",
			ErrInvalidDimensions, shift, opts.Width, opts.Height, MaxDimension)
	}

	depthWidth := 0
	if opts.Width > 0 {
		depthWidth = opts.Width - shift
		if depthWidth <= 0 {
			return nil, fmt.Errorf("%w: width %d leaves no room next to shift %d", ErrInvalidDimensions, opts.Width, shift)
		}
	}
	dm, err := BuildDepthMap(depthLines, depthWidth, opts.Height, rescale)
	if err != nil {
		return nil, err
	}
	if err := ValidateShift(shift, dm); err != nil {
		return nil, err
	}
	if err := CheckSize(shift+dm.Width, dm.Height); err != nil {
		return nil, err
	}

	res := &Result{
		DepthMap: dm,
		Shift:    shift,
		Width:    shift + dm.Width,
		Height:   dm.Height,
		Rescale:  rescale,
	}
	var p Pattern
	if opts.PatternLines != nil {
		res.PatternSource = PatternCustom
		p, err = PatternFromLines(opts.PatternLines, res.Height, shift)
	} else {
		res.PatternSource = PatternRandom
		res.Seed = opts.Seed
		p, err = RandomPattern(NewRand(opts.Seed), res.Height, res.Width)
	}
	if err != nil {
		return nil, err
	}

	if opts.Workers > 1 {
		res.Stereogram, err = SynthesizeParallel(ctx, dm, shift, p, opts.Workers)
	} else {
		res.Stereogram, err = Synthesize(dm, shift, p)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}
