package stereogram

import (
	"fmt"
	"math"
	"strings"
)

// Size limits. Larger requests fail with ErrInvalidDimensions before anything
// is allocated for them.
const (
	// MaxDimension bounds the width, height and shift of a stereogram.
	MaxDimension = 1 << 14
	// MaxCells bounds width times height of a stereogram.
	MaxCells = 1 << 22
)

// MaxElevation is the magnitude rescaled elevations saturate at. It is far
// above MaxDimension, so a saturated map never passes ValidateShift.
const MaxElevation = math.MaxInt32

// CheckSize reports whether a width by height grid is within the size limits.
func CheckSize(width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, width, height)
	}
	if width > MaxDimension || height > MaxDimension || width*height > MaxCells {
		return fmt.Errorf("%w: %dx%d exceeds the limit of %d per side and %d cells",
			ErrInvalidDimensions, width, height, MaxDimension, MaxCells)
	}
	return nil
}

// DepthMap is a rectangular grid of elevations. Values[y][x] holds the depth
// of column x in row y. It is not modified after construction.
type DepthMap struct {
	Width, Height int
	Values        [][]int
}

// NewDepthMap builds a DepthMap from a non-empty, rectangular 2D slice.
// The input is deep-copied.
func NewDepthMap(values [][]int) (*DepthMap, error) {
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, ErrEmptyDepthMap
	}
	h, w := len(values), len(values[0])
	for _, row := range values {
		if len(row) != w {
			return nil, ErrNonRectangular
		}
	}
	cells := make([][]int, h)
	for y := range values {
		cells[y] = make([]int, w)
		copy(cells[y], values[y])
	}
	return &DepthMap{Width: w, Height: h, Values: cells}, nil
}

// MaxAbs returns the greatest absolute elevation in the map. math.MinInt
// counts as math.MaxInt.
func (dm *DepthMap) MaxAbs() int {
	best := 0
	for _, row := range dm.Values {
		for _, v := range row {
			switch {
			case v == math.MinInt:
				v = math.MaxInt
			case v < 0:
				v = -v
			}
			best = max(best, v)
		}
	}
	return best
}

// String renders the map with EncodeDepth, one row per line. Elevations that
// have no character are shown as '?'.
func (dm *DepthMap) String() string {
	var b strings.Builder
	for _, row := range dm.Values {
		for _, v := range row {
			r, ok := EncodeDepth(v)
			if !ok {
				r = '?'
			}
			b.WriteRune(r)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// BuildDepthMap decodes raw depth map lines.
//
// A width or height <= 0 keeps the natural size: the longest line and the
// number of lines. A smaller height keeps the top lines; a greater one adds
// blank lines evenly above and below (the odd one below). Lines are first
// padded to the longest line, then cut to width from the left and centered in
// it (the odd padding column on the right). Every decoded value is multiplied
// by rescale, rounded half to even and saturated at ±MaxElevation.
//
// Both the natural and the requested size must pass CheckSize.
func BuildDepthMap(lines []string, width, height int, rescale float64) (*DepthMap, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyDepthMap
	}
	if math.IsNaN(rescale) || math.IsInf(rescale, 0) {
		return nil, fmt.Errorf("%w: rescale factor %v is not finite", ErrInvalidDimensions, rescale)
	}
	if len(lines) > MaxDimension {
		return nil, fmt.Errorf("%w: %d lines exceed the limit of %d", ErrInvalidDimensions, len(lines), MaxDimension)
	}
	rows := make([][]rune, len(lines))
	natural := 0
	for i, l := range lines {
		rows[i] = []rune(l)
		natural = max(natural, len(rows[i]))
	}
	if natural > MaxDimension {
		return nil, fmt.Errorf("%w: line of %d characters exceeds the limit of %d", ErrInvalidDimensions, natural, MaxDimension)
	}
	if width <= 0 {
		width = natural
	}
	if width == 0 {
		return nil, ErrEmptyDepthMap
	}
	h := height
	if h <= 0 {
		h = len(rows)
	}
	if err := CheckSize(width, h); err != nil {
		return nil, err
	}
	rows = fitHeight(rows, height)

	values := make([][]int, len(rows))
	for y, r := range rows {
		line := center(padRight(r, natural), width)
		values[y] = make([]int, width)
		for x, c := range line {
			v, err := DecodeDepth(c)
			if err != nil {
				return nil, &InvalidDepthCharacterError{Char: c, Row: y, Column: x}
			}
			values[y][x] = rescaleDepth(v, rescale)
		}
	}
	return &DepthMap{Width: width, Height: len(values), Values: values}, nil
}

// fitHeight crops rows to height or centers them vertically between blank rows.
func fitHeight(rows [][]rune, height int) [][]rune {
	n := len(rows)
	if height <= 0 {
		return rows
	}
	if height <= n {
		return rows[:height]
	}
	above := (height - n) / 2
	below := height - n - above
	out := make([][]rune, 0, height)
	for i := 0; i < above; i++ {
		out = append(out, nil)
	}
	out = append(out, rows...)
	for i := 0; i < below; i++ {
		out = append(out, nil)
	}
	return out
}

func padRight(r []rune, width int) []rune {
	if len(r) >= width {
		return r
	}
	out := make([]rune, width)
	copy(out, r)
	for i := len(r); i < width; i++ {
		out[i] = ' '
	}
	return out
}

// center cuts r to width and centers what is left in a row of spaces.
func center(r []rune, width int) []rune {
	if len(r) > width {
		r = r[:width]
	}
	out := make([]rune, width)
	for i := range out {
		out[i] = ' '
	}
	left := (width - len(r)) / 2
	copy(out[left:], r)
	return out
}

func rescaleDepth(v int, factor float64) int {
	if factor == 1 {
		return v
	}
	f := math.RoundToEven(float64(v) * factor)
	switch {
	case f > MaxElevation:
		return MaxElevation
	case f < -MaxElevation:
		return -MaxElevation
	}
	return int(f)
}
