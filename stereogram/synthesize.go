package stereogram

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Stereogram is the generated character grid. Every row is shift characters
// wider than the depth map it was built from.
type Stereogram [][]rune

// String serializes the grid one row per line, with a single trailing newline.
func (s Stereogram) String() string {
	var b strings.Builder
	for _, row := range s {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Width returns the number of characters per row.
func (s Stereogram) Width() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0])
}

// Synthesize builds the autostereogram for dm, one row after another. Only the
// first dm.Height rows of p are used.
func Synthesize(dm *DepthMap, shift int, p Pattern) (Stereogram, error) {
	if err := checkSynthesis(dm, shift, p); err != nil {
		return nil, err
	}
	out := make(Stereogram, dm.Height)
	for y := range out {
		row, err := synthesizeRow(y, dm.Values[y], shift, p[y])
		if err != nil {
			return nil, err
		}
		out[y] = row
	}
	return out, nil
}

// SynthesizeParallel is Synthesize with the rows split into contiguous chunks,
// one goroutine per chunk. When several rows fail, the error of the lowest row
// is returned, so the outcome never depends on scheduling.
func SynthesizeParallel(ctx context.Context, dm *DepthMap, shift int, p Pattern, workers int) (Stereogram, error) {
	if err := checkSynthesis(dm, shift, p); err != nil {
		return nil, err
	}
	chunks := splitRows(dm.Height, workers)
	if len(chunks) == 1 {
		return Synthesize(dm, shift, p)
	}

	out := make(Stereogram, dm.Height)
	errs := make([]error, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		g.Go(func() error {
			for y := c[0]; y < c[1]; y++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				row, err := synthesizeRow(y, dm.Values[y], shift, p[y])
				if err != nil {
					// Other chunks keep going so the lowest failing row wins.
					errs[i] = err
					return nil
				}
				out[y] = row
			}
			return nil
		})
	}
	waitErr := g.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if waitErr != nil {
		return nil, waitErr
	}
	return out, nil
}

func checkSynthesis(dm *DepthMap, shift int, p Pattern) error {
	if dm == nil || dm.Height == 0 || dm.Width == 0 {
		return fmt.Errorf("%w: depth map is empty", ErrPrecondition)
	}
	if shift < MinShift {
		return fmt.Errorf("%w: shift %d is below %d", ErrPrecondition, shift, MinShift)
	}
	if shift > MaxDimension || dm.Width > MaxDimension {
		return fmt.Errorf("%w: shift %d and width %d must stay within %d", ErrPrecondition, shift, dm.Width, MaxDimension)
	}
	if len(p) < dm.Height {
		return fmt.Errorf("%w: pattern has %d rows, depth map has %d", ErrPrecondition, len(p), dm.Height)
	}
	if m := dm.MaxAbs(); shift <= m {
		return &ShiftTooSmallError{Shift: shift, MaxDepth: m}
	}
	for y := 0; y < dm.Height; y++ {
		if len(dm.Values[y]) != dm.Width {
			return fmt.Errorf("%w: depth row %d has %d columns, want %d", ErrPrecondition, y, len(dm.Values[y]), dm.Width)
		}
		if len(p[y]) < shift {
			return fmt.Errorf("%w: pattern row %d has %d characters, shift is %d", ErrPrecondition, y, len(p[y]), shift)
		}
	}
	return nil
}

// rowBuffer is one output row under construction. filled marks the cells that
// already hold a character; surplus is read through next.
type rowBuffer struct {
	cells   []rune
	filled  []bool
	surplus []rune
	next    int
}

func newRowBuffer(pattern []rune, shift, width int) *rowBuffer {
	rb := &rowBuffer{
		cells:   make([]rune, shift+width),
		filled:  make([]bool, shift+width),
		surplus: pattern[shift:],
	}
	copy(rb.cells, pattern[:shift])
	for i := 0; i < shift; i++ {
		rb.filled[i] = true
	}
	return rb
}

// fill takes the next surplus character for cell x unless x is already set.
func (rb *rowBuffer) fill(x int) bool {
	if rb.filled[x] {
		return true
	}
	if rb.next >= len(rb.surplus) {
		return false
	}
	rb.cells[x] = rb.surplus[rb.next]
	rb.filled[x] = true
	rb.next++
	return true
}

func synthesizeRow(y int, depths []int, shift int, pattern []rune) ([]rune, error) {
	width := len(depths)
	rb := newRowBuffer(pattern, shift, width)
	for x, elevation := range depths {
		if !rb.fill(x) {
			return nil, &PatternSurplusExhaustedError{Row: y}
		}
		// Copies that would land right of the image are dropped.
		if t := x + shift - elevation; t < len(rb.cells) {
			rb.cells[t] = rb.cells[x]
			rb.filled[t] = true
		}
	}
	for x := width; x < width+shift; x++ {
		if !rb.fill(x) {
			return nil, &PatternSurplusExhaustedError{Row: y}
		}
	}
	return rb.cells, nil
}

// splitRows partitions h rows into at most workers contiguous [start, end) ranges.
func splitRows(h, workers int) [][2]int {
	if workers < 1 {
		workers = 1
	}
	if workers > h {
		workers = h
	}
	rows := make([][2]int, 0, workers)
	step := h / workers
	start := 0
	for i := 0; i < workers; i++ {
		end := start + step
		if i == workers-1 {
			end = h
		}
		rows = append(rows, [2]int{start, end})
		start = end
	}
	return rows
}
