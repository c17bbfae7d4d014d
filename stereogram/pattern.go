package stereogram

import (
	"math/rand/v2"
	"strings"
)

// CharPool is the set of characters random patterns are drawn from.
const CharPool = "aAbBcdDeEfFgGhHiJKLmMnNOPqQrRstTuVwXyZ12346789@#%$&/\\?^ ,;.:-_+*~\"!=|{}[]()><'`"

// Pattern holds one row of texture characters per output row. The first shift
// characters of a row seed the output; the rest is the surplus used to fill
// the cells uncovered by parallax.
type Pattern [][]rune

// Height returns the number of pattern rows.
func (p Pattern) Height() int { return len(p) }

// NewRand returns a random source for RandomPattern seeded with seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// RandomPattern builds height rows of exactly width characters. Each row is a
// concatenation of independently shuffled copies of CharPool, cut to width.
func RandomPattern(rng *rand.Rand, height, width int) (Pattern, error) {
	if err := CheckSize(width, height); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, ErrPrecondition
	}
	pool := []rune(CharPool)
	p := make(Pattern, height)
	for y := range p {
		row := make([]rune, 0, width+len(pool))
		for len(row) < width {
			rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
			row = append(row, pool...)
		}
		p[y] = row[:width:width]
	}
	return p, nil
}

// PatternFromLines uses the first height lines as pattern rows. Every kept
// line must hold at least shift characters.
func PatternFromLines(lines []string, height, shift int) (Pattern, error) {
	if height < 1 {
		return nil, ErrInvalidDimensions
	}
	if len(lines) < height {
		return nil, &InsufficientPatternHeightError{Have: len(lines), Want: height}
	}
	p := make(Pattern, height)
	for i, l := range lines[:height] {
		p[i] = []rune(l)
		if len(p[i]) < shift {
			return nil, &PatternTooShortError{Line: i, Length: len(p[i]), Shift: shift}
		}
	}
	return p, nil
}

// String returns the pattern rows joined by newlines.
func (p Pattern) String() string {
	var b strings.Builder
	for _, row := range p {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}
