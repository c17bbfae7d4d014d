package stereogram_test

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevecastle/asciistereo/stereogram"
)

func patternOf(rows ...string) stereogram.Pattern {
	p := make(stereogram.Pattern, len(rows))
	for i, r := range rows {
		p[i] = []rune(r)
	}
	return p
}

func TestSynthesize_Rows(t *testing.T) {
	cases := []struct {
		name    string
		depths  [][]int
		shift   int
		pattern stereogram.Pattern
		want    string
	}{
		{"FlatRow", [][]int{{0, 0, 0}}, 2, patternOf("abcde"), "ababa\n"},
		{"RaisedFirstCell", [][]int{{1, 0, 0}}, 2, patternOf("abcde"), "aacac\n"},
		{"RaisedMiddle", [][]int{{0, 1, 1, 0}}, 3, patternOf("abcdefgh"), "abcbcdb\n"},
		{"TwoRows", [][]int{{0, 0, 0}, {1, 0, 0}}, 2, patternOf("abcde", "vwxyz"), "ababa\nvvxvx\n"},
		{"MixedHeights", [][]int{{2, 2, 0, 0, 1}}, 3, patternOf("abcdefghij"), "aaadeaef\n"},
		{"RecessAtRightEdge", [][]int{{0, 0, -1}}, 2, patternOf("abcdef"), "ababc\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := stereogram.Synthesize(mustDepthMap(t, tc.depths), tc.shift, tc.pattern)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out.String())
			assert.Equal(t, tc.shift+len(tc.depths[0]), out.Width())
		})
	}
}

func TestSynthesize_FlatMapRepeatsSeed(t *testing.T) {
	const width, height, shift = 37, 5, 6
	values := make([][]int, height)
	for y := range values {
		values[y] = make([]int, width)
	}
	p, err := stereogram.RandomPattern(stereogram.NewRand(3), height, width+shift)
	require.NoError(t, err)

	out, err := stereogram.Synthesize(mustDepthMap(t, values), shift, p)
	require.NoError(t, err)
	require.Len(t, out, height)
	for y, row := range out {
		require.Len(t, row, width+shift)
		for x, r := range row {
			assert.Equal(t, p[y][x%shift], r, "cell (%d,%d)", x, y)
		}
	}
}

func TestSynthesize_SurplusExhausted(t *testing.T) {
	dm := mustDepthMap(t, [][]int{{0, 0, 0}, {1, 0, 0}})
	_, err := stereogram.Synthesize(dm, 2, patternOf("ab", "ab"))
	require.ErrorIs(t, err, stereogram.ErrPatternSurplusExhausted)
	var pse *stereogram.PatternSurplusExhaustedError
	require.ErrorAs(t, err, &pse)
	assert.Equal(t, 1, pse.Row)
}

func TestSynthesize_SurplusExactlyEnough(t *testing.T) {
	dm := mustDepthMap(t, [][]int{{1, 0, 0}})
	out, err := stereogram.Synthesize(dm, 2, patternOf("abc"))
	require.NoError(t, err)
	assert.Equal(t, "aacac\n", out.String())
}

func TestSynthesize_Preconditions(t *testing.T) {
	flat := mustDepthMap(t, [][]int{{0, 0}, {0, 0}})
	cases := []struct {
		name    string
		dm      *stereogram.DepthMap
		shift   int
		pattern stereogram.Pattern
		err     error
	}{
		{"NilDepthMap", nil, 2, patternOf("abc"), stereogram.ErrPrecondition},
		{"EmptyDepthMap", &stereogram.DepthMap{}, 2, patternOf("abc"), stereogram.ErrPrecondition},
		{"ShiftBelowTwo", flat, 1, patternOf("abc", "abc"), stereogram.ErrPrecondition},
		{"TooFewPatternRows", flat, 2, patternOf("abcd"), stereogram.ErrPrecondition},
		{"PatternRowShorterThanShift", flat, 3, patternOf("abcd", "ab"), stereogram.ErrPrecondition},
		{"ShiftNotAboveDepth", mustDepthMap(t, [][]int{{3}}), 3, patternOf("abcdef"), stereogram.ErrShiftTooSmallForDepth},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := stereogram.Synthesize(tc.dm, tc.shift, tc.pattern)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func randomDepthMap(t testing.TB, seed uint64, width, height, maxDepth int) *stereogram.DepthMap {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed))
	values := make([][]int, height)
	for y := range values {
		values[y] = make([]int, width)
		for x := range values[y] {
			values[y][x] = rng.IntN(2*maxDepth+1) - maxDepth
		}
	}
	return mustDepthMap(t, values)
}

func TestSynthesizeParallel_MatchesSequential(t *testing.T) {
	const width, height, shift = 60, 23, 12
	dm := randomDepthMap(t, 11, width, height, 5)
	p, err := stereogram.RandomPattern(stereogram.NewRand(5), height, width+shift)
	require.NoError(t, err)

	want, err := stereogram.Synthesize(dm, shift, p)
	require.NoError(t, err)
	for _, workers := range []int{0, 1, 2, 4, 7, height, 100} {
		got, err := stereogram.SynthesizeParallel(context.Background(), dm, shift, p, workers)
		require.NoError(t, err, "workers=%d", workers)
		if diff := cmp.Diff(want.String(), got.String()); diff != "" {
			t.Errorf("workers=%d mismatch (-sequential +parallel):\n%s", workers, diff)
		}
	}
}

func TestSynthesizeParallel_LowestFailingRow(t *testing.T) {
	values := make([][]int, 8)
	rows := make([]string, 8)
	for y := range values {
		values[y] = []int{0, 0, 0}
		rows[y] = "ab"
	}
	values[2] = []int{1, 0, 0}
	values[6] = []int{1, 0, 0}

	_, err := stereogram.SynthesizeParallel(context.Background(), mustDepthMap(t, values), 2, patternOf(rows...), 4)
	var pse *stereogram.PatternSurplusExhaustedError
	require.ErrorAs(t, err, &pse)
	assert.Equal(t, 2, pse.Row)
}

func TestSynthesizeParallel_Cancelled(t *testing.T) {
	dm := randomDepthMap(t, 1, 10, 8, 2)
	p, err := stereogram.RandomPattern(stereogram.NewRand(1), 8, 14)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = stereogram.SynthesizeParallel(ctx, dm, 4, p, 4)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStereogram_String(t *testing.T) {
	s := stereogram.Stereogram{[]rune("ab"), []rune("cd")}
	assert.Equal(t, "ab\ncd\n", s.String())
	assert.False(t, strings.HasSuffix(s.String(), "\n\n"))
	assert.Zero(t, stereogram.Stereogram{}.Width())
}
