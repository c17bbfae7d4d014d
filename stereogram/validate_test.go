package stereogram_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevecastle/asciistereo/stereogram"
)

func mustDepthMap(t testing.TB, values [][]int) *stereogram.DepthMap {
	t.Helper()
	dm, err := stereogram.NewDepthMap(values)
	require.NoError(t, err)
	return dm
}

func TestValidateShift(t *testing.T) {
	cases := []struct {
		name   string
		shift  int
		values [][]int
		err    error
	}{
		{"ShiftOneNonZeroMap", 1, [][]int{{0, 1}}, stereogram.ErrShiftTooSmallForDepth},
		{"ShiftOneNegativeMap", 1, [][]int{{-1, 0}}, stereogram.ErrShiftTooSmallForDepth},
		{"ShiftOneZeroMap", 1, [][]int{{0, 0}}, stereogram.ErrShiftBelowMinimum},
		{"ShiftZeroZeroMap", 0, [][]int{{0}}, stereogram.ErrShiftTooSmallForDepth},
		{"EqualToMax", 25, [][]int{{25, -3}}, stereogram.ErrShiftTooSmallForDepth},
		{"AboveMax", 26, [][]int{{25, -3}}, nil},
		{"AboveNegativeMax", 26, [][]int{{3, -25}}, nil},
		{"MinimumOnFlatMap", 2, [][]int{{0, 0}, {0, 0}}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := stereogram.ValidateShift(tc.shift, mustDepthMap(t, tc.values))
			if tc.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestValidateShift_Details(t *testing.T) {
	err := stereogram.ValidateShift(4, mustDepthMap(t, [][]int{{1, -7}}))
	var st *stereogram.ShiftTooSmallError
	require.ErrorAs(t, err, &st)
	assert.Equal(t, 4, st.Shift)
	assert.Equal(t, 7, st.MaxDepth)

	err = stereogram.ValidateShift(1, mustDepthMap(t, [][]int{{0}}))
	var sb *stereogram.ShiftBelowMinimumError
	require.ErrorAs(t, err, &sb)
	assert.Equal(t, 1, sb.Shift)
}

func TestValidateShift_NilMap(t *testing.T) {
	assert.ErrorIs(t, stereogram.ValidateShift(20, nil), stereogram.ErrEmptyDepthMap)
}
