package stereogram

// ValidateShift checks that shift exceeds every absolute elevation in dm and is
// at least MinShift. The depth check runs first.
func ValidateShift(shift int, dm *DepthMap) error {
	if dm == nil {
		return ErrEmptyDepthMap
	}
	if m := dm.MaxAbs(); shift <= m {
		return &ShiftTooSmallError{Shift: shift, MaxDepth: m}
	}
	if shift < MinShift {
		return &ShiftBelowMinimumError{Shift: shift}
	}
	return nil
}
