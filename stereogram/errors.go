package stereogram

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every failure returned by this package matches exactly one
// of them via errors.Is; the typed errors below carry the details.
var (
	// ErrInvalidDepthCharacter indicates a character with no depth mapping.
	ErrInvalidDepthCharacter = errors.New("stereogram: invalid character for representing depth")
	// ErrEmptyDepthMap indicates a depth map without rows or without columns.
	ErrEmptyDepthMap = errors.New("stereogram: depth map is empty")
	// ErrNonRectangular indicates depth rows of differing lengths.
	ErrNonRectangular = errors.New("stereogram: all depth map rows must have the same length")
	// ErrInvalidDimensions indicates a size that is not positive, exceeds
	// MaxDimension or MaxCells, or a rescale factor that is not finite.
	ErrInvalidDimensions = errors.New("stereogram: width and height must be positive and within limits")
	// ErrPatternTooShort indicates a pattern line with fewer characters than the shift.
	ErrPatternTooShort = errors.New("stereogram: pattern line is shorter than shift")
	// ErrInsufficientPatternHeight indicates fewer pattern lines than depth rows.
	ErrInsufficientPatternHeight = errors.New("stereogram: pattern has fewer lines than the image height")
	// ErrShiftTooSmallForDepth indicates shift <= greatest absolute depth.
	ErrShiftTooSmallForDepth = errors.New("stereogram: shift has to be greater than the greatest absolute depth")
	// ErrShiftBelowMinimum indicates shift < 2.
	ErrShiftBelowMinimum = errors.New("stereogram: shift has to be 2 or greater")
	// ErrPatternSurplusExhausted indicates a row ran out of filler characters.
	ErrPatternSurplusExhausted = errors.New("stereogram: ran out of pattern surplus")
	// ErrPrecondition indicates inputs that the synthesizer never accepts.
	ErrPrecondition = errors.New("stereogram: synthesis precondition violated")
)

// MinShift is the smallest usable shift.
const MinShift = 2

// InvalidDepthCharacterError reports an unmapped character and where it was found.
// Row and Column are -1 when the character was decoded outside of a depth map.
type InvalidDepthCharacterError struct {
	Char   rune
	Row    int
	Column int
}

func (e *InvalidDepthCharacterError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("invalid character for representing depth: found %q (code %d)", e.Char, e.Char)
	}
	return fmt.Sprintf("invalid character for representing depth: found %q (code %d) in line %d, column %d",
		e.Char, e.Char, e.Row, e.Column)
}

// Code returns the Unicode code point of the offending character.
func (e *InvalidDepthCharacterError) Code() int { return int(e.Char) }

func (e *InvalidDepthCharacterError) Is(target error) bool { return target == ErrInvalidDepthCharacter }

// PatternTooShortError reports the first pattern line shorter than the shift.
type PatternTooShortError struct {
	Line   int
	Length int
	Shift  int
}

func (e *PatternTooShortError) Error() string {
	return fmt.Sprintf("pattern too short: line %d has %d characters, shift is %d", e.Line, e.Length, e.Shift)
}

func (e *PatternTooShortError) Is(target error) bool { return target == ErrPatternTooShort }

// InsufficientPatternHeightError reports a pattern with too few lines.
type InsufficientPatternHeightError struct {
	Have int
	Want int
}

func (e *InsufficientPatternHeightError) Error() string {
	return fmt.Sprintf("pattern has %d lines, %d are needed", e.Have, e.Want)
}

func (e *InsufficientPatternHeightError) Is(target error) bool {
	return target == ErrInsufficientPatternHeight
}

// ShiftTooSmallError reports a shift that does not exceed the greatest absolute depth.
type ShiftTooSmallError struct {
	Shift    int
	MaxDepth int
}

func (e *ShiftTooSmallError) Error() string {
	return fmt.Sprintf("shift has to be greater than the greatest absolute value in the depth map: found shift = %d and greatest absolute depth = %d",
		e.Shift, e.MaxDepth)
}

func (e *ShiftTooSmallError) Is(target error) bool { return target == ErrShiftTooSmallForDepth }

// ShiftBelowMinimumError reports a shift smaller than MinShift.
type ShiftBelowMinimumError struct {
	Shift int
}

func (e *ShiftBelowMinimumError) Error() string {
	return fmt.Sprintf("shift has to be %d or greater: found shift = %d", MinShift, e.Shift)
}

func (e *ShiftBelowMinimumError) Is(target error) bool { return target == ErrShiftBelowMinimum }

// PatternSurplusExhaustedError names the row that ran out of filler characters.
type PatternSurplusExhaustedError struct {
	Row int
}

func (e *PatternSurplusExhaustedError) Error() string {
	return fmt.Sprintf("ran out of pattern surplus: pattern does not contain enough characters in line %d", e.Row)
}

func (e *PatternSurplusExhaustedError) Is(target error) bool {
	return target == ErrPatternSurplusExhausted
}

// Kind names the failure class of err, or returns "" when err does not come
// from this package.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidDepthCharacter):
		return "InvalidDepthCharacter"
	case errors.Is(err, ErrEmptyDepthMap):
		return "EmptyDepthMap"
	case errors.Is(err, ErrNonRectangular):
		return "NonRectangular"
	case errors.Is(err, ErrInvalidDimensions):
		return "InvalidDimensions"
	case errors.Is(err, ErrPatternTooShort):
		return "PatternTooShort"
	case errors.Is(err, ErrInsufficientPatternHeight):
		return "InsufficientPatternHeight"
	case errors.Is(err, ErrShiftTooSmallForDepth):
		return "ShiftTooSmallForDepth"
	case errors.Is(err, ErrShiftBelowMinimum):
		return "ShiftBelowMinimum"
	case errors.Is(err, ErrPatternSurplusExhausted):
		return "PatternSurplusExhausted"
	case errors.Is(err, ErrPrecondition):
		return "Precondition"
	default:
		return ""
	}
}
