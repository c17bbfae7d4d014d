// Package stereogram turns a textual depth map into an ASCII autostereogram.
//
// What:
//
//   - DecodeDepth maps one character to a signed elevation: ' ' and '0' are the
//     background plane, '1'..'9' and 'a'..'z' (1..26) come nearer, 'A'..'Z'
//     (-1..-26) recede.
//   - BuildDepthMap turns raw lines into a rectangular DepthMap, cropping or
//     centering it to a requested size and rescaling every elevation.
//   - RandomPattern and PatternFromLines provide the texture rows.
//   - ValidateShift checks the shift against the depth map.
//   - Synthesize runs the shift-and-repeat construction row by row;
//     SynthesizeParallel spreads the rows over goroutines.
//   - Generate chains all of the above the way the command line tool does.
//
// How:
//
// Every output row starts with shift characters taken from its pattern row.
// Walking the depth row from left to right, the character at column x is copied
// to column x+shift-elevation, so nearer points repeat with a shorter period.
// Cells no copy reaches are filled from the rest of the pattern row, the surplus.
//
// Errors:
//
//   - ErrInvalidDepthCharacter, ErrEmptyDepthMap, ErrNonRectangular,
//     ErrInvalidDimensions: depth map input. Sizes are capped by MaxDimension
//     and MaxCells; rescaled elevations saturate at MaxElevation.
//   - ErrPatternTooShort, ErrInsufficientPatternHeight: pattern input.
//   - ErrShiftTooSmallForDepth, ErrShiftBelowMinimum: shift validation.
//   - ErrPatternSurplusExhausted, ErrPrecondition: synthesis.
//
// Nothing in this package reads files, logs or exits the process.
package stereogram
