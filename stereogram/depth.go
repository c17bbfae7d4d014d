package stereogram

// MaxDepth is the greatest elevation a single character can encode.
const MaxDepth = 26

// DecodeDepth returns the elevation encoded by r.
func DecodeDepth(r rune) (int, error) {
	switch {
	case r == ' ':
		return 0, nil
	case r >= '0' && r <= '9':
		return int(r - '0'), nil
	case r >= 'a' && r <= 'z':
		return int(r-'a') + 1, nil
	case r >= 'A' && r <= 'Z':
		return -(int(r-'A') + 1), nil
	default:
		return 0, &InvalidDepthCharacterError{Char: r, Row: -1, Column: -1}
	}
}

// EncodeDepth returns the canonical character for elevation v: ' ' for the
// background, lowercase letters above it and uppercase letters below it.
// ok is false when v lies outside [-MaxDepth, MaxDepth].
func EncodeDepth(v int) (r rune, ok bool) {
	switch {
	case v == 0:
		return ' ', true
	case v > 0 && v <= MaxDepth:
		return rune('a' + v - 1), true
	case v < 0 && v >= -MaxDepth:
		return rune('A' - v - 1), true
	default:
		return 0, false
	}
}
