// Package textio reads depth map and pattern files: it decodes the file's
// character encoding and splits the text into lines.
package textio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultEncoding is assumed when no encoding is named.
const DefaultEncoding = "utf-8"

// MaxFileSize bounds the files ReadLines accepts.
const MaxFileSize = 16 << 20

var encodings = map[string]encoding.Encoding{
	"utf-8":        unicode.UTF8BOM,
	"utf8":         unicode.UTF8BOM,
	"utf-16":       unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"cp437":        charmap.CodePage437,
	"cp850":        charmap.CodePage850,
}

// Encodings lists the accepted encoding names.
func Encodings() []string {
	names := make([]string, 0, len(encodings))
	for n := range encodings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the encoding registered under name. The empty name selects
// DefaultEncoding.
func Lookup(name string) (encoding.Encoding, error) {
	if name == "" {
		name = DefaultEncoding
	}
	enc, ok := encodings[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown encoding %q (known: %s)", name, strings.Join(Encodings(), ", "))
	}
	return enc, nil
}

// Decode converts data from the named encoding to a UTF-8 string. A UTF-8
// byte order mark is dropped.
func Decode(data []byte, name string) (string, error) {
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return string(out), nil
}

// ReadLines decodes everything from r and splits it with SplitLines.
func ReadLines(r io.Reader, name string) ([]string, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	if n > MaxFileSize {
		return nil, fmt.Errorf("input too large: more than %d bytes", MaxFileSize)
	}
	text, err := Decode(buf.Bytes(), name)
	if err != nil {
		return nil, err
	}
	return SplitLines(text), nil
}

// ReadFile is ReadLines for the file at path.
func ReadFile(path, name string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	lines, err := ReadLines(f, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lines, nil
}

// SplitLines splits s at every line boundary: \n, \r\n, \r, \v, \f, the
// separators \x1c, \x1d, \x1e, NEL (U+0085), LINE SEPARATOR (U+2028) and
// PARAGRAPH SEPARATOR (U+2029). The separators are not kept and a trailing
// boundary does not start an extra empty line.
func SplitLines(s string) []string {
	var lines []string
	start := 0
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		if !isLineBoundary(rs[i]) {
			continue
		}
		lines = append(lines, string(rs[start:i]))
		if rs[i] == '\r' && i+1 < len(rs) && rs[i+1] == '\n' {
			i++
		}
		start = i + 1
	}
	if start < len(rs) {
		lines = append(lines, string(rs[start:]))
	}
	return lines
}

func isLineBoundary(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
