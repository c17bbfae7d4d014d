// Command stereogram prints an ASCII autostereogram for a text depth map.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/stevecastle/asciistereo/appconfig"
	"github.com/stevecastle/asciistereo/history"
	"github.com/stevecastle/asciistereo/platform"
	"github.com/stevecastle/asciistereo/stereogram"
	"github.com/stevecastle/asciistereo/textio"
)

const helpText = `
Depth map syntax:
  Each character is the elevation of one cell. Higher values appear nearer.
  '0' and space are the background plane. Digits 1-9 raise a cell, and so do
  the letters a-z for 1 to 26. Upper case A-Z sink a cell below the
  background, A=-1 through Z=-26.

Pattern file:
  Line n of the file is the repeating pattern of output row n. Every line
  needs at least SHIFT characters. Where a raised cell sits left of a lower
  one, the right eye sees background hidden from the left eye, and those
  gaps are filled from the characters after the first SHIFT. Longer lines
  give more room for this.

Viewing tips:
  - Bright rooms and bright screens make the effect easier to see.
  - A good SHIFT depends on your screen, font and viewing distance. Try a
    few values; anything from single digits to hundreds can work.
  - Seeing double images means SHIFT is too small. Try doubling it.
  - Keep SHIFT well above the largest elevation, ideally twice as large, or
    shrink the elevations with -r.
  - Leave a margin of background around the subject. -x and -y add one.
  - In custom patterns, avoid repeating the same character back to back.
`

// positiveInt is a flag.Value accepting integers > 0.
type positiveInt struct {
	v   int
	set bool
}

func (p *positiveInt) String() string {
	if p == nil || !p.set {
		return ""
	}
	return strconv.Itoa(p.v)
}

func (p *positiveInt) Set(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("invalid positive int value: %q", s)
	}
	p.v, p.set = n, true
	return nil
}

type options struct {
	depthPath   string
	patternPath string
	shift       positiveInt
	width       positiveInt
	height      positiveInt
	rescale     float64
	seed        int64
	seedSet     bool
	workers     int
	encoding    string
	outPath     string
	open        bool
	record      bool
	configPath  string
	verbose     bool
	listEncs    bool
	rescaleSet  bool
	workersSet  bool
	encodingSet bool
}

// errUsage reports a command line error that has already been printed.
var errUsage = errors.New("usage error")

// parseArgs accepts flags before and after the DEPTHMAP argument.
func parseArgs(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("stereogram", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.Var(&o.shift, "s", "shorthand for -shift")
	fs.Var(&o.shift, "shift", fmt.Sprintf("characters the background plane repeats after; must exceed the largest absolute elevation (default %d)", stereogram.DefaultShift))
	fs.StringVar(&o.patternPath, "p", "", "shorthand for -pattern")
	fs.StringVar(&o.patternPath, "pattern", "", "pattern `file`; a random pattern is used when empty")
	fs.Var(&o.width, "x", "shorthand for -width")
	fs.Var(&o.width, "width", "output width including SHIFT; extra width centers the depth map (default SHIFT + longest line)")
	fs.Var(&o.height, "y", "shorthand for -height")
	fs.Var(&o.height, "height", "output height; extra lines center the depth map (default: every line)")
	fs.Float64Var(&o.rescale, "r", 1, "shorthand for -rescale-depth")
	fs.Float64Var(&o.rescale, "rescale-depth", 1, "multiply every elevation, rounding half to even")
	fs.Int64Var(&o.seed, "seed", 0, "seed for the random pattern (default: random)")
	fs.IntVar(&o.workers, "workers", 1, "goroutines synthesizing rows")
	fs.StringVar(&o.encoding, "encoding", textio.DefaultEncoding, "character encoding of the input files")
	fs.BoolVar(&o.listEncs, "list-encodings", false, "print the supported encodings and exit")
	fs.StringVar(&o.outPath, "o", "", "write the stereogram to `file` instead of stdout")
	fs.BoolVar(&o.open, "open", false, "open the result with the default application")
	fs.BoolVar(&o.record, "record", false, "store the render in the history database")
	fs.StringVar(&o.configPath, "config", "", "config `file` supplying defaults")
	fs.BoolVar(&o.verbose, "v", false, "log parameters to stderr")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: stereogram [flags] DEPTHMAP\n\nGenerate ASCII autostereograms. DEPTHMAP may be - for stdin.\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprint(fs.Output(), helpText)
	}

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, err
			}
			return nil, errUsage
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			o.seedSet = true
		case "r", "rescale-depth":
			o.rescaleSet = true
		case "workers":
			o.workersSet = true
		case "encoding":
			o.encodingSet = true
		}
	})

	if o.listEncs {
		return o, nil
	}
	if len(positional) != 1 {
		fmt.Fprintf(stderr, "expected exactly one DEPTHMAP argument, got %d\n", len(positional))
		fs.Usage()
		return nil, errUsage
	}
	o.depthPath = positional[0]
	return o, nil
}

// applyConfig fills in every default the user did not set on the command line.
func (o *options) applyConfig(c appconfig.Config) {
	if !o.shift.set && c.DefaultShift >= stereogram.MinShift {
		o.shift.v = c.DefaultShift
	}
	if !o.rescaleSet && c.DefaultRescale != 0 {
		o.rescale = c.DefaultRescale
	}
	if !o.workersSet && c.Workers > 0 {
		o.workers = c.Workers
	}
	if !o.encodingSet && c.InputEncoding != "" {
		o.encoding = c.InputEncoding
	}
}

func loadConfig(path string) (appconfig.Config, error) {
	if path != "" {
		c, _, err := appconfig.LoadFrom(path)
		return c, err
	}
	c, _, err := appconfig.Load()
	return c, err
}

// readInput reads the depth map from path, or from stdin when path is "-".
func readInput(path, encoding string, stdin io.Reader) ([]string, error) {
	if path == "-" {
		lines, err := textio.ReadLines(stdin, encoding)
		if err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
		return lines, nil
	}
	return textio.ReadFile(path, encoding)
}

// describe turns a generation error into the message shown to the user.
func describe(err error) string {
	var (
		shiftErr   *stereogram.ShiftTooSmallError
		patternErr *stereogram.PatternTooShortError
		surplusErr *stereogram.PatternSurplusExhaustedError
	)
	switch {
	case errors.As(err, &shiftErr):
		return fmt.Sprintf("Error: SHIFT has to be greater than the greatest absolute value in the depth map.\n"+
			"Found SHIFT = %d and greatest absolute value = %d.\n"+
			"Use -help for tips on choosing a good SHIFT value.", shiftErr.Shift, shiftErr.MaxDepth)
	case errors.As(err, &patternErr):
		return fmt.Sprintf("Error: pattern too short, line %d of the pattern file has %d characters but SHIFT is %d.",
			patternErr.Line, patternErr.Length, patternErr.Shift)
	case errors.As(err, &surplusErr):
		return fmt.Sprintf("Error: ran out of pattern surplus in line %d.\n"+
			"Make that line of the pattern file longer.", surplusErr.Row)
	case errors.Is(err, stereogram.ErrEmptyDepthMap):
		return "Error: the depth map is empty."
	default:
		return "Error: " + err.Error()
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	o, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}
	if o.listEncs {
		for _, name := range textio.Encodings() {
			fmt.Fprintln(stdout, name)
		}
		return 0
	}

	var cfg appconfig.Config
	if o.configPath != "" || o.record {
		if cfg, err = loadConfig(o.configPath); err != nil {
			fmt.Fprintf(stderr, "Error: failed to load config: %v\n", err)
			return 1
		}
		o.applyConfig(cfg)
	}
	if !o.seedSet {
		o.seed = rand.Int64()
	}

	depthLines, err := readInput(o.depthPath, o.encoding, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to read depth map: %v\n", err)
		return 1
	}
	depthText := strings.Join(depthLines, "\n")

	rescale := o.rescale
	opts := stereogram.Options{
		Shift:   o.shift.v,
		Width:   o.width.v,
		Height:  o.height.v,
		Rescale: &rescale,
		Seed:    o.seed,
		Workers: o.workers,
	}
	if o.patternPath != "" {
		if opts.PatternLines, err = textio.ReadFile(o.patternPath, o.encoding); err != nil {
			fmt.Fprintf(stderr, "Error: failed to read pattern: %v\n", err)
			return 1
		}
	}

	res, err := stereogram.Generate(context.Background(), depthLines, opts)
	if err != nil {
		fmt.Fprintln(stderr, describe(err))
		return 1
	}
	if o.verbose {
		logger := log.New(stderr, "", 0)
		logger.Printf("shift=%d width=%d height=%d rescale=%g pattern=%s seed=%d",
			res.Shift, res.Width, res.Height, res.Rescale, res.PatternSource, res.Seed)
	}

	out := res.Stereogram.String()
	outPath := o.outPath
	if outPath == "" && o.open {
		f, err := os.CreateTemp("", "stereogram-*.txt")
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		outPath = f.Name()
		f.Close()
	}
	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(out), 0644); err != nil {
			fmt.Fprintf(stderr, "Error: failed to write output: %v\n", err)
			return 1
		}
	} else if _, err := io.WriteString(stdout, out); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if o.record {
		if err := record(cfg.DBPath, res, depthText); err != nil {
			fmt.Fprintf(stderr, "Error: failed to record render: %v\n", err)
			return 1
		}
	}
	if o.open {
		abs, _ := filepath.Abs(outPath)
		if err := platform.OpenFile(abs); err != nil {
			fmt.Fprintf(stderr, "Error: failed to open %s: %v\n", abs, err)
			return 1
		}
	}
	return 0
}

func record(dbPath string, res *stereogram.Result, depthText string) error {
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.Record(context.Background(), history.FromResult(res, depthText, history.OriginCLI))
	return err
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
