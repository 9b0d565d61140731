package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ehsanranjbar/flatkv/codec"
	"github.com/ehsanranjbar/flatkv/flatten"
	"github.com/ehsanranjbar/flatkv/query"
	"github.com/spf13/pflag"
)

const (
	formatAuto = "auto"
	stdinName  = "-"

	outputLines   = "lines"
	outputJSON    = "json"
	outputMsgpack = "msgpack"
)

var outputs = []string{outputLines, outputJSON, outputMsgpack}

// Options contains the command-line configuration of flatkv.
type Options struct {
	Separator    string // Separator placed between path segments.
	Format       string // Input format, or auto to pick by file extension.
	Output       string // Output format.
	MaxDepth     int    // Maximum container nesting, 0 for unlimited.
	Filter       string // qlbridge expression results must match to be written.
	Diff         bool   // Print the changes between exactly two inputs.
	DB           string // Badger directory the results are exported to.
	Concurrency  int    // Number of inputs processed at once.
	LogVerbosity int    // Number for the log level verbosity.

	Inputs []string // Files to read, - for stdin.

	// internal
	fs     *pflag.FlagSet
	format codec.Format
	filter *query.Filter
}

// NewOptions returns a new Options struct initialized with default values.
func NewOptions() *Options {
	return &Options{
		Separator:   flatten.DefaultSeparator,
		Format:      formatAuto,
		Output:      outputLines,
		Concurrency: 4,
	}
}

// AddFlags binds the Options fields to command-line flags on the given FlagSet.
func (opts *Options) AddFlags(fs *pflag.FlagSet) {
	if fs == nil {
		fs = pflag.CommandLine
	}
	opts.fs = fs

	fs.StringVarP(&opts.Separator, "separator", "s", opts.Separator,
		"Separator placed between path segments.")
	fs.StringVar(&opts.Format, "format", opts.Format,
		"Input format: auto, json, yaml or msgpack. auto picks by file extension and reads stdin as json.")
	fs.StringVarP(&opts.Output, "output", "o", opts.Output,
		"Output format: lines, json or msgpack.")
	fs.IntVar(&opts.MaxDepth, "max-depth", opts.MaxDepth,
		"Maximum container nesting. 0 means unlimited.")
	fs.StringVar(&opts.Filter, "filter", opts.Filter,
		`Only write results matching this expression, e.g. 'address.city == "New York"'.`)
	fs.BoolVar(&opts.Diff, "diff", opts.Diff,
		"Print the changes between exactly two inputs.")
	fs.StringVar(&opts.DB, "db", opts.DB,
		"Export results to the badger database in this directory and print their ids.")
	fs.IntVar(&opts.Concurrency, "concurrency", opts.Concurrency,
		"Number of inputs read and flattened at once.")
	fs.IntVarP(&opts.LogVerbosity, "v", "v", opts.LogVerbosity,
		"Number for the log level verbosity.")
}

// Complete performs post-processing of parsed command-line arguments.
func (opts *Options) Complete() error {
	if opts.fs != nil {
		opts.Inputs = opts.fs.Args()
	}
	if len(opts.Inputs) == 0 {
		opts.Inputs = []string{stdinName}
	}

	if opts.Format != formatAuto {
		f, err := codec.ParseFormat(opts.Format)
		if err != nil {
			return err
		}
		opts.format = f
	}

	if opts.Filter != "" {
		f, err := query.Compile(opts.Filter)
		if err != nil {
			return err
		}
		opts.filter = f
	}
	return nil
}

// Validate checks that the options are consistent.
func (opts *Options) Validate() error {
	var errs []error
	if opts.Separator == "" {
		errs = append(errs, flatten.ErrEmptySeparator)
	}
	if !slices.Contains(outputs, opts.Output) {
		errs = append(errs, fmt.Errorf("unknown output %q, want one of %v", opts.Output, outputs))
	}
	if opts.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("negative max depth %d", opts.MaxDepth))
	}
	if opts.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", opts.Concurrency))
	}
	if opts.Diff {
		if len(opts.Inputs) != 2 {
			errs = append(errs, fmt.Errorf("diff needs exactly two inputs, got %d", len(opts.Inputs)))
		}
		if opts.DB != "" {
			errs = append(errs, errors.New("diff and db are mutually exclusive"))
		}
	}
	if n := countStdin(opts.Inputs); n > 1 {
		errs = append(errs, fmt.Errorf("stdin given %d times", n))
	}
	return errors.Join(errs...)
}

// flattenOptions returns the flatten options the inputs are flattened with.
func (opts *Options) flattenOptions() []flatten.Option {
	return []flatten.Option{
		flatten.WithSeparator(opts.Separator),
		flatten.WithMaxDepth(opts.MaxDepth),
	}
}

// formatOf returns the format name is decoded with.
func (opts *Options) formatOf(name string) (codec.Format, error) {
	if opts.format != "" {
		return opts.format, nil
	}
	if name == stdinName {
		return codec.FormatJSON, nil
	}
	return codec.FormatFromPath(name)
}

func countStdin(inputs []string) int {
	n := 0
	for _, in := range inputs {
		if in == stdinName {
			n++
		}
	}
	return n
}
