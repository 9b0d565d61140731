// Command flatkv flattens JSON, YAML and msgpack documents into path/value pairs.
//
//	flatkv [flags] FILE...
//
// With no files, or with -, the document is read from stdin. Results are written in input order.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/destel/rill"
	"github.com/ehsanranjbar/flatkv/codec"
	"github.com/ehsanranjbar/flatkv/diff"
	"github.com/ehsanranjbar/flatkv/flatten"
	"github.com/ehsanranjbar/flatkv/store/document"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "flatkv:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts := NewOptions()
	fs := pflag.NewFlagSet("flatkv", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	opts.AddFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := opts.Complete(); err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	logger := newLogger(stderr, opts.LogVerbosity).WithValues("run", uuid.NewString())
	c := &cli{
		opts:   opts,
		stdin:  stdin,
		stdout: stdout,
		logger: logger,
	}
	return c.run()
}

type cli struct {
	opts   *Options
	stdin  io.Reader
	stdout io.Writer
	logger logr.Logger
}

// doc is a flattened input.
type doc struct {
	name   string
	result *flatten.Result
}

func (c *cli) run() error {
	c.logger.V(1).Info("Starting", "inputs", len(c.opts.Inputs), "separator", c.opts.Separator)

	in := rill.FromSeq(slices.Values(c.opts.Inputs), nil)
	docs := rill.OrderedMap(in, c.opts.Concurrency, c.load)

	switch {
	case c.opts.Diff:
		return c.diff(docs)
	case c.opts.DB != "":
		return c.export(docs)
	default:
		return rill.ForEach(docs, 1, c.write)
	}
}

func (c *cli) load(name string) (doc, error) {
	format, err := c.opts.formatOf(name)
	if err != nil {
		return doc{}, err
	}
	dec, err := codec.DecoderFor(format)
	if err != nil {
		return doc{}, err
	}

	var bz []byte
	if name == stdinName {
		bz, err = io.ReadAll(c.stdin)
	} else {
		bz, err = os.ReadFile(name)
	}
	if err != nil {
		return doc{}, fmt.Errorf("failed to read %s: %w", name, err)
	}

	n, err := dec.Decode(bz)
	if err != nil {
		return doc{}, fmt.Errorf("%s: %w", name, err)
	}
	r, err := flatten.FlattenNode(n, append(c.opts.flattenOptions(), flatten.WithLogger(c.logger.WithValues("input", name)))...)
	if err != nil {
		return doc{}, fmt.Errorf("%s: %w", name, err)
	}

	c.logger.V(1).Info("Flattened", "input", name, "format", format, "leaves", r.Len())
	return doc{name: name, result: r}, nil
}

func (c *cli) keep(d doc) bool {
	if c.opts.filter == nil || c.opts.filter.Match(d.result) {
		return true
	}
	c.logger.V(1).Info("Filtered out", "input", d.name)
	return false
}

func (c *cli) write(d doc) error {
	if !c.keep(d) {
		return nil
	}

	switch c.opts.Output {
	case outputJSON:
		bz, err := d.result.MarshalJSON()
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		_, err = fmt.Fprintf(c.stdout, "%s\n", bz)
		return err
	case outputMsgpack:
		bz, err := codec.ResultCodec{}.Encode(d.result)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		_, err = c.stdout.Write(bz)
		return err
	default:
		if len(c.opts.Inputs) > 1 {
			if _, err := fmt.Fprintf(c.stdout, "# %s\n", d.name); err != nil {
				return err
			}
		}
		for k, v := range d.result.All() {
			if _, err := fmt.Fprintf(c.stdout, "%s=%s\n", k, formatLeaf(v)); err != nil {
				return err
			}
		}
		return nil
	}
}

func (c *cli) diff(docs <-chan rill.Try[doc]) error {
	var pair []doc
	err := rill.ForEach(docs, 1, func(d doc) error {
		pair = append(pair, d)
		return nil
	})
	if err != nil {
		return err
	}

	changes := diff.Diff(pair[0].result, pair[1].result)
	c.logger.V(1).Info("Compared", "a", pair[0].name, "b", pair[1].name, "changes", len(changes))
	for _, ch := range changes {
		if _, err := fmt.Fprintln(c.stdout, ch); err != nil {
			return err
		}
	}
	return nil
}

func (c *cli) export(docs <-chan rill.Try[doc]) (err error) {
	db, err := badger.Open(badger.DefaultOptions(c.opts.DB).WithLogger(badgerLogger{logger: c.logger.WithName("badger")}))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", c.opts.DB, err)
	}
	defer func() {
		err = errors.Join(err, db.Close())
	}()

	store, err := document.Open(db, document.WithLogger(c.logger.WithName("store")))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	return rill.ForEach(docs, 1, func(d doc) error {
		if !c.keep(d) {
			return nil
		}
		id, err := store.Put(d.result)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		_, err = fmt.Fprintf(c.stdout, "%s\t%d\n", d.name, id)
		return err
	})
}

// formatLeaf renders a leaf as JSON, falling back to its default format.
func formatLeaf(v any) string {
	bz, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSpace(string(bz))
}
