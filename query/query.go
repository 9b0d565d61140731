// Package query filters flattened results with qlbridge expressions.
//
// Identifiers in an expression name joined paths, for example:
//
//	address.city == "New York" AND retries > 2
package query

import (
	"fmt"

	"github.com/araddon/qlbridge/expr"
	qlvm "github.com/araddon/qlbridge/vm"
	"github.com/ehsanranjbar/flatkv/flatten"
	"github.com/ehsanranjbar/flatkv/internal/qlutil"
	"github.com/ehsanranjbar/flatkv/node"
	"github.com/ehsanranjbar/flatkv/schema"
)

// Filter is a compiled expression.
type Filter struct {
	src  string
	expr expr.Node
}

// Compile parses q into a Filter.
func Compile(q string) (*Filter, error) {
	e, err := expr.ParseExpression(q)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query %q: %w", q, err)
	}
	return &Filter{src: q, expr: e}, nil
}

// MustCompile is like Compile but panics if an error occurs.
func MustCompile(q string) *Filter {
	f, err := Compile(q)
	if err != nil {
		panic(err)
	}
	return f
}

// String returns the source of the filter.
func (f *Filter) String() string {
	return f.src
}

// Match reports whether r satisfies the filter.
// Expressions that can not be evaluated, such as those naming missing paths, do not match.
func (f *Filter) Match(r *flatten.Result) bool {
	return f.eval(qlutil.NewContextWrapper[uint64, *flatten.Result](nil, r, resultExtractor{}, resultFlatter{}))
}

// MatchDocument is like Match but also resolves the _id identifier to id.
func (f *Filter) MatchDocument(id uint64, r *flatten.Result) bool {
	return f.eval(qlutil.NewContextWrapper[uint64, *flatten.Result](&id, r, resultExtractor{}, resultFlatter{}))
}

// MatchNode reports whether the tree rooted at n satisfies the filter, with paths joined by sep.
func (f *Filter) MatchNode(n node.Node, sep string) bool {
	return f.eval(qlutil.NewContextWrapper[uint64, node.Node](
		nil,
		n,
		schema.NewNodePathExtractor(sep),
		flatten.For[node.Node](flatten.WithSeparator(sep)),
	))
}

func (f *Filter) eval(ctx expr.EvalContext) bool {
	ok, evaluated := qlvm.MatchesExpr(ctx, f.expr)
	return evaluated && ok
}

type resultExtractor struct{}

func (resultExtractor) ExtractPath(r *flatten.Result, path string) (any, error) {
	v, ok := r.Get(path)
	if !ok {
		return nil, fmt.Errorf("path %q not found", path)
	}
	return v, nil
}

type resultFlatter struct{}

func (resultFlatter) Flatten(r *flatten.Result) (map[string]any, error) {
	return r.Map(), nil
}

var (
	_ schema.PathExtractor[*flatten.Result] = resultExtractor{}
	_ schema.Flatter[*flatten.Result]       = resultFlatter{}
)
