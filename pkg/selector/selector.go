// Package selector filters sitemap entries with CEL expressions such as
//
//	collection == "BILLS" && congress >= 115 && bill_type in ["hr", "s"]
package selector

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Entry describes one sitemap item as seen by an expression. Fields that do
// not apply to the item are zero.
type Entry struct {
	Kind       string // "sitemap", "package" or "bulkdata"
	URL        string
	Collection string
	Package    string
	BillType   string
	Lastmod    string
	Congress   int
	Year       int
}

func (e Entry) activation() map[string]any {
	return map[string]any{
		"kind":       e.Kind,
		"url":        e.URL,
		"collection": e.Collection,
		"pkg":        e.Package,
		"bill_type":  e.BillType,
		"lastmod":    e.Lastmod,
		"congress":   int64(e.Congress),
		"year":       int64(e.Year),
	}
}

// Selector is a compiled expression. A nil *Selector matches everything.
type Selector struct {
	expr string
	prg  cel.Program
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("kind", cel.StringType),
		cel.Variable("url", cel.StringType),
		cel.Variable("collection", cel.StringType),
		cel.Variable("pkg", cel.StringType),
		cel.Variable("bill_type", cel.StringType),
		cel.Variable("lastmod", cel.StringType),
		cel.Variable("congress", cel.IntType),
		cel.Variable("year", cel.IntType),
	)
}

// New compiles expr. An empty expression returns a nil selector.
func New(expr string) (*Selector, error) {
	if expr == "" {
		return nil, nil
	}
	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compile error: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("CEL expression must be boolean, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program error: %w", err)
	}
	return &Selector{expr: expr, prg: prg}, nil
}

func (s *Selector) String() string {
	if s == nil {
		return ""
	}
	return s.expr
}

// Match evaluates the expression against e.
func (s *Selector) Match(e Entry) (bool, error) {
	if s == nil {
		return true, nil
	}
	out, _, err := s.prg.Eval(e.activation())
	if err != nil {
		return false, fmt.Errorf("CEL eval error: %w", err)
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, fmt.Errorf("result not boolean")
	}
	return ok, nil
}
