// Package batch evaluates YAML documents holding many named expressions.
//
// A document looks like:
//
//	resultType: f64
//	expressions:
//	  - name: area
//	    expr: "(2 * 2 + 4822) / 4"
//	    as: f32
//
// Entries are independent: a failing entry is reported in its Outcome and
// does not stop the others.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/lemonberrylabs/exprcalc/pkg/expr"
	"github.com/lemonberrylabs/exprcalc/pkg/types"
)

// Document is a parsed batch file.
type Document struct {
	ResultType  string  `yaml:"resultType,omitempty"`
	LiteralType string  `yaml:"literalType,omitempty"`
	Expressions []Entry `yaml:"expressions"`
}

// Entry is one named expression. As overrides the document's ResultType.
type Entry struct {
	Name string `yaml:"name,omitempty"`
	Expr string `yaml:"expr"`
	As   string `yaml:"as,omitempty"`

	Line int `yaml:"-"` // source line, for error messages
}

// Outcome is the result of one entry.
type Outcome struct {
	Name    string   `yaml:"name,omitempty"`
	Expr    string   `yaml:"expr"`
	Results []string `yaml:"results,omitempty"`
	Postfix []string `yaml:"postfix,omitempty"`
	Error   string   `yaml:"error,omitempty"`
	Tags    []string `yaml:"tags,omitempty"`
}

// Report collects the outcomes of a document in entry order.
type Report struct {
	Outcomes []Outcome `yaml:"outcomes"`
	Failed   int       `yaml:"failed"`
}

// ParseError is a structural problem in a batch document.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Parse decodes and validates a batch document. Type names are checked here
// so that a typo fails the whole document before anything runs.
func Parse(source []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(source, &root); err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &ParseError{Message: "empty document"}
	}
	body := root.Content[0]
	if body.Kind != yaml.MappingNode {
		return nil, &ParseError{Line: body.Line, Message: "document must be a mapping"}
	}

	var doc Document
	if err := body.Decode(&doc); err != nil {
		return nil, &ParseError{Line: body.Line, Message: err.Error()}
	}

	var items []*yaml.Node
	for i := 0; i+1 < len(body.Content); i += 2 {
		if body.Content[i].Value == "expressions" {
			items = body.Content[i+1].Content
		}
	}
	if len(doc.Expressions) == 0 {
		return nil, &ParseError{Line: body.Line, Message: "no expressions"}
	}

	if err := checkType(doc.ResultType, body.Line); err != nil {
		return nil, err
	}
	if err := checkType(doc.LiteralType, body.Line); err != nil {
		return nil, err
	}
	for i := range doc.Expressions {
		e := &doc.Expressions[i]
		if i < len(items) {
			e.Line = items[i].Line
		}
		if e.Expr == "" {
			return nil, &ParseError{Line: e.Line, Message: fmt.Sprintf("entry %d has no expr", i+1)}
		}
		if err := checkType(e.As, e.Line); err != nil {
			return nil, err
		}
	}
	return &doc, nil
}

func checkType(name string, line int) error {
	if name == "" {
		return nil
	}
	if _, err := types.ParseKind(name); err != nil {
		return &ParseError{Line: line, Message: err.Error()}
	}
	return nil
}

// Run evaluates every entry of doc using at most workers goroutines
// (GOMAXPROCS when workers <= 0). opts apply to every entry before the
// document's own type settings.
func Run(ctx context.Context, doc *Document, workers int, opts ...expr.Option) (*Report, error) {
	base := append([]expr.Option(nil), opts...)
	if doc.LiteralType != "" {
		k, err := types.ParseKind(doc.LiteralType)
		if err != nil {
			return nil, err
		}
		base = append(base, expr.WithLiteralKind(k))
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	sem := make(chan struct{}, workers)

	outcomes := make([]Outcome, len(doc.Expressions))
	var wg sync.WaitGroup
	for i, entry := range doc.Expressions {
		wg.Add(1)
		go func(idx int, e Entry) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			outcomes[idx] = runEntry(ctx, e, doc.ResultType, base)
		}(i, entry)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Error != "" {
			report.Failed++
		}
	}
	return report, nil
}

func runEntry(ctx context.Context, e Entry, resultType string, base []expr.Option) Outcome {
	out := Outcome{Name: e.Name, Expr: e.Expr}
	fail := func(err error) Outcome {
		out.Error = err.Error()
		var ce *types.CalcError
		if errors.As(err, &ce) {
			out.Tags = ce.Tags
		}
		return out
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	opts := base[:len(base):len(base)]
	if e.As != "" {
		resultType = e.As
	}
	if resultType != "" {
		k, err := types.ParseKind(resultType)
		if err != nil {
			return fail(err)
		}
		opts = append(opts, expr.WithResultKind(k))
	}

	p, err := expr.ParseProgram(e.Expr, opts...)
	if err != nil {
		return fail(err)
	}
	results, err := expr.EvaluateProgram(p, opts...)
	if err != nil {
		return fail(err)
	}
	for i, r := range results {
		out.Results = append(out.Results, r.String())
		out.Postfix = append(out.Postfix, p.Expressions[i].String())
	}
	return out
}

// Write encodes report as YAML.
func Write(w io.Writer, report *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}
