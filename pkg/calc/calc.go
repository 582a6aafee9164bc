// Package calc evaluates requests from the API front ends and records each
// one in a history store.
package calc

import (
	"context"
	"fmt"
	"strings"

	"github.com/lemonberrylabs/exprcalc/pkg/expr"
	"github.com/lemonberrylabs/exprcalc/pkg/store"
	"github.com/lemonberrylabs/exprcalc/pkg/types"
)

// Service evaluates expressions and keeps their history.
type Service struct {
	history store.History
	opts    []expr.Option
}

// New creates a service over the given history. opts apply to every
// evaluation.
func New(h store.History, opts ...expr.Option) *Service {
	return &Service{history: h, opts: opts}
}

// Evaluate parses and evaluates input, converting results to resultType when
// it is not empty. The evaluation is recorded whether or not it succeeded,
// so the returned Evaluation is non-nil unless recording itself failed.
func (s *Service) Evaluate(ctx context.Context, input, resultType string) (*store.Evaluation, error) {
	ev := store.NewEvaluation(input, resultType)
	evalErr := s.run(ctx, ev)
	if evalErr != nil {
		ev.State = store.EvaluationFailed
		ev.Error = evalErr.Error()
	} else {
		ev.State = store.EvaluationSucceeded
	}

	if err := s.history.Save(ev); err != nil {
		return nil, fmt.Errorf("record evaluation: %w", err)
	}
	return ev, evalErr
}

func (s *Service) run(ctx context.Context, ev *store.Evaluation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	opts := s.opts
	if ev.ResultType != "" {
		kind, err := types.ParseKind(ev.ResultType)
		if err != nil {
			return err
		}
		opts = append(opts[:len(opts):len(opts)], expr.WithResultKind(kind))
	}

	p, err := expr.ParseProgram(ev.Expression, opts...)
	if err != nil {
		return err
	}
	ev.Postfix = make([]string, len(p.Expressions))
	for i, e := range p.Expressions {
		ev.Postfix[i] = e.String()
	}

	results, err := expr.EvaluateProgram(p, opts...)
	if err != nil {
		return err
	}
	ev.Results = make([]string, len(results))
	for i, r := range results {
		ev.Results[i] = r.String()
	}
	return nil
}

// Get returns a recorded evaluation by name or bare ID.
func (s *Service) Get(id string) (*store.Evaluation, error) {
	return s.history.Get(Name(id))
}

// List returns up to limit recorded evaluations, newest first.
func (s *Service) List(limit int) ([]*store.Evaluation, error) {
	return s.history.List(limit)
}

// Delete removes a recorded evaluation by name or bare ID.
func (s *Service) Delete(id string) error {
	return s.history.Delete(Name(id))
}

// Name returns the full resource name for id, which may already be one.
func Name(id string) string {
	if strings.HasPrefix(id, store.NamePrefix) {
		return id
	}
	return store.NamePrefix + id
}
