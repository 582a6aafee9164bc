// Package store keeps a history of evaluations made through the API
// surfaces. Nothing in it is ever fed back into an evaluation.
package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EvaluationState represents the outcome of a stored evaluation.
type EvaluationState string

const (
	EvaluationSucceeded EvaluationState = "SUCCEEDED"
	EvaluationFailed    EvaluationState = "FAILED"
)

// NamePrefix prefixes every evaluation resource name.
const NamePrefix = "evaluations/"

// ErrNotFound is returned when an evaluation does not exist.
var ErrNotFound = errors.New("evaluation not found")

// Evaluation is one recorded request: the input, its postfix form and either
// the rendered results or the error.
type Evaluation struct {
	Name       string          `json:"name"`
	Expression string          `json:"expression"`
	ResultType string          `json:"resultType,omitempty"`
	State      EvaluationState `json:"state"`
	Results    []string        `json:"results,omitempty"`
	Postfix    []string        `json:"postfix,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreateTime time.Time       `json:"createTime"`
}

// NewEvaluation returns an evaluation with a fresh name and creation time.
func NewEvaluation(expression, resultType string) *Evaluation {
	return &Evaluation{
		Name:       NamePrefix + uuid.NewString(),
		Expression: expression,
		ResultType: resultType,
		CreateTime: time.Now().UTC(),
	}
}

// ID returns the name without its "evaluations/" prefix.
func (e *Evaluation) ID() string {
	return strings.TrimPrefix(e.Name, NamePrefix)
}

// History is the storage contract used by the API servers.
type History interface {
	Save(ev *Evaluation) error
	Get(name string) (*Evaluation, error)
	List(limit int) ([]*Evaluation, error)
	Delete(name string) error
	Close() error
}

// Store is a thread-safe in-memory History.
type Store struct {
	mu          sync.RWMutex
	evaluations map[string]*Evaluation
	order       []string // names in insertion order
}

// New creates a new empty store.
func New() *Store {
	return &Store{
		evaluations: make(map[string]*Evaluation),
	}
}

// Save records an evaluation, replacing any previous one with the same name.
func (s *Store) Save(ev *Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.evaluations[ev.Name]; !exists {
		s.order = append(s.order, ev.Name)
	}
	s.evaluations[ev.Name] = ev
	return nil
}

// Get retrieves an evaluation by its full name.
func (s *Store) Get(name string) (*Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.evaluations[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrNotFound, name)
	}
	return ev, nil
}

// List returns up to limit evaluations, newest first. limit <= 0 returns all.
func (s *Store) List(limit int) ([]*Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Evaluation, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		result = append(result, s.evaluations[s.order[i]])
	}
	return result, nil
}

// Delete removes an evaluation.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.evaluations[name]; !ok {
		return fmt.Errorf("%w: '%s'", ErrNotFound, name)
	}
	delete(s.evaluations, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
