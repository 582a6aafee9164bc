package calc

import (
	"context"
	"errors"
	"testing"

	"github.com/lemonberrylabs/exprcalc/pkg/expr"
	"github.com/lemonberrylabs/exprcalc/pkg/store"
	"github.com/lemonberrylabs/exprcalc/pkg/types"
)

func TestEvaluateRecordsSuccess(t *testing.T) {
	svc := New(store.New())
	ev, err := svc.Evaluate(context.Background(), "(2 * 2 + 4822) / 4; 6 & 3", "")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if ev.State != store.EvaluationSucceeded {
		t.Errorf("state = %s", ev.State)
	}
	want := []string{"1206.50: f64", "2.00: f64"}
	if len(ev.Results) != len(want) {
		t.Fatalf("results = %v, want %v", ev.Results, want)
	}
	for i := range want {
		if ev.Results[i] != want[i] {
			t.Errorf("results[%d] = %q, want %q", i, ev.Results[i], want[i])
		}
	}
	if ev.Postfix[0] != "2 2 * 4822 + 4 /" {
		t.Errorf("postfix = %q", ev.Postfix[0])
	}

	got, err := svc.Get(ev.ID())
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Name != ev.Name {
		t.Errorf("got %s, want %s", got.Name, ev.Name)
	}
}

func TestEvaluateRecordsFailure(t *testing.T) {
	svc := New(store.New())
	ev, err := svc.Evaluate(context.Background(), "1 $ 2", "")
	if !types.HasTag(err, types.TagBadTokenError) {
		t.Fatalf("expected BadTokenError, got %v", err)
	}
	if ev == nil || ev.State != store.EvaluationFailed || ev.Error == "" {
		t.Fatalf("failed evaluation not recorded: %+v", ev)
	}
	if _, err := svc.Get(ev.Name); err != nil {
		t.Errorf("get: %v", err)
	}
}

func TestEvaluateResultType(t *testing.T) {
	svc := New(store.New())

	ev, err := svc.Evaluate(context.Background(), "7 / 2", "i32")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if ev.Results[0] != "3: i32" {
		t.Errorf("got %q, want %q", ev.Results[0], "3: i32")
	}

	_, err = svc.Evaluate(context.Background(), "1", "f6")
	if !types.HasTag(err, types.TagParsingError) {
		t.Errorf("expected ParsingError for unknown type, got %v", err)
	}
}

func TestServiceOptions(t *testing.T) {
	svc := New(store.New(), expr.WithLiteralKind(types.KindI64))
	ev, err := svc.Evaluate(context.Background(), "1 / 0", "")
	if !types.HasTag(err, types.TagZeroDivisionError) {
		t.Fatalf("expected ZeroDivisionError, got %v", err)
	}
	if ev.State != store.EvaluationFailed {
		t.Errorf("state = %s", ev.State)
	}
}

func TestEvaluateCanceled(t *testing.T) {
	svc := New(store.New())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Evaluate(ctx, "1 + 1", "")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestListAndDelete(t *testing.T) {
	svc := New(store.New())
	a, _ := svc.Evaluate(context.Background(), "1", "")
	b, _ := svc.Evaluate(context.Background(), "2", "")

	list, err := svc.List(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Name != b.Name {
		t.Errorf("list = %v", list)
	}

	if err := svc.Delete(a.ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(a.Name); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestName(t *testing.T) {
	if got := Name("abc"); got != "evaluations/abc" {
		t.Errorf("Name(abc) = %q", got)
	}
	if got := Name("evaluations/abc"); got != "evaluations/abc" {
		t.Errorf("Name(evaluations/abc) = %q", got)
	}
}
