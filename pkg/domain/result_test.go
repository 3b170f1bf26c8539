package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestResultMergeAndBlocking(t *testing.T) {
	var result Result
	result.Merge(Result{Violations: []Violation{{Rule: "warn", Severity: SeverityWarn}}})
	if result.HasBlocking() {
		t.Fatalf("expected no blocking violations")
	}
	result.Merge(Result{Violations: []Violation{{Rule: "block", Severity: SeverityBlock, Message: "index drift"}}})
	if !result.HasBlocking() {
		t.Fatalf("expected blocking violation")
	}
	err := RuleViolationError{Result: result}
	if !strings.Contains(err.Error(), "index drift") {
		t.Fatalf("expected blocking message in error, got %q", err.Error())
	}
}

func TestResultMergeEmptyInput(t *testing.T) {
	original := Result{Violations: []Violation{{Rule: "existing", Severity: SeverityWarn}}}
	original.Merge(Result{})
	if len(original.Violations) != 1 || original.Violations[0].Rule != "existing" {
		t.Fatalf("expected original violations to remain, got %+v", original.Violations)
	}
}

func TestRuleViolationErrorWithoutBlocking(t *testing.T) {
	err := RuleViolationError{Result: Result{Violations: []Violation{{Severity: SeverityLog}}}}
	if err.Error() != "transaction blocked by rules" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestRulesEngineEvaluate(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{name: "warn"})
	res, err := engine.Evaluate(context.Background(), emptyView{}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("expected violation")
	}
	if got := engine.Rules(); len(got) != 1 || got[0].Name() != "warn" {
		t.Fatalf("unexpected registered rules %+v", got)
	}
}

func TestRulesEngineEvaluateError(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{name: "ok"})
	engine.Register(staticRule{name: "broken", err: fmt.Errorf("boom")})
	res, err := engine.Evaluate(context.Background(), emptyView{}, nil)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected rule error, got %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("expected empty result on error, got %+v", res)
	}
}

func TestNotFoundErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("lookup: %w", VeggieNotFound(42))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound match for %v", err)
	}
	var nf NotFoundError
	if !errors.As(err, &nf) || nf.Entity != EntityVeggie || nf.ID != "42" {
		t.Fatalf("unexpected not found payload %+v", nf)
	}
	if SeedNotFound(7).Error() != "seed 7 not found" {
		t.Fatalf("unexpected seed message %q", SeedNotFound(7).Error())
	}
	if errors.Is(TokenNotFound(1), ErrPermissionDenied) {
		t.Fatalf("not found must not match permission denied")
	}
}

type staticRule struct {
	name string
	err  error
}

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	if r.err != nil {
		return Result{}, r.err
	}
	return Result{Violations: []Violation{{Rule: r.name, Severity: SeverityWarn}}}, nil
}

type emptyView struct{}

func (emptyView) ListVeggies() []Veggie                            { return nil }
func (emptyView) FindVeggie(TokenID) (Veggie, bool)                { return Veggie{}, false }
func (emptyView) ListSeeds() []Seed                                { return nil }
func (emptyView) TokenOwner(TokenID) (AccountID, bool)             { return "", false }
func (emptyView) CandidateSeedIDs(Kind, Category) ([]SeedID, bool) { return nil, false }
