package sync

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/gridsync/gridsync/internal/remote"
	"github.com/gridsync/gridsync/internal/rowmodel"
)

var filterHeader = rowmodel.Header{
	{Name: "Symbol", Type: "string"},
	{Name: "Qty", Type: "long"},
	{Name: "ExecTime", Type: "instant"},
	{Name: "Live", Type: "bool"},
}

func TestFilterNumericInRange(t *testing.T) {
	m := FilterModel{
		"Qty": {Type: "inRange", Filter: 10, FilterTo: 20},
	}
	cond := m.Condition(filterHeader, nil)

	// col >= 10 AND col <= 20, inclusive on both ends.
	assert.Equal(t, remote.OpAnd, cond.Op)
	assert.Equal(t, 2, len(cond.Children))
	assert.Equal(t, remote.OpGte, cond.Children[0].Op)
	assert.Equal(t, 10, cond.Children[0].Value)
	assert.Equal(t, remote.OpLte, cond.Children[1].Op)
	assert.Equal(t, 20, cond.Children[1].Value)
}

func TestFilterIsolationUnknownColumn(t *testing.T) {
	m := FilterModel{
		"Symbol": {Type: "contains", Filter: "UST"},
		"Bogus":  {Type: "equals", Filter: "x"},
	}
	cond := m.Condition(filterHeader, nil)

	// One resolvable and one unresolvable column yields a
	// single-column predicate, not zero and not a failure.
	assert.Equal(t, remote.OpContains, cond.Op)
	assert.Equal(t, "Symbol", cond.Column)
	assert.Equal(t, "UST", cond.Value)
}

func TestFilterUnsupportedOperatorIsolated(t *testing.T) {
	m := FilterModel{
		"Live": {Type: "contains", Filter: "tru"},
	}
	// Booleans have no type-specific filter: contains is unsupported,
	// the column contributes no predicate.
	if cond := m.Condition(filterHeader, nil); cond != nil {
		t.Fatalf("expected no condition, got %s", cond)
	}
}

func TestFilterColumnsCombinedWithAnd(t *testing.T) {
	m := FilterModel{
		"Symbol": {Type: "startsWith", Filter: "UST"},
		"Qty":    {Type: "greaterThan", Filter: 5},
	}
	cond := m.Condition(filterHeader, nil)

	assert.Equal(t, remote.OpAnd, cond.Op)
	assert.Equal(t, 2, len(cond.Children))
	// Header order: Symbol before Qty.
	assert.Equal(t, "Symbol", cond.Children[0].Column)
	assert.Equal(t, remote.OpGt, cond.Children[1].Op)
}

func TestFilterCompoundConditions(t *testing.T) {
	m := FilterModel{
		"Symbol": {
			Operator: "OR",
			Conditions: []ColumnFilter{
				{Type: "equals", Filter: "UST 2Y"},
				{Type: "equals", Filter: "UST 5Y"},
			},
		},
	}
	cond := m.Condition(filterHeader, nil)

	assert.Equal(t, remote.OpOr, cond.Op)
	assert.Equal(t, 2, len(cond.Children))
	assert.Equal(t, "UST 2Y", cond.Children[0].Value)
	assert.Equal(t, "UST 5Y", cond.Children[1].Value)
}

func TestFilterCompoundSingleValidConditionUnwrapped(t *testing.T) {
	m := FilterModel{
		"Symbol": {
			Operator: "AND",
			Conditions: []ColumnFilter{
				{Type: "endsWith", Filter: "10Y"},
				{Type: "nonsense", Filter: "x"},
			},
		},
	}
	cond := m.Condition(filterHeader, nil)

	// The invalid condition drops out; the single leftover stays
	// unwrapped.
	assert.Equal(t, remote.OpEndsWith, cond.Op)
	assert.Equal(t, "Symbol", cond.Column)
}

func TestFilterBlankOperators(t *testing.T) {
	m := FilterModel{
		"Qty": {Type: "blank"},
	}
	cond := m.Condition(filterHeader, nil)
	assert.Equal(t, remote.OpIsNull, cond.Op)

	m = FilterModel{
		"Symbol": {Type: "notBlank"},
	}
	cond = m.Condition(filterHeader, nil)
	assert.Equal(t, remote.OpNotNull, cond.Op)
}

func TestFilterTemporalEncoding(t *testing.T) {
	ts := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	m := FilterModel{
		"ExecTime": {Type: "greaterThanOrEqual", Filter: ts},
	}

	cond := m.Condition(filterHeader, remote.EncoderFor(remote.EditionCommunity))
	assert.Equal(t, ts.UnixNano(), cond.Value)

	cond = m.Condition(filterHeader, remote.EncoderFor(remote.EditionEnterprise))
	assert.Equal(t, ts.Format(time.RFC3339Nano), cond.Value)
}

func TestFilterTemporalStringValue(t *testing.T) {
	m := FilterModel{
		"ExecTime": {Type: "lessThan", Filter: "2026-08-28"},
	}
	cond := m.Condition(filterHeader, remote.EncoderFor(remote.EditionCommunity))

	want := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC).UnixNano()
	assert.Equal(t, remote.OpLt, cond.Op)
	assert.Equal(t, want, cond.Value)
}

func TestFilterEmptyModel(t *testing.T) {
	if cond := (FilterModel{}).Condition(filterHeader, nil); cond != nil {
		t.Fatalf("expected no condition, got %s", cond)
	}
}
