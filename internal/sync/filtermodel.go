package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/gridsync/gridsync/internal/remote"
	"github.com/gridsync/gridsync/internal/rowmodel"
)

// ColumnFilter is one column's filter state from the grid: either a
// single condition (Type/Filter/FilterTo) or a compound of conditions
// joined by Operator.
type ColumnFilter struct {
	Type       string // operator: equals, notEqual, contains, inRange, ...
	Filter     any
	FilterTo   any    // inRange upper bound
	Operator   string // "AND" or "OR" for compound filters
	Conditions []ColumnFilter
}

// FilterModel maps column ids to their filter state.
type FilterModel map[string]ColumnFilter

// Condition translates the model into one remote predicate: a
// type-appropriate condition per resolvable column, all combined with
// AND. Failures are isolated per column; a failed column contributes
// no predicate. Returns nil when nothing is filtered.
func (m FilterModel) Condition(header rowmodel.Header, enc remote.TemporalEncoder) *remote.Condition {
	var combined *remote.Condition
	// Header order keeps the resulting predicate deterministic.
	for _, col := range header {
		f, ok := m[col.Name]
		if !ok {
			continue
		}
		cond, err := columnCondition(col, f, enc)
		if err != nil {
			glog.Warningf("sync: filter: column %q: %v", col.Name, err)
			continue
		}
		combined = combined.And(cond)
	}
	for name := range m {
		if _, ok := header.IndexOf(name); !ok {
			glog.Warningf("sync: filter: skipping unknown column %q", name)
		}
	}
	return combined
}

// columnCondition builds the predicate for one column. Compound
// filters fold left-to-right with the declared combinator; a single
// leftover condition stays unwrapped; zero valid conditions leave the
// column unfiltered.
func columnCondition(col rowmodel.Column, f ColumnFilter, enc remote.TemporalEncoder) (*remote.Condition, error) {
	if len(f.Conditions) == 0 {
		return leafCondition(col, f, enc)
	}

	or := strings.EqualFold(f.Operator, "OR")
	var acc *remote.Condition
	for _, sub := range f.Conditions {
		c, err := leafCondition(col, sub, enc)
		if err != nil {
			glog.Warningf("sync: filter: column %q condition %q: %v", col.Name, sub.Type, err)
			continue
		}
		if or {
			acc = acc.Or(c)
		} else {
			acc = acc.And(c)
		}
	}
	return acc, nil
}

func leafCondition(col rowmodel.Column, f ColumnFilter, enc remote.TemporalEncoder) (*remote.Condition, error) {
	ref := remote.Column(col.Name)

	// Blank checks apply uniformly across filter categories.
	switch f.Type {
	case "blank":
		return ref.IsNull(), nil
	case "notBlank":
		return ref.NotNull(), nil
	}

	switch rowmodel.CategoryOf(col.Type) {
	case rowmodel.CategoryText:
		s := fmt.Sprintf("%v", f.Filter)
		switch f.Type {
		case "equals":
			return ref.Eq(s), nil
		case "notEqual":
			return ref.Neq(s), nil
		case "contains":
			return ref.Contains(s), nil
		case "notContains":
			return ref.NotContains(s), nil
		case "startsWith":
			return ref.StartsWith(s), nil
		case "endsWith":
			return ref.EndsWith(s), nil
		}

	case rowmodel.CategoryNumeric:
		return orderedCondition(ref, f.Type, f.Filter, f.FilterTo)

	case rowmodel.CategoryTemporal:
		lo, err := temporalValue(f.Filter, enc)
		if err != nil {
			return nil, err
		}
		var hi any
		if f.Type == "inRange" {
			if hi, err = temporalValue(f.FilterTo, enc); err != nil {
				return nil, err
			}
		}
		return orderedCondition(ref, f.Type, lo, hi)

	default:
		switch f.Type {
		case "equals":
			return ref.Eq(f.Filter), nil
		case "notEqual":
			return ref.Neq(f.Filter), nil
		}
	}
	return nil, fmt.Errorf("unsupported operator %q for type %q", f.Type, col.Type)
}

func orderedCondition(ref remote.ColumnRef, op string, v, to any) (*remote.Condition, error) {
	switch op {
	case "equals":
		return ref.Eq(v), nil
	case "notEqual":
		return ref.Neq(v), nil
	case "greaterThan":
		return ref.Gt(v), nil
	case "greaterThanOrEqual":
		return ref.Gte(v), nil
	case "lessThan":
		return ref.Lt(v), nil
	case "lessThanOrEqual":
		return ref.Lte(v), nil
	case "inRange":
		// Inclusive on both ends.
		return ref.InRange(v, to), nil
	}
	return nil, fmt.Errorf("unsupported operator %q", op)
}

// temporalValue turns a UI date value into the remote temporal wrapper
// for the connected server edition.
func temporalValue(v any, enc remote.TemporalEncoder) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return enc(t), nil
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, t); err == nil {
				return enc(ts), nil
			}
		}
		return nil, fmt.Errorf("unparseable date value %q", t)
	default:
		return nil, fmt.Errorf("unsupported date value %T", v)
	}
}
