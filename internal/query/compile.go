package query

import (
	"fmt"
	"strings"

	"github.com/roach88/rolodex/internal/contact"
)

// Plan is a compiled find: SQL selecting the candidate rows plus the
// predicate still to run over them.
type Plan struct {
	SQL  string
	Args []any

	// Indexed is the filter term answered by SQL, if any.
	Indexed *Cond

	// Residual holds the filter terms left for in-memory evaluation.
	Residual Filter

	Search *Search
}

// Match applies the in-memory part of the plan. The indexed term is
// checked again so an empty column value never matches.
func (p Plan) Match(r contact.Record) bool {
	if p.Indexed != nil && !p.Indexed.Match(r) {
		return false
	}
	if !p.Residual.Match(r) {
		return false
	}
	if p.Search != nil {
		return p.Search.Match(r)
	}
	return true
}

// SQLCompiler compiles Options to parameterized SQL over one table.
//
// Every query ends in ORDER BY <key> COLLATE BINARY so results are stable
// between writes. Values are always bound, never interpolated.
type SQLCompiler struct {
	Table   string
	Columns []string

	// Indexes maps canonical field paths to indexed columns.
	Indexes map[string]string

	// Encoders convert a filter value into the column's stored form for
	// indexed fields whose storage differs from their filter text. A value
	// that fails to encode leaves the term for in-memory evaluation.
	Encoders map[string]func(string) (any, error)

	// OrderKey is the column used for the stable ordering.
	OrderKey string
}

// Compile validates o and builds its plan.
func (c *SQLCompiler) Compile(o Options) (Plan, error) {
	if err := o.Validate(); err != nil {
		return Plan{}, err
	}
	if c.Table == "" || len(c.Columns) == 0 {
		return Plan{}, fmt.Errorf("compile: compiler has no table")
	}

	plan := Plan{Search: o.Search}
	var where string
	residual := o.Filter

	if len(o.Filter) > 0 {
		first := o.Filter[0]
		field, _ := contact.CanonicalField(first.Field)
		if col, ok := c.Indexes[field]; ok {
			if arg, ok := c.encode(field, first.Value); ok {
				where = fmt.Sprintf(" WHERE %s = ?", col)
				plan.Args = []any{arg}
				plan.Indexed = &first
				residual = o.Filter[1:]
			}
		}
	}
	if len(residual) > 0 {
		plan.Residual = append(Filter(nil), residual...)
	}

	orderKey := c.OrderKey
	if orderKey == "" {
		orderKey = c.Columns[0]
	}
	plan.SQL = fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s COLLATE BINARY ASC",
		strings.Join(c.Columns, ", "), c.Table, where, orderKey)
	return plan, nil
}

func (c *SQLCompiler) encode(field, value string) (any, bool) {
	enc, ok := c.Encoders[field]
	if !ok {
		return value, true
	}
	v, err := enc(value)
	if err != nil {
		return nil, false
	}
	return v, true
}
