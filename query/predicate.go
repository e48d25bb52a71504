package query

import (
	"strings"
)

// Predicate is a condition with '?' placeholders and the values bound to them, in the same order.
type Predicate struct {
	sql  string
	args []any
}

// Expr is a custom condition; every '?' of sql must have an argument.
func Expr(sql string, args ...any) Predicate {
	return Predicate{sql: sql, args: args}
}

func (p Predicate) Empty() bool { return len(p.sql) == 0 }

func (p Predicate) String() string { return p.sql }

func (p Predicate) Args() []any { return p.args }

func compare(col, op string, value any) Predicate {
	return Predicate{sql: col + " " + op + " ?", args: []any{value}}
}

func Eq(col string, value any) Predicate { return compare(col, "=", value) }
func Ne(col string, value any) Predicate { return compare(col, "<>", value) }
func Ge(col string, value any) Predicate { return compare(col, ">=", value) }
func Le(col string, value any) Predicate { return compare(col, "<=", value) }
func Gt(col string, value any) Predicate { return compare(col, ">", value) }
func Lt(col string, value any) Predicate { return compare(col, "<", value) }

func Like(col string, pattern string) Predicate    { return compare(col, "LIKE", pattern) }
func NotLike(col string, pattern string) Predicate { return compare(col, "NOT LIKE", pattern) }

func IsNull(col string) Predicate    { return Predicate{sql: col + " IS NULL"} }
func IsNotNull(col string) Predicate { return Predicate{sql: col + " IS NOT NULL"} }

func Between(col string, from, to any) Predicate {
	return Predicate{sql: col + " BETWEEN ? AND ?", args: []any{from, to}}
}

func NotBetween(col string, from, to any) Predicate {
	return Predicate{sql: col + " NOT BETWEEN ? AND ?", args: []any{from, to}}
}

// BetweenOptions is a range with optional bounds: a missing bound makes it a one-sided comparison,
// without both it is empty and adds nothing to a builder.
func BetweenOptions[V any](col string, from, to *V) Predicate {
	switch {
	case from != nil && to != nil:
		return Between(col, *from, *to)
	case from != nil:
		return Ge(col, *from)
	case to != nil:
		return Le(col, *to)
	default:
		return Predicate{}
	}
}

// In matches any of the values; never true for an empty set.
func In[V any](col string, values ...V) Predicate {
	if len(values) == 0 {
		return Predicate{sql: "1 = 0"}
	}
	return membership(col, "IN", values)
}

// NotIn matches none of the values; always true for an empty set.
func NotIn[V any](col string, values ...V) Predicate {
	if len(values) == 0 {
		return Predicate{sql: "1 = 1"}
	}
	return membership(col, "NOT IN", values)
}

func membership[V any](col, op string, values []V) Predicate {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return Predicate{sql: col + " " + op + " (" + strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ") + ")", args: args}
}

// clause accumulates predicates joined by AND or OR.
type clause struct {
	sql  strings.Builder
	args []any
}

func (c *clause) add(conj string, p Predicate) {
	if p.Empty() {
		return
	}
	if c.sql.Len() > 0 {
		c.sql.WriteString(" " + conj + " ")
	}
	c.sql.WriteString(p.sql)
	c.args = append(c.args, p.args...)
}

func (c *clause) empty() bool { return c.sql.Len() == 0 }

func (c *clause) expr() Predicate { return Predicate{sql: c.sql.String(), args: c.args} }
