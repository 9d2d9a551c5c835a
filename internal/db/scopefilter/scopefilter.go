// Package scopefilter compiles the declarative filter trees produced by
// the visibility policy into gorm query conditions. It is the only place
// where the policy meets the storage engine's query language.
package scopefilter

import (
	"strings"

	"gorm.io/gorm"

	"github.com/shiftdesk/shiftdesk/internal/authz"
)

// Apply narrows tx to the rows matched by the filter tree.
func Apply(tx *gorm.DB, e authz.Expr) *gorm.DB {
	sql, args := Compile(e)
	if sql == "" {
		return tx
	}

	return tx.Where(sql, args...)
}

// Compile renders the filter tree as a SQL condition with placeholders.
// An unrestricted scope compiles to the empty string; an empty scope
// compiles to a condition that matches no row.
func Compile(e authz.Expr) (string, []any) {
	switch n := e.(type) {
	case authz.Cond:
		return compileCond(n)
	case authz.And:
		if len(n) == 0 {
			return "", nil
		}

		return compileList([]authz.Expr(n), " AND ")
	case authz.Or:
		if len(n) == 0 {
			return "1 = 0", nil
		}

		return compileList([]authz.Expr(n), " OR ")
	default:
		// fail closed on unknown nodes
		return "1 = 0", nil
	}
}

func compileCond(c authz.Cond) (string, []any) {
	switch c.Op {
	case authz.OpEq:
		return c.Field + " = ?", []any{c.Value}
	case authz.OpIsNull:
		return c.Field + " IS NULL", nil
	default:
		return "1 = 0", nil
	}
}

func compileList(exprs []authz.Expr, sep string) (string, []any) {
	var (
		parts []string
		args  []any
	)

	for _, sub := range exprs {
		sql, subArgs := Compile(sub)
		if sql == "" {
			continue // unrestricted subtree contributes nothing to a conjunction
		}

		parts = append(parts, "("+sql+")")
		args = append(args, subArgs...)
	}

	if len(parts) == 0 {
		return "", nil
	}

	return strings.Join(parts, sep), args
}
