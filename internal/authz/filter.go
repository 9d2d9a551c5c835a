package authz

// The visibility policy hands the storage layer a declarative filter tree
// instead of query fragments, so the policy stays unit-testable without a
// database and independent of the storage engine's query language.

// Op is a filter comparison operator.
type Op string

const (
	// OpEq matches rows whose field equals the value.
	OpEq Op = "eq"
	// OpIsNull matches rows whose field is NULL.
	OpIsNull Op = "is_null"
)

// Expr is a node in the filter tree.
type Expr interface {
	isExpr()
}

// Cond is a single field comparison.
type Cond struct {
	Field string
	Op    Op
	Value any
}

// And is a conjunction of expressions. An empty And matches every row.
type And []Expr

// Or is a disjunction of expressions. An empty Or matches no row.
type Or []Expr

func (Cond) isExpr() {}
func (And) isExpr()  {}
func (Or) isExpr()   {}

// MatchAll is the unrestricted scope.
var MatchAll = And{} //nolint:gochecknoglobals

// MatchNone is the empty scope.
var MatchNone = Or{} //nolint:gochecknoglobals

// Eq builds an equality condition.
func Eq(field string, value any) Cond {
	return Cond{Field: field, Op: OpEq, Value: value}
}

// IsNull builds a NULL check condition.
func IsNull(field string) Cond {
	return Cond{Field: field, Op: OpIsNull}
}

// Matches evaluates the tree against a row represented as a field map.
// Absent fields count as NULL. Used in tests and never by the storage
// layer, which compiles the tree into its own query language.
func Matches(e Expr, row map[string]any) bool {
	switch n := e.(type) {
	case Cond:
		v, ok := row[n.Field]

		switch n.Op {
		case OpIsNull:
			return !ok || v == nil
		case OpEq:
			return ok && v == n.Value
		default:
			return false
		}
	case And:
		for _, sub := range n {
			if !Matches(sub, row) {
				return false
			}
		}

		return true
	case Or:
		for _, sub := range n {
			if Matches(sub, row) {
				return true
			}
		}

		return false
	default:
		return false
	}
}
