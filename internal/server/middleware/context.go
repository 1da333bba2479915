package middleware

import "context"

type contextKey struct{ name string }

var operatorKey = contextKey{"operator"}

// Operator identifies the authenticated caller of an operator route.
type Operator struct {
	ID   string
	Name string
}

// WithOperator returns a context carrying op.
func WithOperator(ctx context.Context, op Operator) context.Context {
	return context.WithValue(ctx, operatorKey, op)
}

// GetOperator returns the operator from context and true if set; otherwise the zero value, false.
func GetOperator(ctx context.Context) (Operator, bool) {
	op, ok := ctx.Value(operatorKey).(Operator)
	return op, ok
}
