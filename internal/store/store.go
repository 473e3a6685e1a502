// Package store defines the request/response contract of the remote table store.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Table names served by the store
const (
	TableProperties           = "properties"
	TablePropertyInstructions = "property_instructions"
	TablePackages             = "packages"
	TablePackageClaims        = "package_claims"
	TablePropertyUpdates      = "property_updates"
)

// Filter operators
const (
	OpEq  = "eq"
	OpNeq = "neq"
	OpIn  = "in"
)

// ErrNoSession reports that no principal is signed in
var ErrNoSession = errors.New("no session")

// Filter restricts rows by a column comparison
type Filter struct {
	Column   string
	Operator string
	Value    string
}

// Eq matches rows whose column equals value
func Eq(column, value string) Filter {
	return Filter{Column: column, Operator: OpEq, Value: value}
}

// Neq matches rows whose column differs from value
func Neq(column, value string) Filter {
	return Filter{Column: column, Operator: OpNeq, Value: value}
}

// In matches rows whose column is one of values
func In(column string, values ...string) Filter {
	return Filter{Column: column, Operator: OpIn, Value: "(" + strings.Join(values, ",") + ")"}
}

// InValues splits the value of an "in" filter
func (f Filter) InValues() []string {
	v := strings.TrimSuffix(strings.TrimPrefix(f.Value, "("), ")")
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Encode renders the filter value as "op.value"
func (f Filter) Encode() string {
	return f.Operator + "." + f.Value
}

// ParseFilter parses a column and an "op.value" expression
func ParseFilter(column, expr string) (Filter, error) {
	op, value, ok := strings.Cut(expr, ".")
	if !ok {
		return Filter{}, fmt.Errorf("invalid filter %q for column %s", expr, column)
	}
	switch op {
	case OpEq, OpNeq, OpIn:
	default:
		return Filter{}, fmt.Errorf("unsupported operator %q for column %s", op, column)
	}
	return Filter{Column: column, Operator: op, Value: value}, nil
}

// Order sorts selected rows
type Order struct {
	Column    string
	Ascending bool
}

// Encode renders the order as "column.asc" or "column.desc"
func (o Order) Encode() string {
	if o.Ascending {
		return o.Column + ".asc"
	}
	return o.Column + ".desc"
}

// ParseOrder parses a comma separated "column.dir" list
func ParseOrder(expr string) ([]Order, error) {
	var orders []Order
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		column, dir, _ := strings.Cut(part, ".")
		o := Order{Column: column, Ascending: true}
		switch dir {
		case "", "asc":
		case "desc":
			o.Ascending = false
		default:
			return nil, fmt.Errorf("invalid order direction %q", dir)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// Query describes a select
type Query struct {
	// Embed names related tables joined into each row, e.g. property_instructions
	Embed   []string
	Filters []Filter
	Order   []Order
	Limit   int
}

// Client is the request/response interface of the remote table store.
// Select and Insert return JSON arrays of rows.
type Client interface {
	Select(ctx context.Context, table string, q Query) ([]byte, error)
	Insert(ctx context.Context, table string, rows any) ([]byte, error)
	Update(ctx context.Context, table string, patch any, filters ...Filter) error
	Delete(ctx context.Context, table string, filters ...Filter) error
}

// Principal is the authenticated user on whose behalf operations run
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// PrincipalSource resolves the current principal, or ErrNoSession
type PrincipalSource interface {
	CurrentPrincipal(ctx context.Context) (*Principal, error)
}

// StaticPrincipal is a PrincipalSource for an already resolved principal
type StaticPrincipal struct {
	Principal *Principal
}

// CurrentPrincipal implements PrincipalSource
func (s StaticPrincipal) CurrentPrincipal(context.Context) (*Principal, error) {
	if s.Principal == nil || s.Principal.ID == "" {
		return nil, ErrNoSession
	}
	p := *s.Principal
	return &p, nil
}
