// Package policy evaluates configurable business rules with CEL
// expressions. Rules live in configuration, not code, so a retailer
// can tighten or relax them without a deploy.
package policy

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/shopspring/decimal"

	"aurum/internal/core/apperror"
	"aurum/internal/core/types"
)

// DefaultPaymentExpr allows payments up to the grand total plus a
// small tolerance for cash rounding at the counter.
const DefaultPaymentExpr = "paid + amount <= grand_total + tolerance"

// PaymentPolicy decides whether an incoming payment on a bill is
// acceptable given what has already been paid.
type PaymentPolicy struct {
	program   cel.Program
	tolerance decimal.Decimal
}

// NewPaymentPolicy compiles expr once; evaluation is then cheap and
// concurrency-safe. The expression sees four double variables:
// grand_total, paid, amount and tolerance, and must yield a bool.
func NewPaymentPolicy(expr string, tolerance decimal.Decimal) (*PaymentPolicy, error) {
	if expr == "" {
		expr = DefaultPaymentExpr
	}

	env, err := cel.NewEnv(
		cel.Variable("grand_total", cel.DoubleType),
		cel.Variable("paid", cel.DoubleType),
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("tolerance", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("compile payment policy %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("payment policy %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build payment policy program: %w", err)
	}

	return &PaymentPolicy{program: prg, tolerance: tolerance}, nil
}

// MustPaymentPolicy builds the default policy or panics. Startup wiring only.
func MustPaymentPolicy(expr string, tolerance decimal.Decimal) *PaymentPolicy {
	p, err := NewPaymentPolicy(expr, tolerance)
	if err != nil {
		panic(err)
	}
	return p
}

// AllowPayment returns a PAYMENT_EXCEEDS_TOTAL business-rule error when
// the configured expression rejects the payment.
func (p *PaymentPolicy) AllowPayment(grandTotal, paid, amount types.Money) error {
	out, _, err := p.program.Eval(map[string]any{
		"grand_total": grandTotal.InexactFloat64(),
		"paid":        paid.InexactFloat64(),
		"amount":      amount.InexactFloat64(),
		"tolerance":   p.tolerance.InexactFloat64(),
	})
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("evaluate payment policy: %w", err))
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return apperror.NewInternal(fmt.Errorf("payment policy returned %T, want bool", out.Value()))
	}
	if !allowed {
		return apperror.NewBusinessRule(apperror.CodePaymentExceedsTotal, "payment exceeds bill grand total").
			WithDetail("grand_total", grandTotal.String()).
			WithDetail("paid", paid.String()).
			WithDetail("amount", amount.String())
	}
	return nil
}
