package hostel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aanand-mishra/hostel-api/internal/storage"
	"github.com/aanand-mishra/hostel-api/internal/types"
)

// Ledger owns rent charges and payments. A student's balance is always
// total charged minus total paid; nothing else is authoritative.
type Ledger struct {
	store storage.Storage
	log   *slog.Logger
	now   func() time.Time
}

// Period builds the billing-period label from a month name and a year,
// e.g. ("january", 2025) -> "January 2025". Any four-digit-or-shorter
// positive year is accepted.
func Period(month string, year int) (string, error) {
	m := strings.TrimSpace(month)
	for i := time.January; i <= time.December; i++ {
		if strings.EqualFold(m, i.String()) || strings.EqualFold(m, i.String()[:3]) {
			if year < 1 || year > 9999 {
				return "", fmt.Errorf("Period: year %d: %w", year, types.ErrInvalidInput)
			}
			return fmt.Sprintf("%s %d", i, year), nil
		}
	}
	return "", fmt.Errorf("Period: month %q: %w", month, types.ErrInvalidInput)
}

// Statement returns a student's charges, payments, and derived totals.
// Students may only read their own.
func (l *Ledger) Statement(ctx context.Context, caller types.Caller, studentID int64) (types.Statement, error) {
	if !caller.CanActFor(studentID) {
		return types.Statement{}, fmt.Errorf("Statement: %w", types.ErrForbidden)
	}
	return l.store.Statement(ctx, studentID)
}

// Balance is TotalCharged - TotalPaid. Positive means the student owes
// money; negative means they have overpaid.
func (l *Ledger) Balance(ctx context.Context, caller types.Caller, studentID int64) (types.Money, error) {
	st, err := l.Statement(ctx, caller, studentID)
	if err != nil {
		return 0, err
	}
	return st.Balance, nil
}

// AssignChargeToAll bills every student currently holding a room for the
// period. It is NOT idempotent: submitting the same period twice bills
// twice. A repeat is logged so an administrator can spot it.
func (l *Ledger) AssignChargeToAll(ctx context.Context, caller types.Caller, period string, amount types.Money) (int, error) {
	if !caller.IsAdmin() {
		return 0, fmt.Errorf("AssignChargeToAll: %w", types.ErrForbidden)
	}
	if !amount.Valid() {
		return 0, fmt.Errorf("AssignChargeToAll: %s: %w", amount, types.ErrInvalidAmount)
	}
	period = strings.TrimSpace(period)
	if period == "" {
		return 0, fmt.Errorf("AssignChargeToAll: empty period: %w", types.ErrInvalidInput)
	}

	already, err := l.store.PeriodCharged(ctx, period)
	if err != nil {
		return 0, err
	}
	if already {
		l.log.Warn("period already billed, charging again",
			slog.String("period", period))
	}

	n, err := l.store.ChargeActiveStudents(ctx, period, amount, l.now())
	if err != nil {
		return 0, err
	}

	l.log.Info("rent assigned",
		slog.String("period", period),
		slog.String("amount", amount.String()),
		slog.Int("students", n))
	return n, nil
}

// RecordPayment adds a payment for a student. Admin only; the amount must
// be positive, at most types.MaxAmount, and the student must exist.
func (l *Ledger) RecordPayment(ctx context.Context, caller types.Caller, studentID int64, amount types.Money) (types.Payment, error) {
	if !caller.IsAdmin() {
		return types.Payment{}, fmt.Errorf("RecordPayment: %w", types.ErrForbidden)
	}
	if !amount.Valid() {
		return types.Payment{}, fmt.Errorf("RecordPayment: %s: %w", amount, types.ErrInvalidAmount)
	}

	p, err := l.store.AddPayment(ctx, studentID, amount, l.now())
	if err != nil {
		return types.Payment{}, err
	}

	l.log.Info("payment recorded",
		slog.Int64("student_id", studentID),
		slog.String("amount", amount.String()))
	return p, nil
}

// PendingDues lists students who owe money. Admin only.
func (l *Ledger) PendingDues(ctx context.Context, caller types.Caller) ([]types.Due, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("PendingDues: %w", types.ErrForbidden)
	}
	return l.store.PendingDues(ctx)
}
