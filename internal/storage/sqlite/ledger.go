package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aanand-mishra/hostel-api/internal/types"
)

// ─────────────────────────────────────────────────────────────────────────────
// ChargeActiveStudents bills every student who currently holds a room.
//
// Calling it twice for the same period bills twice; the service layer
// warns about that but does not block it.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) ChargeActiveStudents(ctx context.Context, period string, amount types.Money, at time.Time) (int, error) {
	count := 0

	err := s.withTx(ctx, "ChargeActiveStudents", func(tx *sql.Tx) error {
		ids, err := activeStudentIDs(ctx, tx)
		if err != nil {
			return fmt.Errorf("ChargeActiveStudents: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO rent_charges (period, amount, status, student_id, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
		)
		if err != nil {
			return fmt.Errorf("ChargeActiveStudents: prepare: %w", err)
		}
		defer stmt.Close()

		for _, id := range ids {
			if _, err := stmt.ExecContext(ctx, period, int64(amount), types.ChargePending, id, at.UTC()); err != nil {
				return fmt.Errorf("ChargeActiveStudents: insert for student %d: %w", id, err)
			}
			// An overpaid student may already cover the new charge.
			if err := refreshChargeStatus(ctx, tx, id); err != nil {
				return fmt.Errorf("ChargeActiveStudents: %w", err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// PeriodCharged reports whether any student was already billed for period.
func (s *SQLite) PeriodCharged(ctx context.Context, period string) (bool, error) {
	var exists bool
	err := s.Db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM rent_charges WHERE period = ?)", period,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("PeriodCharged: %w", err)
	}
	return exists, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// AddPayment records money received and re-derives which charges are
// covered. A missing student is ErrNotFound, never a silent no-op.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) AddPayment(ctx context.Context, studentID int64, amount types.Money, at time.Time) (types.Payment, error) {
	payment := types.Payment{
		Amount:    amount,
		PaidAt:    at.UTC(),
		StudentID: studentID,
	}

	err := s.withTx(ctx, "AddPayment", func(tx *sql.Tx) error {
		if err := requireStudent(ctx, tx, studentID); err != nil {
			return fmt.Errorf("AddPayment: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO payments (amount, paid_at, student_id) VALUES (?, ?, ?)",
			int64(amount), payment.PaidAt, studentID,
		)
		if err != nil {
			return fmt.Errorf("AddPayment: insert: %w", err)
		}
		if payment.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("AddPayment: last insert id: %w", err)
		}

		if err := refreshChargeStatus(ctx, tx, studentID); err != nil {
			return fmt.Errorf("AddPayment: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.Payment{}, err
	}
	return payment, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Statement reads a student's charges and payments in one transaction so
// the totals always describe a single point in time.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Statement(ctx context.Context, studentID int64) (types.Statement, error) {
	var st types.Statement

	err := s.withTx(ctx, "Statement", func(tx *sql.Tx) error {
		if err := requireStudent(ctx, tx, studentID); err != nil {
			return fmt.Errorf("Statement: %w", err)
		}
		charges, err := chargesOf(ctx, tx, studentID)
		if err != nil {
			return fmt.Errorf("Statement: %w", err)
		}
		payments, err := paymentsOf(ctx, tx, studentID)
		if err != nil {
			return fmt.Errorf("Statement: %w", err)
		}
		st = types.NewStatement(studentID, charges, payments)
		return nil
	})
	if err != nil {
		return types.Statement{}, err
	}
	return st, nil
}

// PendingDues lists every student with a positive balance, ordered by id.
func (s *SQLite) PendingDues(ctx context.Context) ([]types.Due, error) {
	rows, err := s.Db.QueryContext(ctx, `
		SELECT id, full_name, number, balance FROM (
			SELECT u.id, u.full_name, r.number,
			       (SELECT COALESCE(SUM(c.amount), 0) FROM rent_charges c WHERE c.student_id = u.id) -
			       (SELECT COALESCE(SUM(p.amount), 0) FROM payments p WHERE p.student_id = u.id) AS balance
			FROM users u
			LEFT JOIN rooms r ON r.student_id = u.id
			WHERE u.role = ?
		)
		WHERE balance > 0
		ORDER BY id`,
		types.RoleStudent,
	)
	if err != nil {
		return nil, fmt.Errorf("PendingDues: query: %w", err)
	}
	defer rows.Close()

	dues := make([]types.Due, 0)
	for rows.Next() {
		var (
			due    types.Due
			number sql.NullInt64
			amount int64
		)
		if err := rows.Scan(&due.StudentID, &due.FullName, &number, &amount); err != nil {
			return nil, fmt.Errorf("PendingDues: scan row: %w", err)
		}
		if number.Valid {
			n := int(number.Int64)
			due.RoomNumber = &n
		}
		due.Amount = types.Money(amount)
		dues = append(dues, due)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("PendingDues: rows iteration: %w", err)
	}
	return dues, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func activeStudentIDs(ctx context.Context, q querier) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT u.id FROM users u
		JOIN rooms r ON r.student_id = u.id
		WHERE u.role = ? AND r.occupied = 1
		ORDER BY u.id`,
		types.RoleStudent,
	)
	if err != nil {
		return nil, fmt.Errorf("active students: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("active students: scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// balanceOf computes charges minus payments in SQL integer arithmetic.
func balanceOf(ctx context.Context, q querier, studentID int64) (types.Money, error) {
	var balance int64
	err := q.QueryRowContext(ctx, `
		SELECT (SELECT COALESCE(SUM(amount), 0) FROM rent_charges WHERE student_id = ?) -
		       (SELECT COALESCE(SUM(amount), 0) FROM payments WHERE student_id = ?)`,
		studentID, studentID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("balance of student %d: %w", studentID, err)
	}
	return types.Money(balance), nil
}

func chargesOf(ctx context.Context, q querier, studentID int64) ([]types.RentCharge, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, period, amount, status, student_id, created_at
		 FROM rent_charges WHERE student_id = ? ORDER BY id`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("charges of student %d: %w", studentID, err)
	}
	defer rows.Close()

	charges := make([]types.RentCharge, 0)
	for rows.Next() {
		var (
			c      types.RentCharge
			amount int64
			status string
		)
		if err := rows.Scan(&c.ID, &c.Period, &amount, &status, &c.StudentID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("charges of student %d: scan: %w", studentID, err)
		}
		c.Amount = types.Money(amount)
		c.Status = types.ChargeStatus(status)
		charges = append(charges, c)
	}
	return charges, rows.Err()
}

func paymentsOf(ctx context.Context, q querier, studentID int64) ([]types.Payment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, amount, paid_at, student_id
		 FROM payments WHERE student_id = ? ORDER BY id`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("payments of student %d: %w", studentID, err)
	}
	defer rows.Close()

	payments := make([]types.Payment, 0)
	for rows.Next() {
		var (
			p      types.Payment
			amount int64
		)
		if err := rows.Scan(&p.ID, &amount, &p.PaidAt, &p.StudentID); err != nil {
			return nil, fmt.Errorf("payments of student %d: scan: %w", studentID, err)
		}
		p.Amount = types.Money(amount)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// refreshChargeStatus marks charges paid oldest-first for as long as the
// running total of charges stays within the total paid. The flags are a
// display aid; balances never read them.
func refreshChargeStatus(ctx context.Context, q querier, studentID int64) error {
	var paid int64
	err := q.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM payments WHERE student_id = ?", studentID,
	).Scan(&paid)
	if err != nil {
		return fmt.Errorf("refresh charge status: total paid: %w", err)
	}

	charges, err := chargesOf(ctx, q, studentID)
	if err != nil {
		return fmt.Errorf("refresh charge status: %w", err)
	}

	var running int64
	for _, c := range charges {
		running += int64(c.Amount)
		want := types.ChargePending
		if running <= paid {
			want = types.ChargePaid
		}
		if c.Status == want {
			continue
		}
		if _, err := q.ExecContext(ctx,
			"UPDATE rent_charges SET status = ? WHERE id = ?", want, c.ID,
		); err != nil {
			return fmt.Errorf("refresh charge status: update %d: %w", c.ID, err)
		}
	}
	return nil
}
