package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aanand-mishra/hostel-api/internal/types"
)

const complaintColumns = `
	SELECT id, title, description, attachment_ref, status, student_id, created_at
	FROM complaints`

// CreateComplaint stores c as a new pending complaint and returns it with
// its id.
func (s *SQLite) CreateComplaint(ctx context.Context, c types.Complaint) (types.Complaint, error) {
	c.Status = types.ComplaintPending
	c.CreatedAt = c.CreatedAt.UTC()

	err := s.withTx(ctx, "CreateComplaint", func(tx *sql.Tx) error {
		if err := requireStudent(ctx, tx, c.StudentID); err != nil {
			return fmt.Errorf("CreateComplaint: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO complaints (title, description, attachment_ref, status, student_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			c.Title, c.Description, c.AttachmentRef, c.Status, c.StudentID, c.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("CreateComplaint: insert: %w", err)
		}
		if c.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("CreateComplaint: last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.Complaint{}, err
	}
	return c, nil
}

// ResolveComplaint moves a complaint to resolved. An already resolved
// complaint is returned unchanged.
func (s *SQLite) ResolveComplaint(ctx context.Context, id int64) (types.Complaint, error) {
	var c types.Complaint

	err := s.withTx(ctx, "ResolveComplaint", func(tx *sql.Tx) error {
		var err error
		c, err = scanComplaint(tx.QueryRowContext(ctx, complaintColumns+" WHERE id = ?", id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("ResolveComplaint: complaint %d: %w", id, types.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("ResolveComplaint: scan: %w", err)
		}
		if c.Status == types.ComplaintResolved {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE complaints SET status = ? WHERE id = ?", types.ComplaintResolved, id,
		); err != nil {
			return fmt.Errorf("ResolveComplaint: update: %w", err)
		}
		c.Status = types.ComplaintResolved
		return nil
	})
	if err != nil {
		return types.Complaint{}, err
	}
	return c, nil
}

// ListComplaints returns complaints newest first, optionally filtered to
// one student.
func (s *SQLite) ListComplaints(ctx context.Context, studentID *int64) ([]types.Complaint, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if studentID != nil {
		rows, err = s.Db.QueryContext(ctx, complaintColumns+" WHERE student_id = ? ORDER BY id DESC", *studentID)
	} else {
		rows, err = s.Db.QueryContext(ctx, complaintColumns+" ORDER BY id DESC")
	}
	if err != nil {
		return nil, fmt.Errorf("ListComplaints: query: %w", err)
	}
	defer rows.Close()

	complaints := make([]types.Complaint, 0)
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("ListComplaints: scan row: %w", err)
		}
		complaints = append(complaints, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListComplaints: rows iteration: %w", err)
	}
	return complaints, nil
}

func scanComplaint(row rowScanner) (types.Complaint, error) {
	var (
		c      types.Complaint
		status string
	)
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.AttachmentRef, &status, &c.StudentID, &c.CreatedAt)
	if err != nil {
		return types.Complaint{}, err
	}
	c.Status = types.ComplaintStatus(status)
	return c, nil
}
