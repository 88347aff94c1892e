package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aanand-mishra/hostel-api/internal/types"
)

// userColumns selects a user together with the number of the room that
// references it, if any. The room side is the only stored half of the
// occupancy link.
const userColumns = `
	SELECT u.id, u.username, u.password_hash, u.role, u.full_name, u.phone, r.number
	FROM users u
	LEFT JOIN rooms r ON r.student_id = u.id`

// EnsureAdmin creates the administrator account when the username is free.
func (s *SQLite) EnsureAdmin(ctx context.Context, username, passwordHash, fullName string) (bool, error) {
	res, err := s.Db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, full_name)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(username) DO NOTHING`,
		username, passwordHash, types.RoleAdmin, fullName,
	)
	if err != nil {
		return false, fmt.Errorf("EnsureAdmin: insert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("EnsureAdmin: rows affected: %w", err)
	}
	return n == 1, nil
}

// GetUserByID fetches one user by primary key.
func (s *SQLite) GetUserByID(ctx context.Context, id int64) (types.User, error) {
	user, err := scanUser(s.Db.QueryRowContext(ctx, userColumns+" WHERE u.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.User{}, fmt.Errorf("no user found with id %d: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return types.User{}, fmt.Errorf("GetUserByID: scan: %w", err)
	}
	return user, nil
}

// GetUserByUsername fetches one user by login name.
func (s *SQLite) GetUserByUsername(ctx context.Context, username string) (types.User, error) {
	user, err := scanUser(s.Db.QueryRowContext(ctx, userColumns+" WHERE u.username = ?", username))
	if errors.Is(err, sql.ErrNoRows) {
		return types.User{}, fmt.Errorf("no user found with username %q: %w", username, types.ErrNotFound)
	}
	if err != nil {
		return types.User{}, fmt.Errorf("GetUserByUsername: scan: %w", err)
	}
	return user, nil
}

// ListStudents returns all student accounts ordered by id. Returns an
// empty slice (not nil) when there are none.
func (s *SQLite) ListStudents(ctx context.Context) ([]types.User, error) {
	rows, err := s.Db.QueryContext(ctx, userColumns+" WHERE u.role = ? ORDER BY u.id", types.RoleStudent)
	if err != nil {
		return nil, fmt.Errorf("ListStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ListStudents: scan row: %w", err)
		}
		students = append(students, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListStudents: rows iteration: %w", err)
	}
	return students, nil
}

func scanUser(row rowScanner) (types.User, error) {
	var (
		user       types.User
		role       string
		roomNumber sql.NullInt64
	)
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&role,
		&user.FullName,
		&user.Phone,
		&roomNumber,
	)
	if err != nil {
		return types.User{}, err
	}
	user.Role = types.Role(role)
	if roomNumber.Valid {
		n := int(roomNumber.Int64)
		user.RoomNumber = &n
	}
	return user, nil
}

// requireStudent fails with ErrNotFound unless id names a student account.
func requireStudent(ctx context.Context, q querier, id int64) error {
	var role string
	err := q.QueryRowContext(ctx, "SELECT role FROM users WHERE id = ?", id).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && types.Role(role) != types.RoleStudent) {
		return fmt.Errorf("student %d: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("look up student %d: %w", id, err)
	}
	return nil
}
