package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aanand-mishra/hostel-api/internal/types"
)

// ─────────────────────────────────────────────────────────────────────────────
// SeedRooms creates the fixed room pool on first start. Rooms are numbered
// first, first+1, ... and never created again once any room exists.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) SeedRooms(ctx context.Context, first, count int) (int, error) {
	created := 0
	err := s.withTx(ctx, "SeedRooms", func(tx *sql.Tx) error {
		var existing int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM rooms").Scan(&existing); err != nil {
			return fmt.Errorf("SeedRooms: count: %w", err)
		}
		if existing > 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, "INSERT INTO rooms (number, occupied) VALUES (?, 0)")
		if err != nil {
			return fmt.Errorf("SeedRooms: prepare: %w", err)
		}
		defer stmt.Close()

		for i := 0; i < count; i++ {
			if _, err := stmt.ExecContext(ctx, first+i); err != nil {
				return fmt.Errorf("SeedRooms: insert room %d: %w", first+i, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// RegisterStudent is the registration transaction:
//
//  1. reject a taken username
//  2. pick the free room with the lowest number
//  3. insert the student
//  4. mark the room occupied by that student
//
// Any failure rolls the whole thing back, so a failed registration never
// leaves an orphan student row.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) RegisterStudent(ctx context.Context, ns types.NewStudent) (types.User, types.Room, error) {
	var (
		user types.User
		room types.Room
	)

	err := s.withTx(ctx, "RegisterStudent", func(tx *sql.Tx) error {
		var taken bool
		err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)", ns.Username,
		).Scan(&taken)
		if err != nil {
			return fmt.Errorf("RegisterStudent: check username: %w", err)
		}
		if taken {
			return fmt.Errorf("RegisterStudent: %q: %w", ns.Username, types.ErrDuplicateUsername)
		}

		room, err = lowestFreeRoom(ctx, tx)
		if err != nil {
			return fmt.Errorf("RegisterStudent: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, password_hash, role, full_name, phone)
			 VALUES (?, ?, ?, ?, ?)`,
			ns.Username, ns.PasswordHash, types.RoleStudent, ns.FullName, ns.Phone,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("RegisterStudent: %q: %w", ns.Username, types.ErrDuplicateUsername)
			}
			return fmt.Errorf("RegisterStudent: insert user: %w", err)
		}
		studentID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("RegisterStudent: last insert id: %w", err)
		}

		if err := claimRoom(ctx, tx, room.ID, studentID); err != nil {
			return fmt.Errorf("RegisterStudent: %w", err)
		}

		room.Occupied = true
		room.StudentID = &studentID
		number := room.Number
		user = types.User{
			ID:           studentID,
			Username:     ns.Username,
			PasswordHash: ns.PasswordHash,
			Role:         types.RoleStudent,
			FullName:     ns.FullName,
			Phone:        ns.Phone,
			RoomNumber:   &number,
		}
		return nil
	})
	if err != nil {
		return types.User{}, types.Room{}, err
	}
	return user, room, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// AssignRoom gives an existing, roomless student the lowest free room.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) AssignRoom(ctx context.Context, studentID int64) (types.Room, error) {
	var room types.Room

	err := s.withTx(ctx, "AssignRoom", func(tx *sql.Tx) error {
		if err := requireStudent(ctx, tx, studentID); err != nil {
			return fmt.Errorf("AssignRoom: %w", err)
		}

		current, err := roomOf(ctx, tx, studentID)
		if err != nil && !errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("AssignRoom: %w", err)
		}
		if err == nil {
			return fmt.Errorf("AssignRoom: student %d in room %d: %w",
				studentID, current.Number, types.ErrAlreadyAssigned)
		}

		room, err = lowestFreeRoom(ctx, tx)
		if err != nil {
			return fmt.Errorf("AssignRoom: %w", err)
		}
		if err := claimRoom(ctx, tx, room.ID, studentID); err != nil {
			return fmt.Errorf("AssignRoom: %w", err)
		}

		room.Occupied = true
		room.StudentID = &studentID
		return nil
	})
	if err != nil {
		return types.Room{}, err
	}
	return room, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// ReleaseRoom vacates the student's room. The balance is computed inside
// the same transaction that clears the link, so a payment or charge
// cannot slip in between the check and the release.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) ReleaseRoom(ctx context.Context, studentID int64) (types.Room, error) {
	var room types.Room

	err := s.withTx(ctx, "ReleaseRoom", func(tx *sql.Tx) error {
		if err := requireStudent(ctx, tx, studentID); err != nil {
			return fmt.Errorf("ReleaseRoom: %w", err)
		}

		balance, err := balanceOf(ctx, tx, studentID)
		if err != nil {
			return fmt.Errorf("ReleaseRoom: %w", err)
		}
		if balance > 0 {
			return fmt.Errorf("ReleaseRoom: pending dues of %s: %w", balance, types.ErrOutstandingBalance)
		}

		room, err = roomOf(ctx, tx, studentID)
		if err != nil {
			return fmt.Errorf("ReleaseRoom: student %d: %w", studentID, err)
		}

		res, err := tx.ExecContext(ctx,
			"UPDATE rooms SET occupied = 0, student_id = NULL WHERE id = ? AND student_id = ?",
			room.ID, studentID,
		)
		if err != nil {
			return fmt.Errorf("ReleaseRoom: update room: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil || n != 1 {
			return fmt.Errorf("ReleaseRoom: room %d changed underneath: %w", room.Number, types.ErrNotFound)
		}

		room.Occupied = false
		room.StudentID = nil
		return nil
	})
	if err != nil {
		return types.Room{}, err
	}
	return room, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// ListRooms returns the whole pool ordered by room number.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) ListRooms(ctx context.Context) ([]types.Room, error) {
	rows, err := s.Db.QueryContext(ctx,
		"SELECT id, number, occupied, student_id FROM rooms ORDER BY number",
	)
	if err != nil {
		return nil, fmt.Errorf("ListRooms: query: %w", err)
	}
	defer rows.Close()

	rooms := make([]types.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("ListRooms: scan row: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListRooms: rows iteration: %w", err)
	}
	return rooms, nil
}

// Occupancy counts total and occupied rooms.
func (s *SQLite) Occupancy(ctx context.Context) (types.Occupancy, error) {
	var occ types.Occupancy
	err := s.Db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(CASE WHEN occupied THEN 1 ELSE 0 END), 0) FROM rooms",
	).Scan(&occ.Total, &occ.Occupied)
	if err != nil {
		return types.Occupancy{}, fmt.Errorf("Occupancy: %w", err)
	}
	return occ, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (types.Room, error) {
	var (
		room      types.Room
		studentID sql.NullInt64
	)
	if err := row.Scan(&room.ID, &room.Number, &room.Occupied, &studentID); err != nil {
		return types.Room{}, err
	}
	if studentID.Valid {
		id := studentID.Int64
		room.StudentID = &id
	}
	return room, nil
}

// lowestFreeRoom picks the unoccupied room with the smallest number.
func lowestFreeRoom(ctx context.Context, q querier) (types.Room, error) {
	room, err := scanRoom(q.QueryRowContext(ctx,
		`SELECT id, number, occupied, student_id FROM rooms
		 WHERE occupied = 0 ORDER BY number LIMIT 1`,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Room{}, types.ErrNoVacancy
	}
	if err != nil {
		return types.Room{}, fmt.Errorf("find free room: %w", err)
	}
	return room, nil
}

// claimRoom links the room to the student. The occupied = 0 guard makes
// the claim fail rather than overwrite an occupant.
func claimRoom(ctx context.Context, q querier, roomID, studentID int64) error {
	res, err := q.ExecContext(ctx,
		"UPDATE rooms SET occupied = 1, student_id = ? WHERE id = ? AND occupied = 0",
		studentID, roomID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("claim room %d: %w", roomID, types.ErrAlreadyAssigned)
		}
		return fmt.Errorf("claim room %d: %w", roomID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim room %d: rows affected: %w", roomID, err)
	}
	if n != 1 {
		return fmt.Errorf("claim room %d: %w", roomID, types.ErrNoVacancy)
	}
	return nil
}

// roomOf returns the room a student occupies, or ErrNotFound.
func roomOf(ctx context.Context, q querier, studentID int64) (types.Room, error) {
	room, err := scanRoom(q.QueryRowContext(ctx,
		"SELECT id, number, occupied, student_id FROM rooms WHERE student_id = ?",
		studentID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Room{}, fmt.Errorf("room: %w", types.ErrNotFound)
	}
	if err != nil {
		return types.Room{}, fmt.Errorf("room of student %d: %w", studentID, err)
	}
	return room, nil
}
