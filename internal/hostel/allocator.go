package hostel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aanand-mishra/hostel-api/internal/storage"
	"github.com/aanand-mishra/hostel-api/internal/types"
)

// Allocator assigns and releases rooms. It is the only code path that
// changes the occupancy link between a room and a student.
type Allocator struct {
	store storage.Storage
	log   *slog.Logger
}

// Register creates a student and gives them the lowest-numbered free room
// in one transaction. The password must already be hashed by the session
// layer.
func (a *Allocator) Register(ctx context.Context, ns types.NewStudent) (types.User, types.Room, error) {
	ns.Username = strings.TrimSpace(ns.Username)
	ns.FullName = strings.TrimSpace(ns.FullName)
	ns.Phone = strings.TrimSpace(ns.Phone)
	if ns.Username == "" || ns.PasswordHash == "" {
		return types.User{}, types.Room{}, fmt.Errorf("Register: username and password: %w", types.ErrInvalidInput)
	}

	user, room, err := a.store.RegisterStudent(ctx, ns)
	if err != nil {
		a.log.Warn("registration refused",
			slog.String("username", ns.Username),
			slog.String("error", err.Error()))
		return types.User{}, types.Room{}, err
	}

	a.log.Info("student registered",
		slog.Int64("student_id", user.ID),
		slog.Int("room", room.Number))
	return user, room, nil
}

// Assign gives a roomless student the lowest free room. Admin only.
func (a *Allocator) Assign(ctx context.Context, caller types.Caller, studentID int64) (types.Room, error) {
	if !caller.IsAdmin() {
		return types.Room{}, fmt.Errorf("Assign: %w", types.ErrForbidden)
	}

	room, err := a.store.AssignRoom(ctx, studentID)
	if err != nil {
		return types.Room{}, err
	}

	a.log.Info("room assigned",
		slog.Int64("student_id", studentID),
		slog.Int("room", room.Number),
		slog.Int64("by", caller.UserID))
	return room, nil
}

// Release vacates the student's room when their balance is zero or
// negative. Students may vacate their own room; admins any room.
func (a *Allocator) Release(ctx context.Context, caller types.Caller, studentID int64) (types.Room, error) {
	if !caller.CanActFor(studentID) {
		return types.Room{}, fmt.Errorf("Release: %w", types.ErrForbidden)
	}

	room, err := a.store.ReleaseRoom(ctx, studentID)
	if err != nil {
		a.log.Info("vacate refused",
			slog.Int64("student_id", studentID),
			slog.String("error", err.Error()))
		return types.Room{}, err
	}

	a.log.Info("room released",
		slog.Int64("student_id", studentID),
		slog.Int("room", room.Number))
	return room, nil
}

// Rooms lists the whole pool. Admin only.
func (a *Allocator) Rooms(ctx context.Context, caller types.Caller) ([]types.Room, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("Rooms: %w", types.ErrForbidden)
	}
	return a.store.ListRooms(ctx)
}

// Occupancy reports total and occupied rooms. Public: the login page uses
// it to say whether registration is open.
func (a *Allocator) Occupancy(ctx context.Context) (types.Occupancy, error) {
	return a.store.Occupancy(ctx)
}

// HasVacancy reports whether at least one room is free.
func (a *Allocator) HasVacancy(ctx context.Context) (bool, error) {
	occ, err := a.store.Occupancy(ctx)
	if err != nil {
		return false, err
	}
	return occ.Free() > 0, nil
}

// Student returns a student's profile, including their room number.
func (a *Allocator) Student(ctx context.Context, caller types.Caller, studentID int64) (types.User, error) {
	if !caller.CanActFor(studentID) {
		return types.User{}, fmt.Errorf("Student: %w", types.ErrForbidden)
	}
	u, err := a.store.GetUserByID(ctx, studentID)
	if err != nil {
		return types.User{}, err
	}
	if u.Role != types.RoleStudent {
		return types.User{}, fmt.Errorf("Student: user %d: %w", studentID, types.ErrNotFound)
	}
	return u, nil
}

// Students lists every student account. Admin only.
func (a *Allocator) Students(ctx context.Context, caller types.Caller) ([]types.User, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("Students: %w", types.ErrForbidden)
	}
	return a.store.ListStudents(ctx)
}
