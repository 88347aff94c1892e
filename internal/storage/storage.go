// Package storage defines the Storage interface, the contract any
// database backend must satisfy to back the hostel services.
//
// Every method that changes more than one row runs as ONE transaction in
// the implementation. That is where the occupancy invariants live: the
// services above validate input and check roles, storage guarantees that
// a room and its occupant change together or not at all.
package storage

import (
	"context"
	"time"

	"github.com/aanand-mishra/hostel-api/internal/types"
)

// Storage is the database contract.
type Storage interface {
	// ── Bootstrap ────────────────────────────────────────────────────────

	// SeedRooms creates count rooms numbered from first, but only when the
	// room table is empty. Returns how many rooms were created.
	SeedRooms(ctx context.Context, first, count int) (int, error)

	// EnsureAdmin creates the administrator account if no user with that
	// username exists. Reports whether it was created.
	EnsureAdmin(ctx context.Context, username, passwordHash, fullName string) (bool, error)

	// ── Room allocation ──────────────────────────────────────────────────

	// RegisterStudent creates the student and claims the free room with
	// the lowest number in a single transaction. Fails with
	// types.ErrDuplicateUsername or types.ErrNoVacancy and leaves no
	// student row behind.
	RegisterStudent(ctx context.Context, s types.NewStudent) (types.User, types.Room, error)

	// AssignRoom claims the lowest free room for an existing student who
	// holds none. Fails with ErrNotFound, ErrAlreadyAssigned or ErrNoVacancy.
	AssignRoom(ctx context.Context, studentID int64) (types.Room, error)

	// ReleaseRoom frees the student's room if their balance is <= 0.
	// Fails with ErrNotFound or ErrOutstandingBalance.
	ReleaseRoom(ctx context.Context, studentID int64) (types.Room, error)

	// ListRooms returns every room ordered by number.
	ListRooms(ctx context.Context) ([]types.Room, error)

	// Occupancy counts total and occupied rooms.
	Occupancy(ctx context.Context) (types.Occupancy, error)

	// ── Users ────────────────────────────────────────────────────────────

	// GetUserByID returns any user (student or admin) with its room number.
	GetUserByID(ctx context.Context, id int64) (types.User, error)

	// GetUserByUsername is used by login.
	GetUserByUsername(ctx context.Context, username string) (types.User, error)

	// ListStudents returns every student account, ordered by id.
	ListStudents(ctx context.Context) ([]types.User, error)

	// ── Ledger ───────────────────────────────────────────────────────────

	// ChargeActiveStudents inserts one rent charge per student currently
	// holding a room. Returns how many charges were created.
	ChargeActiveStudents(ctx context.Context, period string, amount types.Money, at time.Time) (int, error)

	// PeriodCharged reports whether any charge exists for the period.
	PeriodCharged(ctx context.Context, period string) (bool, error)

	// AddPayment records a payment for an existing student and refreshes
	// the informational status of their charges.
	AddPayment(ctx context.Context, studentID int64, amount types.Money, at time.Time) (types.Payment, error)

	// Statement returns the student's charges, payments and totals.
	Statement(ctx context.Context, studentID int64) (types.Statement, error)

	// PendingDues lists students whose balance is above zero.
	PendingDues(ctx context.Context) ([]types.Due, error)

	// ── Complaints ───────────────────────────────────────────────────────

	// CreateComplaint stores a new pending complaint.
	CreateComplaint(ctx context.Context, c types.Complaint) (types.Complaint, error)

	// ResolveComplaint marks the complaint resolved. Resolving twice is
	// not an error.
	ResolveComplaint(ctx context.Context, id int64) (types.Complaint, error)

	// ListComplaints returns all complaints, or only one student's when
	// studentID is non-nil. Newest first.
	ListComplaints(ctx context.Context, studentID *int64) ([]types.Complaint, error)
}
