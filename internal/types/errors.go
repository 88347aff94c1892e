package types

import "errors"

// Error kinds surfaced by the core. Storage and service code wrap these
// with an operation prefix; callers test for them with errors.Is.
var (
	// ErrNoVacancy: registration or assignment attempted with zero free rooms.
	ErrNoVacancy = errors.New("no rooms available in hostel")

	// ErrOutstandingBalance: vacate attempted while the balance is above zero.
	ErrOutstandingBalance = errors.New("outstanding balance must be cleared before vacating")

	// ErrInvalidAmount: a payment or charge amount that is zero or negative.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrNotFound: the student, room, or complaint does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateUsername: registration with a username that is taken.
	ErrDuplicateUsername = errors.New("username taken")

	// ErrAlreadyAssigned: room assignment for a student who already has one.
	ErrAlreadyAssigned = errors.New("student already has a room")

	// ErrForbidden: the caller's role does not allow the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput: a required field is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredentials: unknown username or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
