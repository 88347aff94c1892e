// Package types holds all shared data structures (models) used across
// the application. Handlers, services and storage all import
// types without depending on each other.
package types

import "time"

// Role distinguishes the two kinds of account in the hostel.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// Caller is the identity the session layer attaches to every core call.
// The core never sees credentials, only who is asking and in which role.
type Caller struct {
	UserID int64
	Role   Role
}

// IsAdmin reports whether the caller acts as an administrator.
func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// CanActFor reports whether the caller may read or change the records
// of the given student: admins may act for anyone, students only for
// themselves.
func (c Caller) CanActFor(studentID int64) bool {
	return c.IsAdmin() || (c.Role == RoleStudent && c.UserID == studentID)
}

// Room is one bed-space in the fixed pool created at startup.
//
// Occupied is true iff StudentID is set. The pair is only ever written
// by the room allocator inside a single transaction.
type Room struct {
	ID        int64  `json:"id"`
	Number    int    `json:"number"`
	Occupied  bool   `json:"occupied"`
	StudentID *int64 `json:"student_id,omitempty"`
}

// User is an account. Students and the administrator share one table;
// Role tells them apart.
//
// RoomNumber is derived from rooms.student_id when the user is loaded.
// It is never stored on the user row, so the occupancy link has exactly
// one authoritative side.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	FullName     string `json:"full_name"`
	Phone        string `json:"phone,omitempty"`
	RoomNumber   *int   `json:"room_number,omitempty"`
}

// NewStudent carries what storage needs to create a student account.
// The password is already hashed.
type NewStudent struct {
	Username     string
	PasswordHash string
	FullName     string
	Phone        string
}

// ChargeStatus is informational only: the amount a student owes is always
// derived from the ledger totals, never from these flags.
type ChargeStatus string

const (
	ChargePending ChargeStatus = "pending"
	ChargePaid    ChargeStatus = "paid"
)

// RentCharge is one billing-period charge against a student.
type RentCharge struct {
	ID        int64        `json:"id"`
	Period    string       `json:"period"`
	Amount    Money        `json:"amount"`
	Status    ChargeStatus `json:"status"`
	StudentID int64        `json:"student_id"`
	CreatedAt time.Time    `json:"created_at"`
}

// Payment is money received from a student, recorded by an administrator.
type Payment struct {
	ID        int64     `json:"id"`
	Amount    Money     `json:"amount"`
	PaidAt    time.Time `json:"paid_at"`
	StudentID int64     `json:"student_id"`
}

// Statement is a student's full ledger: every charge and payment plus the
// totals derived from them.
type Statement struct {
	StudentID    int64        `json:"student_id"`
	Charges      []RentCharge `json:"charges"`
	Payments     []Payment    `json:"payments"`
	TotalCharged Money        `json:"total_charged"`
	TotalPaid    Money        `json:"total_paid"`
	Balance      Money        `json:"balance"`
}

// NewStatement builds a Statement and computes its totals.
// Balance = TotalCharged - TotalPaid; a negative balance means overpaid.
func NewStatement(studentID int64, charges []RentCharge, payments []Payment) Statement {
	st := Statement{
		StudentID: studentID,
		Charges:   charges,
		Payments:  payments,
	}
	if st.Charges == nil {
		st.Charges = make([]RentCharge, 0)
	}
	if st.Payments == nil {
		st.Payments = make([]Payment, 0)
	}
	for _, c := range st.Charges {
		st.TotalCharged += c.Amount
	}
	for _, p := range st.Payments {
		st.TotalPaid += p.Amount
	}
	st.Balance = st.TotalCharged - st.TotalPaid
	return st
}

// Due is one line of the administrator's pending-dues list.
type Due struct {
	StudentID  int64  `json:"student_id"`
	FullName   string `json:"full_name"`
	RoomNumber *int   `json:"room_number,omitempty"`
	Amount     Money  `json:"amount"`
}

// ComplaintStatus moves one way only: pending -> resolved.
type ComplaintStatus string

const (
	ComplaintPending  ComplaintStatus = "pending"
	ComplaintResolved ComplaintStatus = "resolved"
)

// Complaint is a maintenance request raised by a student.
type Complaint struct {
	ID            int64           `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	AttachmentRef string          `json:"attachment_ref,omitempty"`
	Status        ComplaintStatus `json:"status"`
	StudentID     int64           `json:"student_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Occupancy summarises the room pool.
type Occupancy struct {
	Total    int `json:"total"`
	Occupied int `json:"occupied"`
}

// Free returns the number of unoccupied rooms.
func (o Occupancy) Free() int { return o.Total - o.Occupied }
