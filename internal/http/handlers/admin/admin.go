// Package admin contains the warden's handlers. The router mounts all of
// them behind middleware.Authenticate(tokens, types.RoleAdmin); the core
// services check the role again, so a mis-wired route still gets 403.
package admin

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/hostel-api/internal/hostel"
	"github.com/aanand-mishra/hostel-api/internal/http/middleware"
	"github.com/aanand-mishra/hostel-api/internal/types"
	"github.com/aanand-mishra/hostel-api/internal/utils/request"
	"github.com/aanand-mishra/hostel-api/internal/utils/response"
)

// AttachmentResolver maps a stored attachment reference to a file on disk.
type AttachmentResolver interface {
	Path(ref string) (string, error)
}

// Dashboard is the admin overview.
type Dashboard struct {
	Occupancy   types.Occupancy   `json:"occupancy"`
	Students    []types.User      `json:"students"`
	Complaints  []types.Complaint `json:"complaints"`
	PendingDues []types.Due       `json:"pending_dues"`
}

// StudentDetails is one student's profile with their ledger.
type StudentDetails struct {
	Profile   types.User      `json:"profile"`
	Statement types.Statement `json:"statement"`
}

func caller(w http.ResponseWriter, r *http.Request) (types.Caller, bool) {
	c, ok := middleware.CallerFrom(r.Context())
	if !ok {
		response.WriteJSON(w, http.StatusUnauthorized,
			response.GeneralError(errors.New("authentication required")))
	}
	return c, ok
}

// ─────────────────────────────────────────────────────────────────────────────
// Overview handles GET /api/admin/dashboard
// ─────────────────────────────────────────────────────────────────────────────
func Overview(svc *hostel.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := caller(w, r)
		if !ok {
			return
		}
		ctx := r.Context()

		occ, err := svc.Allocator.Occupancy(ctx)
		if err != nil {
			log.Error("error reading occupancy", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}
		students, err := svc.Allocator.Students(ctx, c)
		if err != nil {
			response.Error(w, err)
			return
		}
		complaints, err := svc.Complaints.List(ctx, c)
		if err != nil {
			response.Error(w, err)
			return
		}
		dues, err := svc.Ledger.PendingDues(ctx, c)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, Dashboard{
			Occupancy:   occ,
			Students:    students,
			Complaints:  complaints,
			PendingDues: dues,
		})
	}
}

// Rooms handles GET /api/admin/rooms
func Rooms(alloc *hostel.Allocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := caller(w, r)
		if !ok {
			return
		}
		rooms, err := alloc.Rooms(r.Context(), c)
		if err != nil {
			response.Error(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, rooms)
	}
}

// Student handles GET /api/admin/students/{id}
func Student(svc *hostel.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := caller(w, r)
		if !ok {
			return
		}
		id, ok := request.PathID(w, r, "id")
		if !ok {
			return
		}

		profile, err := svc.Allocator.Student(r.Context(), c, id)
		if err != nil {
			response.Error(w, err)
			return
		}
		st, err := svc.Ledger.Statement(r.Context(), c, id)
		if err != nil {
			response.Error(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, StudentDetails{Profile: profile, Statement: st})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// RecordPayment handles POST /api/admin/students/{id}/payments
//
//	{ "amount": 1000 }  or  { "amount": "1000.50" }
//
// Returns 201 with the payment and the student's new balance.
// ─────────────────────────────────────────────────────────────────────────────
func RecordPayment(ledger *hostel.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := caller(w, r)
		if !ok {
			return
		}
		id, ok := request.PathID(w, r, "id")
		if !ok {
			return
		}
		var req types.PaymentRequest
		if !request.DecodeJSON(w, r, &req) {
			return
		}

		p, err := ledger.RecordPayment(r.Context(), c, id, req.Amount)
		if err != nil {
			response.Error(w, err)
			return
		}
		bal, err := ledger.Balance(r.Context(), c, id)
		if err != nil {
			response.Error(w, err)
			return
		}
		response.WriteJSON(w, http.StatusCreated, map[string]any{
			"payment": p,
			"balance": bal,
		})
	}
}

// AssignRoom handles POST /api/admin/students/{id}/room
func AssignRoom(alloc *hostel.Allocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := caller(w, r)
		if !ok {
			return
		}
		id, ok := request.PathID(w, r, "id")
		if !ok {
			return
		}
		room, err := alloc.Assign(r.Context(), c, id)
		if err != nil {
			response.Error(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, room)
	}
}

// Vacate handles POST /api/admin/students/{id}/vacate
func Vacate(alloc *hostel.Allocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := caller(w, r)
		if !ok {
			return
		}
		id, ok := request.PathID(w, r, "id")
		if !ok {
			return
		}
		room, err := alloc.Release(r.Context(), c, id)
		if err != nil {
			response.Error(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, map[string]any{
			"status":      "vacated",
			"room_number": room.Number,
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// AssignRent handles POST /api/admin/rent
//
//	{ "month": "January", "year": 2024, "amount": 3000 }
//
// Charges every student currently holding a room.
//
//	{ "period": "January 2024", "charged": 4 }
//
// ─────────────────────────────────────────────────────────────────────────────
func AssignRent(ledger *hostel.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := caller(w, r)
		if !ok {
			return
		}
		var req types.RentRequest
		if !request.DecodeJSON(w, r, &req) {
			return
		}

		period, err := hostel.Period(req.Month, req.Year)
		if err != nil {
			response.Error(w, err)
			return
		}
		n, err := ledger.AssignChargeToAll(r.Context(), c, period, req.Amount)
		if err != nil {
			response.Error(w, err)
			return
		}
		response.WriteJSON(w, http.StatusCreated, map[string]any{
			"period":  period,
			"charged": n,
		})
	}
}

// ResolveComplaint handles POST /api/admin/complaints/{id}/resolve
func ResolveComplaint(complaints *hostel.Complaints) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := caller(w, r)
		if !ok {
			return
		}
		id, ok := request.PathID(w, r, "id")
		if !ok {
			return
		}
		complaint, err := complaints.Resolve(r.Context(), c, id)
		if err != nil {
			response.Error(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, complaint)
	}
}

// Attachment handles GET /api/admin/attachments/{ref} by streaming the
// stored file.
func Attachment(files AttachmentResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := files.Path(r.PathValue("ref"))
		if err != nil {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("attachment not found")))
			return
		}
		http.ServeFile(w, r, p)
	}
}
