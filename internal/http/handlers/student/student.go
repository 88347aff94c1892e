// Package student contains the handlers a logged-in student uses: their
// dashboard, vacating, and complaints.
//
// Every route here sits behind middleware.Authenticate, so the caller is
// always on the request context.
package student

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/aanand-mishra/hostel-api/internal/filestore"
	"github.com/aanand-mishra/hostel-api/internal/hostel"
	"github.com/aanand-mishra/hostel-api/internal/http/middleware"
	"github.com/aanand-mishra/hostel-api/internal/types"
	"github.com/aanand-mishra/hostel-api/internal/utils/request"
	"github.com/aanand-mishra/hostel-api/internal/utils/response"
)

// Uploader stores complaint attachments and hands back a reference.
type Uploader interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Delete(ref string) error
}

// Dashboard is the student's home view.
type Dashboard struct {
	Profile    types.User        `json:"profile"`
	Statement  types.Statement   `json:"statement"`
	Complaints []types.Complaint `json:"complaints"`
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
// Me handles GET /api/me
// Returns the profile (with room number), ledger statement, and own
// complaints.
// ─────────────────────────────────────────────────────────────────────────────
func Me(svc *hostel.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := caller(w, r)
		if !ok {
			return
		}

		profile, err := svc.Allocator.Student(r.Context(), c, c.UserID)
		if err != nil {
			response.Error(w, err)
			return
		}
		st, err := svc.Ledger.Statement(r.Context(), c, c.UserID)
		if err != nil {
			log.Error("error loading statement", slog.Int64("student_id", c.UserID), slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}
		complaints, err := svc.Complaints.List(r.Context(), c)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, Dashboard{
			Profile:    profile,
			Statement:  st,
			Complaints: complaints,
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Vacate handles POST /api/me/vacate
//
//	200 OK        { "status": "vacated", "room_number": 101 }
//	409 Conflict  balance still above zero
//	404 Not Found the student holds no room
//
// ─────────────────────────────────────────────────────────────────────────────
func Vacate(alloc *hostel.Allocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := caller(w, r)
		if !ok {
			return
		}

		room, err := alloc.Release(r.Context(), c, c.UserID)
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
// RaiseComplaint handles POST /api/me/complaints
//
// Accepts either a JSON body { "title": ..., "description": ... } or a
// multipart form with fields title, description and an optional "image"
// file. The file goes to the Uploader; only its reference is stored.
// ─────────────────────────────────────────────────────────────────────────────
func RaiseComplaint(complaints *hostel.Complaints, files Uploader, maxBytes int64, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := caller(w, r)
		if !ok {
			return
		}

		var (
			req types.ComplaintRequest
			ref string
		)

		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType == "multipart/form-data" {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			if err := r.ParseMultipartForm(maxBytes); err != nil {
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
				return
			}
			req.Title = r.FormValue("title")
			req.Description = r.FormValue("description")
			if !request.Validate(w, &req) {
				return
			}

			file, header, err := r.FormFile("image")
			switch {
			case errors.Is(err, http.ErrMissingFile):
			case err != nil:
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
				return
			default:
				defer file.Close()
				ref, err = files.Save(r.Context(), header.Filename, file)
				if err != nil {
					if errors.Is(err, filestore.ErrUnsupportedType) {
						response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
						return
					}
					log.Error("error saving attachment", slog.String("error", err.Error()))
					response.Error(w, err)
					return
				}
			}
		} else if !request.DecodeJSON(w, r, &req) {
			return
		}

		complaint, err := complaints.Raise(r.Context(), c, req.Title, req.Description, ref)
		if err != nil {
			if ref != "" {
				if delErr := files.Delete(ref); delErr != nil {
					log.Warn("orphan attachment", slog.String("ref", ref), slog.String("error", delErr.Error()))
				}
			}
			response.Error(w, err)
			return
		}

		response.WriteJSON(w, http.StatusCreated, complaint)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// MyComplaints handles GET /api/me/complaints
// ─────────────────────────────────────────────────────────────────────────────
func MyComplaints(complaints *hostel.Complaints) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := caller(w, r)
		if !ok {
			return
		}
		list, err := complaints.List(r.Context(), c)
		if err != nil {
			response.Error(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, list)
	}
}
