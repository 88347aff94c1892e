// Package router builds the HTTP route table.
//
// Route table:
//
//	GET  /api/vacancy                         public
//	POST /api/auth/register                   public
//	POST /api/auth/login                      public
//	GET  /api/me                              student
//	POST /api/me/vacate                       student
//	POST /api/me/complaints                   student
//	GET  /api/me/complaints                   student
//	GET  /api/admin/dashboard                 admin
//	GET  /api/admin/rooms                     admin
//	GET  /api/admin/students/{id}             admin
//	POST /api/admin/students/{id}/payments    admin
//	POST /api/admin/students/{id}/room        admin
//	POST /api/admin/students/{id}/vacate      admin
//	POST /api/admin/rent                      admin
//	POST /api/admin/complaints/{id}/resolve   admin
//	GET  /api/admin/attachments/{ref}         admin
package router

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/hostel-api/internal/hostel"
	"github.com/aanand-mishra/hostel-api/internal/http/handlers/account"
	"github.com/aanand-mishra/hostel-api/internal/http/handlers/admin"
	"github.com/aanand-mishra/hostel-api/internal/http/handlers/student"
	"github.com/aanand-mishra/hostel-api/internal/http/middleware"
	"github.com/aanand-mishra/hostel-api/internal/types"
)

// Files is the attachment store as the handlers see it.
type Files interface {
	student.Uploader
	admin.AttachmentResolver
}

// Tokens issues and verifies session tokens.
type Tokens interface {
	account.TokenIssuer
	middleware.TokenParser
}

// Deps is everything the routes need.
type Deps struct {
	Service        *hostel.Service
	Users          account.UserFinder
	Tokens         Tokens
	Files          Files
	MaxUploadBytes int64
	Log            *slog.Logger
}

// New returns the complete handler, wrapped in request logging.
func New(d Deps) http.Handler {
	mux := http.NewServeMux()
	svc, log := d.Service, d.Log

	studentOnly := middleware.Authenticate(d.Tokens, types.RoleStudent)
	adminOnly := middleware.Authenticate(d.Tokens, types.RoleAdmin)

	mux.HandleFunc("GET /api/vacancy", account.Vacancy(svc.Allocator, log))
	mux.HandleFunc("POST /api/auth/register", account.Register(svc.Allocator, log))
	mux.HandleFunc("POST /api/auth/login", account.Login(d.Users, d.Tokens, log))

	mux.Handle("GET /api/me", studentOnly(student.Me(svc, log)))
	mux.Handle("POST /api/me/vacate", studentOnly(student.Vacate(svc.Allocator)))
	mux.Handle("POST /api/me/complaints", studentOnly(student.RaiseComplaint(svc.Complaints, d.Files, d.MaxUploadBytes, log)))
	mux.Handle("GET /api/me/complaints", studentOnly(student.MyComplaints(svc.Complaints)))

	mux.Handle("GET /api/admin/dashboard", adminOnly(admin.Overview(svc, log)))
	mux.Handle("GET /api/admin/rooms", adminOnly(admin.Rooms(svc.Allocator)))
	mux.Handle("GET /api/admin/students/{id}", adminOnly(admin.Student(svc)))
	mux.Handle("POST /api/admin/students/{id}/payments", adminOnly(admin.RecordPayment(svc.Ledger)))
	mux.Handle("POST /api/admin/students/{id}/room", adminOnly(admin.AssignRoom(svc.Allocator)))
	mux.Handle("POST /api/admin/students/{id}/vacate", adminOnly(admin.Vacate(svc.Allocator)))
	mux.Handle("POST /api/admin/rent", adminOnly(admin.AssignRent(svc.Ledger)))
	mux.Handle("POST /api/admin/complaints/{id}/resolve", adminOnly(admin.ResolveComplaint(svc.Complaints)))
	mux.Handle("GET /api/admin/attachments/{ref}", adminOnly(admin.Attachment(d.Files)))

	return middleware.Logger(log)(mux)
}
