// Package account contains the public handlers: vacancy check,
// registration, and login.
//
// Each exported function is a FACTORY: it receives its dependencies once
// at startup and returns the http.HandlerFunc the router calls on every
// request.
//
//	router.HandleFunc("POST /api/auth/register", account.Register(svc.Allocator, log))
package account

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aanand-mishra/hostel-api/internal/auth"
	"github.com/aanand-mishra/hostel-api/internal/hostel"
	"github.com/aanand-mishra/hostel-api/internal/types"
	"github.com/aanand-mishra/hostel-api/internal/utils/request"
	"github.com/aanand-mishra/hostel-api/internal/utils/response"
)

// UserFinder looks up an account for login.
type UserFinder interface {
	GetUserByUsername(ctx context.Context, username string) (types.User, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(user types.User) (string, time.Time, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Vacancy handles GET /api/vacancy
//
//	{ "has_vacancy": true }
//
// Room counts are on the admin dashboard only.
//
// ─────────────────────────────────────────────────────────────────────────────
func Vacancy(alloc *hostel.Allocator, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vacant, err := alloc.HasVacancy(r.Context())
		if err != nil {
			log.Error("error checking vacancy", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, map[string]any{
			"has_vacancy": vacant,
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Register handles POST /api/auth/register
//
// Request body:
//
//	{ "username": "asha", "password": "secret1", "full_name": "Asha Rao", "phone": "9876543210" }
//
// Success response (201 Created):
//
//	{ "id": 2, "room_number": 101 }
//
// Error responses:
//
//	400 Bad Request  empty body, malformed JSON, failed validation, or a
//	                 password over 72 bytes
//	409 Conflict     username taken, or no rooms available
//
// ─────────────────────────────────────────────────────────────────────────────
func Register(alloc *hostel.Allocator, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.RegisterRequest
		if !request.DecodeJSON(w, r, &req) {
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			if !errors.Is(err, types.ErrInvalidInput) {
				log.Error("error hashing password", slog.String("error", err.Error()))
			}
			response.Error(w, err)
			return
		}

		user, room, err := alloc.Register(r.Context(), types.NewStudent{
			Username:     req.Username,
			PasswordHash: hash,
			FullName:     req.FullName,
			Phone:        req.Phone,
		})
		if err != nil {
			response.Error(w, err)
			return
		}

		response.WriteJSON(w, http.StatusCreated, map[string]any{
			"id":          user.ID,
			"room_number": room.Number,
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Login handles POST /api/auth/login
//
//	{ "token": "eyJ...", "expires_at": "...", "role": "student" }
//
// Unknown usernames and wrong passwords get the same 401 so the response
// does not reveal which accounts exist.
// ─────────────────────────────────────────────────────────────────────────────
func Login(users UserFinder, tokens TokenIssuer, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.LoginRequest
		if !request.DecodeJSON(w, r, &req) {
			return
		}

		user, err := users.GetUserByUsername(r.Context(), req.Username)
		if err != nil && !errors.Is(err, types.ErrNotFound) {
			log.Error("error loading user", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}
		// On a miss user is zero, and CheckPassword burns the same bcrypt
		// time on its decoy hash.
		match := auth.CheckPassword(user.PasswordHash, req.Password)
		if err != nil || !match {
			log.Info("login failed", slog.String("username", req.Username))
			response.Error(w, types.ErrInvalidCredentials)
			return
		}

		token, exp, err := tokens.Issue(user)
		if err != nil {
			log.Error("error issuing token", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		log.Info("logged in", slog.Int64("user_id", user.ID), slog.String("role", string(user.Role)))
		response.WriteJSON(w, http.StatusOK, map[string]any{
			"token":      token,
			"expires_at": exp.UTC(),
			"role":       user.Role,
		})
	}
}
