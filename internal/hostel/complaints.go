package hostel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aanand-mishra/hostel-api/internal/storage"
	"github.com/aanand-mishra/hostel-api/internal/types"
)

// Complaints records maintenance requests and their resolution.
type Complaints struct {
	store storage.Storage
	log   *slog.Logger
	now   func() time.Time
}

// Raise files a pending complaint for the calling student. attachmentRef
// is the opaque reference returned by file storage, or "".
func (c *Complaints) Raise(ctx context.Context, caller types.Caller, title, description, attachmentRef string) (types.Complaint, error) {
	if caller.Role != types.RoleStudent {
		return types.Complaint{}, fmt.Errorf("Raise: %w", types.ErrForbidden)
	}
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return types.Complaint{}, fmt.Errorf("Raise: title and description: %w", types.ErrInvalidInput)
	}

	complaint, err := c.store.CreateComplaint(ctx, types.Complaint{
		Title:         title,
		Description:   description,
		AttachmentRef: attachmentRef,
		StudentID:     caller.UserID,
		CreatedAt:     c.now(),
	})
	if err != nil {
		return types.Complaint{}, err
	}

	c.log.Info("complaint raised",
		slog.Int64("complaint_id", complaint.ID),
		slog.Int64("student_id", caller.UserID))
	return complaint, nil
}

// Resolve marks a complaint resolved. Admin only. Resolving an already
// resolved complaint succeeds and changes nothing; there is no reopen.
func (c *Complaints) Resolve(ctx context.Context, caller types.Caller, id int64) (types.Complaint, error) {
	if !caller.IsAdmin() {
		return types.Complaint{}, fmt.Errorf("Resolve: %w", types.ErrForbidden)
	}

	complaint, err := c.store.ResolveComplaint(ctx, id)
	if err != nil {
		return types.Complaint{}, err
	}

	c.log.Info("complaint resolved", slog.Int64("complaint_id", id))
	return complaint, nil
}

// List returns every complaint for an admin, or the caller's own for a
// student.
func (c *Complaints) List(ctx context.Context, caller types.Caller) ([]types.Complaint, error) {
	switch caller.Role {
	case types.RoleAdmin:
		return c.store.ListComplaints(ctx, nil)
	case types.RoleStudent:
		id := caller.UserID
		return c.store.ListComplaints(ctx, &id)
	default:
		return nil, fmt.Errorf("List: %w", types.ErrForbidden)
	}
}
