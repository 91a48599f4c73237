package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/thepom/thepom/internal/model"
	"github.com/thepom/thepom/internal/store"
)

// CreateAdminInput holds the fields accepted when registering an admin.
type CreateAdminInput struct {
	LoginID  string
	Password string
	Name     string
	MemberID *int64
	// System creates a SYSTEM admin. Only the CLI sets it; the HTTP API
	// always registers NORMAL admins.
	System bool
}

// UpdateAdminInput holds a partial update. Nil and empty fields are left
// unchanged; ClearMember unlinks the member.
type UpdateAdminInput struct {
	Name        string
	AdminType   model.AdminType
	MemberID    *int64
	ClearMember bool
	Password    string
}

// AdminService manages admin accounts and reads login logs.
type AdminService struct {
	store  *store.Store
	logger *slog.Logger
}

func NewAdminService(st *store.Store, logger *slog.Logger) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{store: st, logger: logger}
}

// Get returns a live admin, or a 404 error when it is absent or deleted.
func (s *AdminService) Get(ctx context.Context, id int64) (*model.Admin, error) {
	admin, err := s.store.GetAdmin(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && admin.IsDeleted()) {
		return nil, NotFound("Admin not found")
	}
	return admin, err
}

// List returns all live admins.
func (s *AdminService) List(ctx context.Context) ([]model.Admin, error) {
	return s.store.ListAdmins(ctx)
}

// Create registers an admin with a bcrypt-hashed password.
func (s *AdminService) Create(ctx context.Context, in CreateAdminInput) (*model.Admin, error) {
	in.LoginID = strings.TrimSpace(in.LoginID)
	if in.LoginID == "" || in.Password == "" || strings.TrimSpace(in.Name) == "" {
		return nil, BadRequest("Login ID, password, and name are required")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	admin := &model.Admin{
		LoginID:      in.LoginID,
		PasswordHash: hash,
		Name:         in.Name,
		AdminType:    model.AdminTypeNormal,
		MemberID:     in.MemberID,
	}
	if in.System {
		admin.AdminType = model.AdminTypeSystem
	}

	if err := s.store.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, Conflict("Login ID already exists")
		}
		return nil, err
	}
	s.logger.Info("admin created", "admin_id", admin.ID, "login_id", admin.LoginID, "admin_type", admin.AdminType)
	return admin, nil
}

// Update applies a partial update on behalf of actor. The reserved admin
// account may only be changed by a SYSTEM admin and must stay SYSTEM.
func (s *AdminService) Update(ctx context.Context, actor *model.Admin, id int64, in UpdateAdminInput) (*model.Admin, error) {
	if actor == nil {
		return nil, Unauthorized("Current admin not found")
	}
	target, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.LoginID == model.ReservedLoginID && !actor.IsSystem() {
		return nil, Forbidden("Only system administrators can modify the admin account")
	}

	if in.Name != "" {
		target.Name = in.Name
	}
	if in.AdminType != "" {
		if !in.AdminType.Valid() {
			return nil, BadRequest(fmt.Sprintf("Invalid admin type %q", in.AdminType))
		}
		if target.LoginID == model.ReservedLoginID && in.AdminType != model.AdminTypeSystem {
			return nil, BadRequest("Cannot change admin account type")
		}
		target.AdminType = in.AdminType
	}
	switch {
	case in.ClearMember:
		target.MemberID = nil
	case in.MemberID != nil:
		target.MemberID = in.MemberID
	}
	if in.Password != "" {
		hash, err := HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		target.PasswordHash = hash
	}

	if err := s.store.UpdateAdmin(ctx, target); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFound("Admin not found")
		}
		return nil, err
	}
	return s.store.GetAdmin(ctx, id)
}

// Delete soft-deletes an admin on behalf of actor. Sessions of the deleted
// admin stop authenticating because verification rejects deleted admins.
func (s *AdminService) Delete(ctx context.Context, actor *model.Admin, id int64) error {
	if actor == nil {
		return Unauthorized("Current admin not found")
	}
	target, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if target.LoginID == model.ReservedLoginID && !actor.IsSystem() {
		return Forbidden("Only system administrators can delete the admin account")
	}
	if err := s.store.SoftDeleteAdmin(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound("Admin not found")
		}
		return err
	}
	s.logger.Info("admin deleted", "admin_id", id, "by", actor.ID)
	return nil
}

// Seed creates the reserved SYSTEM admin if it does not exist yet. It
// reports whether an account was created.
func (s *AdminService) Seed(ctx context.Context, password, name string) (*model.Admin, bool, error) {
	existing, err := s.store.GetAdminByLoginID(ctx, model.ReservedLoginID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}
	if name == "" {
		name = "System Administrator"
	}
	admin, err := s.Create(ctx, CreateAdminInput{
		LoginID:  model.ReservedLoginID,
		Password: password,
		Name:     name,
		System:   true,
	})
	if err != nil {
		return nil, false, err
	}
	return admin, true, nil
}

// LoginLogs lists login attempts, newest first.
func (s *AdminService) LoginLogs(ctx context.Context, filter model.LoginLogFilter) ([]model.AdminLoginLog, error) {
	return s.store.ListLoginLogs(ctx, filter)
}

// LoginLog returns a single login attempt.
func (s *AdminService) LoginLog(ctx context.Context, id int64) (*model.AdminLoginLog, error) {
	entry, err := s.store.GetLoginLog(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("Admin login log not found")
	}
	return entry, err
}
