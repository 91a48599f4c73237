package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/thepom/thepom/internal/model"
)

// ---------------------------------------------------------------------------
// Admin CRUD
// ---------------------------------------------------------------------------

// CreateAdmin inserts a new admin account. The ID, CreatedAt, and UpdatedAt
// fields are populated after a successful insert. A duplicate login id
// returns ErrConflict.
func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	now := s.Now()
	admin.CreatedAt = now
	admin.UpdatedAt = now
	if admin.AdminType == "" {
		admin.AdminType = model.AdminTypeNormal
	}

	const q = `INSERT INTO admins
		(login_id, password_hash, name, admin_type, member_id, created_at, updated_at)
		VALUES
		(:login_id, :password_hash, :name, :admin_type, :member_id, :created_at, :updated_at)`

	id, err := s.insert(ctx, q, admin)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	admin.ID = id
	return s.loadMember(ctx, admin)
}

// GetAdmin returns an admin by ID, including soft-deleted rows. Callers
// decide whether a deleted admin is visible.
func (s *Store) GetAdmin(ctx context.Context, id int64) (*model.Admin, error) {
	return s.getAdmin(ctx, "SELECT * FROM admins WHERE id = ?", id)
}

// GetAdminByLoginID returns an admin by its unique login id, including
// soft-deleted rows.
func (s *Store) GetAdminByLoginID(ctx context.Context, loginID string) (*model.Admin, error) {
	return s.getAdmin(ctx, "SELECT * FROM admins WHERE login_id = ?", loginID)
}

func (s *Store) getAdmin(ctx context.Context, q string, arg interface{}) (*model.Admin, error) {
	var admin model.Admin
	if err := s.db.GetContext(ctx, &admin, s.db.Rebind(q), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if err := s.loadMember(ctx, &admin); err != nil {
		return nil, err
	}
	return &admin, nil
}

// ListAdmins returns all admins that have not been soft-deleted.
func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	var admins []model.Admin
	if err := s.db.SelectContext(ctx, &admins,
		"SELECT * FROM admins WHERE deleted_at IS NULL ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	for i := range admins {
		if err := s.loadMember(ctx, &admins[i]); err != nil {
			return nil, err
		}
	}
	return admins, nil
}

// UpdateAdmin writes name, type, member link and password hash of an
// existing admin. The UpdatedAt field is refreshed automatically.
func (s *Store) UpdateAdmin(ctx context.Context, admin *model.Admin) error {
	admin.UpdatedAt = s.Now()

	const q = `UPDATE admins SET
		name = :name, admin_type = :admin_type, member_id = :member_id,
		password_hash = :password_hash, updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, admin)
	if err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update admin rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return s.loadMember(ctx, admin)
}

// SoftDeleteAdmin stamps deleted_at on an admin that is not already deleted.
func (s *Store) SoftDeleteAdmin(ctx context.Context, id int64) error {
	now := s.Now()
	n, err := s.exec(ctx,
		"UPDATE admins SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL", now, now, id)
	if err != nil {
		return fmt.Errorf("soft delete admin: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// loadMember attaches the linked member profile, if any. A dangling member
// id leaves Member nil.
func (s *Store) loadMember(ctx context.Context, admin *model.Admin) error {
	admin.Member = nil
	if admin.MemberID == nil {
		return nil
	}
	m, err := s.GetMember(ctx, *admin.MemberID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	admin.Member = m
	return nil
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

// CreateMember inserts a member profile.
func (s *Store) CreateMember(ctx context.Context, m *model.Member) error {
	m.CreatedAt = s.Now()

	const q = `INSERT INTO members (name, phone, email, created_at)
		VALUES (:name, :phone, :email, :created_at)`

	id, err := s.insert(ctx, q, m)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	m.ID = id
	return nil
}

// GetMember returns a member by ID.
func (s *Store) GetMember(ctx context.Context, id int64) (*model.Member, error) {
	var m model.Member
	if err := s.db.GetContext(ctx, &m, s.db.Rebind("SELECT * FROM members WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &m, nil
}
