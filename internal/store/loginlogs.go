package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/thepom/thepom/internal/model"
)

// CreateLoginLog appends a login attempt. LoginAt defaults to now.
// Login logs are never updated or deleted.
func (s *Store) CreateLoginLog(ctx context.Context, entry *model.AdminLoginLog) error {
	if entry.LoginAt.IsZero() {
		entry.LoginAt = s.Now()
	}

	const q = `INSERT INTO admin_login_logs (admin_id, success, ip_address, user_agent, login_at)
		VALUES (:admin_id, :success, :ip_address, :user_agent, :login_at)`

	id, err := s.insert(ctx, q, entry)
	if err != nil {
		return fmt.Errorf("insert admin login log: %w", err)
	}
	entry.ID = id
	return nil
}

// ListLoginLogs returns login attempts matching filter, newest first. Each
// entry carries its admin when the admin id resolves.
func (s *Store) ListLoginLogs(ctx context.Context, filter model.LoginLogFilter) ([]model.AdminLoginLog, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.AdminID != nil {
		where = append(where, "admin_id = ?")
		args = append(args, *filter.AdminID)
	}
	if filter.Success != nil {
		where = append(where, "success = ?")
		args = append(args, *filter.Success)
	}

	q := "SELECT * FROM admin_login_logs"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY login_at DESC, id DESC"

	var logs []model.AdminLoginLog
	if err := s.db.SelectContext(ctx, &logs, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list admin login logs: %w", err)
	}

	admins := make(map[int64]*model.Admin)
	for i := range logs {
		if err := s.attachLogAdmin(ctx, &logs[i], admins); err != nil {
			return nil, err
		}
	}
	return logs, nil
}

// GetLoginLog returns a login attempt by ID.
func (s *Store) GetLoginLog(ctx context.Context, id int64) (*model.AdminLoginLog, error) {
	var entry model.AdminLoginLog
	if err := s.db.GetContext(ctx, &entry, s.db.Rebind("SELECT * FROM admin_login_logs WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin login log: %w", err)
	}
	if err := s.attachLogAdmin(ctx, &entry, map[int64]*model.Admin{}); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Store) attachLogAdmin(ctx context.Context, entry *model.AdminLoginLog, cache map[int64]*model.Admin) error {
	if entry.AdminID == 0 {
		return nil
	}
	if a, ok := cache[entry.AdminID]; ok {
		entry.Admin = a
		return nil
	}
	a, err := s.GetAdmin(ctx, entry.AdminID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	cache[entry.AdminID] = a
	entry.Admin = a
	return nil
}
