package model

import "time"

// AdminSession binds one issued token to one admin. At most one live row
// exists per admin: login deletes the admin's rows before inserting a new one.
type AdminSession struct {
	ID             int64     `json:"id" db:"id"`
	AdminID        int64     `json:"adminId" db:"admin_id"`
	Token          string    `json:"-" db:"token"`
	IPAddress      string    `json:"ipAddress" db:"ip_address"`
	UserAgent      string    `json:"userAgent" db:"user_agent"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	LastAccessedAt time.Time `json:"lastAccessedAt" db:"last_accessed_at"`
	ExpiresAt      time.Time `json:"expiresAt" db:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *AdminSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// AdminLoginLog is an append-only audit row, one per login attempt.
// AdminID is 0 when the login id did not resolve to an admin.
type AdminLoginLog struct {
	ID        int64     `json:"id" db:"id"`
	AdminID   int64     `json:"adminId" db:"admin_id"`
	Success   bool      `json:"success" db:"success"`
	IPAddress string    `json:"ipAddress" db:"ip_address"`
	UserAgent string    `json:"userAgent" db:"user_agent"`
	LoginAt   time.Time `json:"loginAt" db:"login_at"`
	Admin     *Admin    `json:"admin" db:"-"`
}

// LoginLogFilter narrows a login log listing. Nil fields are not applied.
type LoginLogFilter struct {
	AdminID *int64
	Success *bool
}
