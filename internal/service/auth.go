package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/thepom/thepom/internal/model"
	"github.com/thepom/thepom/internal/store"
)

// DefaultExpiry is the token lifetime used when none is configured.
const DefaultExpiry = 24 * time.Hour

// bcryptCost matches the cost existing password hashes were created with.
const bcryptCost = 10

// LoginInput is what a client supplies to log in, plus request metadata
// recorded on the session and login log rows.
type LoginInput struct {
	LoginID   string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult is a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Admin     *model.Admin
}

// AuthResult is the identity attached to an authenticated request.
type AuthResult struct {
	Admin   *model.Admin
	AdminID int64
	// Session is nil when the request was trusted on the token alone.
	Session *model.AdminSession
}

// Claims is the payload of an issued token.
type Claims struct {
	AdminID int64  `json:"adminId"`
	LoginID string `json:"loginId"`
	jwt.RegisteredClaims
}

type AuthService struct {
	store     *store.Store
	jwtSecret []byte
	expiry    time.Duration
	logger    *slog.Logger
}

func NewAuthService(st *store.Store, jwtSecret string, expiry time.Duration, logger *slog.Logger) *AuthService {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		store:     st,
		jwtSecret: []byte(jwtSecret),
		expiry:    expiry,
		logger:    logger,
	}
}

// Expiry returns the configured token lifetime.
func (s *AuthService) Expiry() time.Duration {
	return s.expiry
}

// ParseExpiry converts a suffix-coded duration into a time.Duration:
// "12h" hours, "7d" days, "30m" minutes, and a bare number is seconds.
// An empty string yields DefaultExpiry.
func ParseExpiry(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return DefaultExpiry, nil
	}
	unit := time.Second
	num := v
	switch v[len(v)-1] {
	case 'h':
		unit, num = time.Hour, v[:len(v)-1]
	case 'd':
		unit, num = 24*time.Hour, v[:len(v)-1]
	case 'm':
		unit, num = time.Minute, v[:len(v)-1]
	case 's':
		num = v[:len(v)-1]
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid expiry %q: want a positive number with optional h, d, m or s suffix", v)
	}
	return time.Duration(n) * unit, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword reports whether password matches the bcrypt hash.
func ComparePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken creates a signed HS256 token for the admin, valid for ttl.
func (s *AuthService) IssueToken(admin *model.Admin, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		AdminID: admin.ID,
		LoginID: admin.LoginID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies the signature and expiry of a token.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, Unauthorized("Invalid or expired token")
	}
	return claims, nil
}

// Login checks credentials, records the attempt, and opens a new session.
// Any previous session of the admin is removed first so that at most one
// session per admin is live.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if in.LoginID == "" || in.Password == "" {
		return nil, BadRequest("Login ID and password are required")
	}

	admin, err := s.store.GetAdminByLoginID(ctx, in.LoginID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		if err := s.recordLogin(ctx, 0, false, in); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}
	if admin.IsDeleted() {
		if err := s.recordLogin(ctx, admin.ID, false, in); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	if !ComparePassword(admin.PasswordHash, in.Password) {
		if err := s.recordLogin(ctx, admin.ID, false, in); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.IssueToken(admin, s.expiry)
	if err != nil {
		return nil, err
	}

	// Delete-then-insert is not atomic; two concurrent logins may briefly
	// leave two rows until the next login.
	err = s.optional(ctx, "delete existing sessions", func(ctx context.Context) error {
		_, err := s.store.DeleteSessionsByAdmin(ctx, admin.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.optional(ctx, "create session", func(ctx context.Context) error {
		return s.store.CreateSession(ctx, &model.AdminSession{
			AdminID:   admin.ID,
			Token:     token,
			IPAddress: in.IPAddress,
			UserAgent: in.UserAgent,
			ExpiresAt: expiresAt,
		})
	})
	if err != nil {
		return nil, err
	}

	if err := s.recordLogin(ctx, admin.ID, true, in); err != nil {
		return nil, err
	}

	s.logger.Info("admin logged in", "admin_id", admin.ID, "login_id", admin.LoginID, "ip", in.IPAddress)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Admin: admin}, nil
}

func (s *AuthService) recordLogin(ctx context.Context, adminID int64, success bool, in LoginInput) error {
	err := s.store.CreateLoginLog(ctx, &model.AdminLoginLog{
		AdminID:   adminID,
		Success:   success,
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
	})
	if err != nil {
		return fmt.Errorf("record login attempt: %w", err)
	}
	return nil
}

// Logout removes the session row holding token. A token with no session
// row, or an empty token, is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.optional(ctx, "delete session", func(ctx context.Context) error {
		_, err := s.store.DeleteSessionsByToken(ctx, token)
		return err
	})
}

// Authenticate resolves a token to an admin. When a session row exists it
// must be unexpired and belong to the token's admin. When no row exists,
// either because the admin_sessions table is absent or because the token
// was issued without one, the token alone is trusted.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*AuthResult, error) {
	if token == "" {
		return nil, Unauthorized("No token provided")
	}
	claims, err := s.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	var sess *model.AdminSession
	err = s.optional(ctx, "lookup session", func(ctx context.Context) error {
		found, err := s.store.GetSessionByToken(ctx, token)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		sess = found
		return err
	})
	if err != nil {
		return nil, err
	}

	if sess == nil {
		admin, err := s.activeAdmin(ctx, claims.AdminID)
		if err != nil {
			return nil, err
		}
		return &AuthResult{Admin: admin, AdminID: claims.AdminID}, nil
	}

	now := s.store.Now()
	if sess.Expired(now) {
		s.bestEffort(ctx, "delete expired session", func(ctx context.Context) error {
			_, err := s.store.DeleteSessionsByToken(ctx, token)
			return err
		})
		return nil, Unauthorized("Session expired")
	}
	if sess.AdminID != claims.AdminID {
		return nil, Unauthorized("Session and token mismatch")
	}

	admin, err := s.activeAdmin(ctx, sess.AdminID)
	if err != nil {
		return nil, err
	}

	s.bestEffort(ctx, "touch session", func(ctx context.Context) error {
		return s.store.TouchSession(ctx, sess.ID, now)
	})
	sess.LastAccessedAt = now

	return &AuthResult{Admin: admin, AdminID: claims.AdminID, Session: sess}, nil
}

func (s *AuthService) activeAdmin(ctx context.Context, id int64) (*model.Admin, error) {
	admin, err := s.store.GetAdmin(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, Unauthorized("Admin not found")
	}
	if err != nil {
		return nil, err
	}
	if admin.IsDeleted() {
		return nil, Unauthorized("Admin not found")
	}
	return admin, nil
}

// optional runs fn against the session store. A missing admin_sessions
// table is logged and ignored; every other error is returned.
func (s *AuthService) optional(ctx context.Context, op string, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil {
		return nil
	}
	if store.IsTableMissing(err) {
		s.logger.Warn("admin_sessions table not found, session management disabled", "op", op)
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// bestEffort runs a side effect whose failure must not fail the request.
func (s *AuthService) bestEffort(ctx context.Context, op string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		s.logger.Warn("session side effect failed", "op", op, "error", err)
	}
}
