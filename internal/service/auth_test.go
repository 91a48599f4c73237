package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/thepom/thepom/internal/model"
	"github.com/thepom/thepom/internal/store"
)

const testSecret = "test-secret-key-for-jwt"

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestAuth(t *testing.T, opts ...store.Option) (*AuthService, *store.Store) {
	t.Helper()
	st, err := store.Open("", opts...)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewAuthService(st, testSecret, time.Hour, discard), st
}

func createAdmin(t *testing.T, st *store.Store, loginID, password string, typ model.AdminType) *model.Admin {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin := &model.Admin{LoginID: loginID, PasswordHash: hash, Name: "Test " + loginID, AdminType: typ}
	if err := st.CreateAdmin(context.Background(), admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	return admin
}

func login(loginID, password string) LoginInput {
	return LoginInput{LoginID: loginID, Password: password, IPAddress: "203.0.113.7", UserAgent: "go-test"}
}

func assertStatusErr(t *testing.T, err error, want int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", want)
	}
	if got := StatusOf(err); got != want {
		t.Fatalf("status = %d, want %d (err: %v)", got, want, err)
	}
}

func TestParseExpiry(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 24 * time.Hour},
		{"24h", 24 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"30m", 30 * time.Minute},
		{"3600", time.Hour},
		{"90s", 90 * time.Second},
	}
	for _, tt := range tests {
		got, err := ParseExpiry(tt.in)
		if err != nil {
			t.Errorf("ParseExpiry(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseExpiry(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"abc", "h", "-5h", "0"} {
		if _, err := ParseExpiry(bad); err == nil {
			t.Errorf("ParseExpiry(%q): expected error", bad)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash equals plaintext")
	}
	if !ComparePassword(hash, "s3cret") {
		t.Error("ComparePassword rejected the right password")
	}
	if ComparePassword(hash, "wrong") {
		t.Error("ComparePassword accepted a wrong password")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	auth, _ := newTestAuth(t)

	token, expiresAt, err := auth.IssueToken(&model.Admin{ID: 42, LoginID: "kim"}, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if time.Until(expiresAt) < 59*time.Minute {
		t.Errorf("expiresAt too early: %v", expiresAt)
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.AdminID != 42 || claims.LoginID != "kim" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	auth, _ := newTestAuth(t)

	expired, _, err := auth.IssueToken(&model.Admin{ID: 1, LoginID: "x"}, -time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	other := NewAuthService(nil, "a-different-secret", time.Hour, discard)
	foreign, _, _ := other.IssueToken(&model.Admin{ID: 1, LoginID: "x"}, time.Hour)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{AdminID: 1})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, tok := range map[string]string{
		"expired":      expired,
		"wrong secret": foreign,
		"garbage":      "garbage.token.here",
		"alg none":     unsigned,
	} {
		if _, err := auth.ValidateToken(tok); StatusOf(err) != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %v", name, err)
		}
	}
}

func TestLoginCreatesSingleSession(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()
	admin := createAdmin(t, st, "kim", "pw", model.AdminTypeNormal)

	first, err := auth.Login(ctx, login("kim", "pw"))
	if err != nil {
		t.Fatalf("first Login: %v", err)
	}
	second, err := auth.Login(ctx, login("kim", "pw"))
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if first.Token == second.Token {
		t.Fatal("expected distinct tokens per login")
	}

	sessions, err := st.ListSessionsByAdmin(ctx, admin.ID)
	if err != nil {
		t.Fatalf("ListSessionsByAdmin: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want exactly 1", len(sessions))
	}
	if sessions[0].Token != second.Token {
		t.Error("surviving session should hold the latest token")
	}
	if sessions[0].IPAddress != "203.0.113.7" || sessions[0].UserAgent != "go-test" {
		t.Errorf("session metadata not recorded: %+v", sessions[0])
	}

	// The first token no longer has a session row, so it falls back to
	// token-only trust.
	if _, err := auth.Authenticate(ctx, first.Token); err != nil {
		t.Errorf("Authenticate(first token): %v", err)
	}

	logs, _ := st.ListLoginLogs(ctx, model.LoginLogFilter{AdminID: &admin.ID})
	if len(logs) != 2 || !logs[0].Success || !logs[1].Success {
		t.Errorf("expected two success log rows, got %+v", logs)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()
	admin := createAdmin(t, st, "kim", "pw", model.AdminTypeNormal)

	res, err := auth.Login(ctx, login("kim", "nope"))
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if res != nil {
		t.Fatal("expected no result on failure")
	}

	logs, _ := st.ListLoginLogs(ctx, model.LoginLogFilter{})
	if len(logs) != 1 {
		t.Fatalf("got %d log rows, want 1", len(logs))
	}
	if logs[0].AdminID != admin.ID || logs[0].Success {
		t.Errorf("failure log = %+v, want admin %d and success=false", logs[0], admin.ID)
	}

	sessions, _ := st.ListSessionsByAdmin(ctx, admin.ID)
	if len(sessions) != 0 {
		t.Errorf("expected no session after failed login, got %d", len(sessions))
	}
}

func TestLoginUnknownAdmin(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()

	_, err := auth.Login(ctx, login("ghost", "pw"))
	assertStatusErr(t, err, http.StatusUnauthorized)

	logs, _ := st.ListLoginLogs(ctx, model.LoginLogFilter{})
	if len(logs) != 1 || logs[0].AdminID != 0 || logs[0].Success {
		t.Errorf("expected one failure row with admin id 0, got %+v", logs)
	}
}

func TestLoginDeletedAdmin(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()
	admin := createAdmin(t, st, "gone", "pw", model.AdminTypeNormal)
	if err := st.SoftDeleteAdmin(ctx, admin.ID); err != nil {
		t.Fatalf("SoftDeleteAdmin: %v", err)
	}

	_, err := auth.Login(ctx, login("gone", "pw"))
	assertStatusErr(t, err, http.StatusUnauthorized)
}

func TestLoginMissingFields(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()

	for _, in := range []LoginInput{login("", "pw"), login("kim", ""), {}} {
		_, err := auth.Login(ctx, in)
		assertStatusErr(t, err, http.StatusBadRequest)
	}

	logs, _ := st.ListLoginLogs(ctx, model.LoginLogFilter{})
	if len(logs) != 0 {
		t.Errorf("bad requests must not be logged, got %d rows", len(logs))
	}
}

func TestAuthenticateWithSession(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()
	admin := createAdmin(t, st, "kim", "pw", model.AdminTypeSystem)

	res, err := auth.Login(ctx, login("kim", "pw"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	got, err := auth.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.AdminID != admin.ID || got.Admin.LoginID != "kim" {
		t.Errorf("unexpected result %+v", got)
	}
	if got.Session == nil {
		t.Error("expected the session path to be taken")
	}
}

func TestAuthenticateExpiredSession(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()
	admin := createAdmin(t, st, "kim", "pw", model.AdminTypeNormal)

	token, _, err := auth.IssueToken(admin, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	// Token still valid, but the session row has lapsed.
	if err := st.CreateSession(ctx, &model.AdminSession{
		AdminID:   admin.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(-time.Minute),
	}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	_, err = auth.Authenticate(ctx, token)
	assertStatusErr(t, err, http.StatusUnauthorized)
	if err.Error() != "Session expired" {
		t.Errorf("message = %q, want %q", err.Error(), "Session expired")
	}

	if _, err := st.GetSessionByToken(ctx, token); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expired session row should be deleted, got %v", err)
	}
}

func TestAuthenticateSessionMismatch(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()
	kim := createAdmin(t, st, "kim", "pw", model.AdminTypeNormal)
	lee := createAdmin(t, st, "lee", "pw", model.AdminTypeNormal)

	token, _, _ := auth.IssueToken(kim, time.Hour)
	st.CreateSession(ctx, &model.AdminSession{AdminID: lee.ID, Token: token, ExpiresAt: time.Now().Add(time.Hour)})

	_, err := auth.Authenticate(ctx, token)
	assertStatusErr(t, err, http.StatusUnauthorized)
	if err.Error() != "Session and token mismatch" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestAuthenticateDeletedAdmin(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()
	admin := createAdmin(t, st, "kim", "pw", model.AdminTypeNormal)

	res, err := auth.Login(ctx, login("kim", "pw"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := st.SoftDeleteAdmin(ctx, admin.ID); err != nil {
		t.Fatalf("SoftDeleteAdmin: %v", err)
	}

	_, err = auth.Authenticate(ctx, res.Token)
	assertStatusErr(t, err, http.StatusUnauthorized)
}

func TestAuthenticateNoToken(t *testing.T) {
	auth, _ := newTestAuth(t)
	_, err := auth.Authenticate(context.Background(), "")
	assertStatusErr(t, err, http.StatusUnauthorized)
}

func TestSessionTableAbsent(t *testing.T) {
	auth, st := newTestAuth(t, store.WithoutSessionTable())
	ctx := context.Background()
	admin := createAdmin(t, st, "kim", "pw", model.AdminTypeNormal)

	res, err := auth.Login(ctx, login("kim", "pw"))
	if err != nil {
		t.Fatalf("Login without session table: %v", err)
	}

	got, err := auth.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("Authenticate without session table: %v", err)
	}
	if got.AdminID != admin.ID || got.Session != nil {
		t.Errorf("expected token-only trust, got %+v", got)
	}

	if err := auth.Logout(ctx, res.Token); err != nil {
		t.Errorf("Logout without session table: %v", err)
	}

	if err := st.SoftDeleteAdmin(ctx, admin.ID); err != nil {
		t.Fatalf("SoftDeleteAdmin: %v", err)
	}
	_, err = auth.Authenticate(ctx, res.Token)
	assertStatusErr(t, err, http.StatusUnauthorized)
}

func TestLogout(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()
	admin := createAdmin(t, st, "kim", "pw", model.AdminTypeNormal)

	res, err := auth.Login(ctx, login("kim", "pw"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := auth.Logout(ctx, res.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	sessions, _ := st.ListSessionsByAdmin(ctx, admin.ID)
	if len(sessions) != 0 {
		t.Errorf("expected session row removed, got %d", len(sessions))
	}

	// Logging out twice, or with no token at all, is fine.
	if err := auth.Logout(ctx, res.Token); err != nil {
		t.Errorf("second Logout: %v", err)
	}
	if err := auth.Logout(ctx, ""); err != nil {
		t.Errorf("Logout with empty token: %v", err)
	}
}
