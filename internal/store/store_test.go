package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thepom/thepom/internal/model"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open("", opts...) // in-memory
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedAdmin(t *testing.T, s *Store, loginID string) *model.Admin {
	t.Helper()
	a := &model.Admin{
		LoginID:      loginID,
		PasswordHash: "hash",
		Name:         "Admin " + loginID,
		AdminType:    model.AdminTypeNormal,
	}
	if err := s.CreateAdmin(context.Background(), a); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	return a
}

func TestParseDatabaseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		dialect Dialect
		dsn     string
	}{
		{"empty", "", DialectSQLite, ":memory:"},
		{"memory", ":memory:", DialectSQLite, ":memory:"},
		{"sqlite memory scheme", "sqlite::memory:", DialectSQLite, ":memory:"},
		{"postgres", "postgres://u:p@localhost:5432/thepom", DialectPostgres, "postgres://u:p@localhost:5432/thepom"},
		{"postgresql", "postgresql://u:p@db/thepom", DialectPostgres, "postgresql://u:p@db/thepom"},
		{"mysql url", "mysql://root:secret@db:3306/thepom", DialectMySQL, "root:secret@tcp(db:3306)/thepom?parseTime=true"},
		{"mysql url default port", "mysql://root:secret@db/thepom", DialectMySQL, "root:secret@tcp(db:3306)/thepom?parseTime=true"},
		{"mysql native", "root:secret@tcp(db:3306)/thepom", DialectMySQL, "root:secret@tcp(db:3306)/thepom?parseTime=true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, dsn, err := ParseDatabaseURL(tt.raw)
			if err != nil {
				t.Fatalf("ParseDatabaseURL(%q): %v", tt.raw, err)
			}
			if d != tt.dialect {
				t.Errorf("dialect = %q, want %q", d, tt.dialect)
			}
			if dsn != tt.dsn {
				t.Errorf("dsn = %q, want %q", dsn, tt.dsn)
			}
		})
	}
}

func TestParseDatabaseURLUnsupported(t *testing.T) {
	if _, _, err := ParseDatabaseURL("redis://localhost:6379"); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}

func TestAdminCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	member := &model.Member{Name: "Kim", Phone: "010-1234-5678"}
	if err := s.CreateMember(ctx, member); err != nil {
		t.Fatalf("CreateMember: %v", err)
	}

	admin := &model.Admin{
		LoginID:      "kim",
		PasswordHash: "hash",
		Name:         "Kim",
		MemberID:     &member.ID,
	}
	if err := s.CreateAdmin(ctx, admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if admin.ID == 0 {
		t.Fatal("expected non-zero ID after create")
	}
	if admin.AdminType != model.AdminTypeNormal {
		t.Errorf("AdminType = %q, want NORMAL default", admin.AdminType)
	}

	got, err := s.GetAdminByLoginID(ctx, "kim")
	if err != nil {
		t.Fatalf("GetAdminByLoginID: %v", err)
	}
	if got.ID != admin.ID {
		t.Errorf("ID = %d, want %d", got.ID, admin.ID)
	}
	if got.Member == nil || got.Member.Name != "Kim" {
		t.Errorf("expected linked member to be loaded, got %+v", got.Member)
	}

	got.Name = "Kim Updated"
	got.AdminType = model.AdminTypeSystem
	if err := s.UpdateAdmin(ctx, got); err != nil {
		t.Fatalf("UpdateAdmin: %v", err)
	}
	again, _ := s.GetAdmin(ctx, admin.ID)
	if again.Name != "Kim Updated" || again.AdminType != model.AdminTypeSystem {
		t.Errorf("update not persisted: %+v", again)
	}

	if err := s.SoftDeleteAdmin(ctx, admin.ID); err != nil {
		t.Fatalf("SoftDeleteAdmin: %v", err)
	}
	deleted, err := s.GetAdmin(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetAdmin after soft delete: %v", err)
	}
	if !deleted.IsDeleted() {
		t.Error("expected DeletedAt to be set")
	}
	if err := s.SoftDeleteAdmin(ctx, admin.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second SoftDeleteAdmin: expected ErrNotFound, got %v", err)
	}

	list, err := s.ListAdmins(ctx)
	if err != nil {
		t.Fatalf("ListAdmins: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("ListAdmins returned %d admins, want 0 (soft-deleted hidden)", len(list))
	}
}

func TestCreateAdminDuplicateLoginID(t *testing.T) {
	s := newTestStore(t)
	seedAdmin(t, s, "dup")

	err := s.CreateAdmin(context.Background(), &model.Admin{LoginID: "dup", PasswordHash: "x", Name: "Dup"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestGetAdminNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetAdmin(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	admin := seedAdmin(t, s, "sess")

	sess := &model.AdminSession{
		AdminID:   admin.ID,
		Token:     "token-1",
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSessionByToken(ctx, "token-1")
	if err != nil {
		t.Fatalf("GetSessionByToken: %v", err)
	}
	if got.AdminID != admin.ID || got.IPAddress != "10.0.0.1" {
		t.Errorf("unexpected session %+v", got)
	}

	later := time.Now().Add(10 * time.Minute)
	if err := s.TouchSession(ctx, got.ID, later); err != nil {
		t.Fatalf("TouchSession: %v", err)
	}
	touched, _ := s.GetSessionByToken(ctx, "token-1")
	if !touched.LastAccessedAt.After(got.LastAccessedAt) {
		t.Errorf("LastAccessedAt not advanced: %v -> %v", got.LastAccessedAt, touched.LastAccessedAt)
	}

	n, err := s.DeleteSessionsByToken(ctx, "token-1")
	if err != nil {
		t.Fatalf("DeleteSessionsByToken: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d rows, want 1", n)
	}
	if _, err := s.GetSessionByToken(ctx, "token-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	n, err = s.DeleteSessionsByToken(ctx, "token-1")
	if err != nil || n != 0 {
		t.Errorf("deleting a missing token: n=%d err=%v, want 0 and nil", n, err)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	admin := seedAdmin(t, s, "sweep")
	now := time.Now()

	for i, exp := range []time.Time{now.Add(-2 * time.Hour), now.Add(-time.Minute), now.Add(time.Hour)} {
		sess := &model.AdminSession{AdminID: admin.ID, Token: string(rune('a' + i)), ExpiresAt: exp}
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatalf("CreateSession %d: %v", i, err)
		}
	}

	n, err := s.DeleteExpiredSessions(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}

	left, err := s.ListSessionsByAdmin(ctx, admin.ID)
	if err != nil {
		t.Fatalf("ListSessionsByAdmin: %v", err)
	}
	if len(left) != 1 || left[0].Token != "c" {
		t.Errorf("expected only the live session to remain, got %+v", left)
	}
}

func TestDeleteSessionsByAdmin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := seedAdmin(t, s, "a")
	b := seedAdmin(t, s, "b")

	exp := time.Now().Add(time.Hour)
	s.CreateSession(ctx, &model.AdminSession{AdminID: a.ID, Token: "a1", ExpiresAt: exp})
	s.CreateSession(ctx, &model.AdminSession{AdminID: a.ID, Token: "a2", ExpiresAt: exp})
	s.CreateSession(ctx, &model.AdminSession{AdminID: b.ID, Token: "b1", ExpiresAt: exp})

	n, err := s.DeleteSessionsByAdmin(ctx, a.ID)
	if err != nil {
		t.Fatalf("DeleteSessionsByAdmin: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}
	if _, err := s.GetSessionByToken(ctx, "b1"); err != nil {
		t.Errorf("other admin's session should survive: %v", err)
	}
}

func TestSessionTableMissing(t *testing.T) {
	s := newTestStore(t, WithoutSessionTable())
	ctx := context.Background()

	exists, err := s.SessionTableExists(ctx)
	if err != nil {
		t.Fatalf("SessionTableExists: %v", err)
	}
	if exists {
		t.Fatal("expected admin_sessions to be absent")
	}

	_, err = s.GetSessionByToken(ctx, "anything")
	if err == nil {
		t.Fatal("expected error querying a missing table")
	}
	if !IsTableMissing(err) {
		t.Errorf("IsTableMissing(%v) = false, want true", err)
	}
	if !IsDatabaseError(err) {
		t.Errorf("IsDatabaseError(%v) = false, want true", err)
	}

	_, err = s.DeleteExpiredSessions(ctx, time.Now())
	if !IsTableMissing(err) {
		t.Errorf("DeleteExpiredSessions: expected table-missing error, got %v", err)
	}
}

func TestSessionTableExists(t *testing.T) {
	s := newTestStore(t)
	exists, err := s.SessionTableExists(context.Background())
	if err != nil {
		t.Fatalf("SessionTableExists: %v", err)
	}
	if !exists {
		t.Error("expected admin_sessions to exist after migration")
	}
}

func TestIsTableMissingIgnoresOtherErrors(t *testing.T) {
	if IsTableMissing(nil) {
		t.Error("IsTableMissing(nil) = true")
	}
	if IsTableMissing(context.Canceled) {
		t.Error("IsTableMissing(context.Canceled) = true")
	}
	if IsDatabaseError(context.Canceled) {
		t.Error("IsDatabaseError(context.Canceled) = true")
	}
}

func TestLoginLogs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	admin := seedAdmin(t, s, "logme")

	base := time.Now().Add(-time.Hour)
	entries := []model.AdminLoginLog{
		{AdminID: 0, Success: false, IPAddress: "1.1.1.1", UserAgent: "ua", LoginAt: base},
		{AdminID: admin.ID, Success: false, IPAddress: "1.1.1.1", UserAgent: "ua", LoginAt: base.Add(time.Minute)},
		{AdminID: admin.ID, Success: true, IPAddress: "1.1.1.1", UserAgent: "ua", LoginAt: base.Add(2 * time.Minute)},
	}
	for i := range entries {
		if err := s.CreateLoginLog(ctx, &entries[i]); err != nil {
			t.Fatalf("CreateLoginLog: %v", err)
		}
	}

	all, err := s.ListLoginLogs(ctx, model.LoginLogFilter{})
	if err != nil {
		t.Fatalf("ListLoginLogs: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d logs, want 3", len(all))
	}
	if !all[0].Success || all[0].Admin == nil || all[0].Admin.LoginID != "logme" {
		t.Errorf("expected newest (successful) entry first with admin attached, got %+v", all[0])
	}
	if all[2].AdminID != 0 || all[2].Admin != nil {
		t.Errorf("expected sentinel entry last without admin, got %+v", all[2])
	}

	failed := false
	onlyFailed, err := s.ListLoginLogs(ctx, model.LoginLogFilter{AdminID: &admin.ID, Success: &failed})
	if err != nil {
		t.Fatalf("ListLoginLogs filtered: %v", err)
	}
	if len(onlyFailed) != 1 || onlyFailed[0].ID != entries[1].ID {
		t.Errorf("filtered logs = %+v, want only entry %d", onlyFailed, entries[1].ID)
	}

	got, err := s.GetLoginLog(ctx, entries[0].ID)
	if err != nil {
		t.Fatalf("GetLoginLog: %v", err)
	}
	if got.IPAddress != "1.1.1.1" {
		t.Errorf("IPAddress = %q", got.IPAddress)
	}
	if _, err := s.GetLoginLog(ctx, 12345); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
