package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAdminTypeValid(t *testing.T) {
	tests := []struct {
		in   AdminType
		want bool
	}{
		{AdminTypeSystem, true},
		{AdminTypeNormal, true},
		{"", false},
		{"system", false},
		{"ROOT", false},
	}
	for _, tt := range tests {
		if got := tt.in.Valid(); got != tt.want {
			t.Errorf("AdminType(%q).Valid() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAdminFlags(t *testing.T) {
	now := time.Now()
	a := &Admin{AdminType: AdminTypeSystem}
	if !a.IsSystem() {
		t.Error("SYSTEM admin should report IsSystem")
	}
	if a.IsDeleted() {
		t.Error("admin without DeletedAt should not be deleted")
	}

	a.AdminType = AdminTypeNormal
	a.DeletedAt = &now
	if a.IsSystem() {
		t.Error("NORMAL admin should not report IsSystem")
	}
	if !a.IsDeleted() {
		t.Error("admin with DeletedAt should be deleted")
	}
}

func TestAdminPasswordHashNotInJSON(t *testing.T) {
	memberID := int64(7)
	admin := Admin{
		ID:           1,
		LoginID:      "admin",
		PasswordHash: "$2a$10$somebcrypthash",
		Name:         "Admin User",
		AdminType:    AdminTypeSystem,
		MemberID:     &memberID,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	b, err := json.Marshal(admin)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	for _, key := range []string{"password", "passwordHash", "password_hash", "PasswordHash"} {
		if _, ok := m[key]; ok {
			t.Errorf("%s should NOT appear in JSON output", key)
		}
	}
	if _, ok := m["deletedAt"]; ok {
		t.Error("deletedAt should be omitted when nil")
	}
	if m["loginId"] != "admin" {
		t.Errorf("loginId = %v, want admin", m["loginId"])
	}
	if m["memberId"] != float64(7) {
		t.Errorf("memberId = %v, want 7", m["memberId"])
	}
}

func TestAdminPublic(t *testing.T) {
	member := &Member{ID: 3, Name: "Kim"}
	admin := &Admin{
		ID:           5,
		LoginID:      "kim",
		PasswordHash: "hash",
		Name:         "Kim",
		AdminType:    AdminTypeNormal,
		Member:       member,
	}

	pub := admin.Public()
	if pub.ID != 5 || pub.LoginID != "kim" || pub.Name != "Kim" || pub.AdminType != AdminTypeNormal {
		t.Errorf("Public() = %+v", pub)
	}
	if pub.Member != member {
		t.Error("Public() should carry the member")
	}

	b, err := json.Marshal(pub)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if len(m) != 5 {
		t.Errorf("public admin has %d keys, want 5: %v", len(m), m)
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := &AdminSession{ExpiresAt: now}

	if s.Expired(now) {
		t.Error("session should still be valid at exactly its expiry")
	}
	if !s.Expired(now.Add(time.Second)) {
		t.Error("session should be expired after its expiry")
	}
	if s.Expired(now.Add(-time.Hour)) {
		t.Error("session should be valid before its expiry")
	}
}

func TestSessionTokenNotInJSON(t *testing.T) {
	b, err := json.Marshal(AdminSession{ID: 1, Token: "secret-token"})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if _, ok := m["token"]; ok {
		t.Error("token should NOT appear in JSON output")
	}
}

func TestErrorResponseJSON(t *testing.T) {
	b, err := json.Marshal(ErrorResponse{Error: "Invalid credentials"})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if got, want := string(b), `{"success":false,"error":"Invalid credentials"}`; got != want {
		t.Errorf("ErrorResponse JSON = %s, want %s", got, want)
	}

	b, err = json.Marshal(ErrorResponse{Error: "boom", Stack: "goroutine 1"})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if m["stack"] != "goroutine 1" {
		t.Errorf("stack = %v, want goroutine 1", m["stack"])
	}
}
