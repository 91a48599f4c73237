package model

import "time"

// AdminType is the privilege tier of an admin account.
type AdminType string

const (
	AdminTypeSystem AdminType = "SYSTEM"
	AdminTypeNormal AdminType = "NORMAL"
)

// Valid reports whether t is one of the known tiers.
func (t AdminType) Valid() bool {
	return t == AdminTypeSystem || t == AdminTypeNormal
}

// ReservedLoginID is the root account created by `thepom admin seed`. Only
// SYSTEM admins may modify or delete it, and its type is pinned to SYSTEM.
const ReservedLoginID = "admin"

// Admin is a staff user with backend access. Passwords are stored as bcrypt
// hashes. A non-nil DeletedAt hides the account from authentication and
// lookups without removing the row.
type Admin struct {
	ID           int64      `json:"id" db:"id"`
	LoginID      string     `json:"loginId" db:"login_id"`
	PasswordHash string     `json:"-" db:"password_hash"` // bcrypt hash, never expose
	Name         string     `json:"name" db:"name"`
	AdminType    AdminType  `json:"adminType" db:"admin_type"`
	MemberID     *int64     `json:"memberId" db:"member_id"`
	Member       *Member    `json:"member" db:"-"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// IsDeleted reports whether the admin has been soft-deleted.
func (a *Admin) IsDeleted() bool {
	return a.DeletedAt != nil
}

// IsSystem reports whether the admin belongs to the SYSTEM tier.
func (a *Admin) IsSystem() bool {
	return a.AdminType == AdminTypeSystem
}

// PublicAdmin is the projection of an admin returned by login and /admin/me.
type PublicAdmin struct {
	ID        int64     `json:"id"`
	LoginID   string    `json:"loginId"`
	Name      string    `json:"name"`
	AdminType AdminType `json:"adminType"`
	Member    *Member   `json:"member"`
}

// Public returns the public projection of a.
func (a *Admin) Public() PublicAdmin {
	return PublicAdmin{
		ID:        a.ID,
		LoginID:   a.LoginID,
		Name:      a.Name,
		AdminType: a.AdminType,
		Member:    a.Member,
	}
}

// Member is the troupe member profile an admin account can be linked to.
// Only the fields needed for the admin projection are modelled here.
type Member struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
