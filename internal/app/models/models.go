package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a capability grant independent of identity.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSeller, RoleBuyer:
		return true
	}
	return false
}

// SelfService reports whether a user may grant this role to themselves.
// Admin is never self-service; it is acquired through bootstrap or an
// existing admin's grant.
func (r Role) SelfService() bool {
	return r == RoleSeller || r == RoleBuyer
}

// RoleSet is the set of roles one user holds. An empty set is a valid
// state (authenticated but roleless).
type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Has reports explicit membership only, without the admin override.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Satisfies is the one authorization predicate used everywhere a route or
// action requires a role: an explicit assignment satisfies it, and admin
// satisfies any requirement.
func (s RoleSet) Satisfies(required Role) bool {
	if s.Has(required) {
		return true
	}
	return s.Has(RoleAdmin)
}

// Slice returns the roles in a stable order for rendering.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s))
	for _, r := range []Role{RoleAdmin, RoleSeller, RoleBuyer} {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// RoleAssignment is a persisted (user, role) fact.
type RoleAssignment struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAuth carries the credential fields needed by the auth domain.
type UserAuth struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is a live authenticated identity recognized by the auth provider.
type Session struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserWithRoles is the admin user-management projection.
type UserWithRoles struct {
	User  UserAuth `json:"user"`
	Roles []Role   `json:"roles"`
}

type VehicleStatus string

const (
	VehicleStatusPending  VehicleStatus = "pending"
	VehicleStatusApproved VehicleStatus = "approved"
	VehicleStatusRejected VehicleStatus = "rejected"
	VehicleStatusSold     VehicleStatus = "sold"
)

// Vehicle is a pre-owned tractor or commercial vehicle listing.
type Vehicle struct {
	ID           uuid.UUID     `json:"id"`
	SellerID     uuid.UUID     `json:"seller_id"`
	Title        string        `json:"title"`
	Make         string        `json:"make"`
	Model        string        `json:"model"`
	Year         int           `json:"year"`
	PriceRupees  int64         `json:"price_rupees"`
	HoursUsed    int           `json:"hours_used"`
	Description  string        `json:"description"`
	Status       VehicleStatus `json:"status"`
	RejectReason string        `json:"reject_reason,omitempty"`
	PhotoKeys    []string      `json:"photo_keys"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// VehicleFilter narrows public browse queries.
type VehicleFilter struct {
	Make     string
	Model    string
	MinPrice int64
	MaxPrice int64
	MinYear  int
	MaxYear  int
	Limit    int
	Offset   int
}

type DocumentKind string

const (
	DocumentKindRC        DocumentKind = "rc"
	DocumentKindInsurance DocumentKind = "insurance"
	DocumentKindPhoto     DocumentKind = "photo"
	DocumentKindOther     DocumentKind = "other"
)

// VehicleDocument is an uploaded file attached to a listing.
type VehicleDocument struct {
	ID          uuid.UUID    `json:"id"`
	VehicleID   uuid.UUID    `json:"vehicle_id"`
	UploaderID  uuid.UUID    `json:"uploader_id"`
	Kind        DocumentKind `json:"kind"`
	StorageKey  string       `json:"storage_key"`
	PublicURL   string       `json:"public_url"`
	ContentType string       `json:"content_type"`
	CreatedAt   time.Time    `json:"created_at"`
}

// CCUpload records a clearance-certificate upload for a vehicle. At most one
// logical record per (vehicle, uploader); duplicate submissions are no-ops.
type CCUpload struct {
	ID         uuid.UUID `json:"id"`
	VehicleID  uuid.UUID `json:"vehicle_id"`
	UploaderID uuid.UUID `json:"uploader_id"`
	StorageKey string    `json:"storage_key"`
	CreatedAt  time.Time `json:"created_at"`
}

type AgreementStatus string

const (
	AgreementStatusDraft  AgreementStatus = "draft"
	AgreementStatusSigned AgreementStatus = "signed"
)

// Agreement is a sale agreement between a buyer and a seller for one vehicle.
type Agreement struct {
	ID          uuid.UUID       `json:"id"`
	VehicleID   uuid.UUID       `json:"vehicle_id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	PriceRupees int64           `json:"price_rupees"`
	Status      AgreementStatus `json:"status"`
	DocumentKey string          `json:"document_key,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BuyerInterest is a buyer raising a hand on a listing.
type BuyerInterest struct {
	ID        uuid.UUID `json:"id"`
	VehicleID uuid.UUID `json:"vehicle_id"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is a per-user message, also pushed over the realtime feed.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// TractorMake and TractorModel are reference catalog rows.
type TractorMake struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type TractorModel struct {
	ID     uuid.UUID `json:"id"`
	MakeID uuid.UUID `json:"make_id"`
	Name   string    `json:"name"`
}

// SearchRecord is one row of search analytics.
type SearchRecord struct {
	ID           uuid.UUID  `json:"id"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	Query        string     `json:"query"`
	MatchedMakes []string   `json:"matched_makes"`
	ResultCount  int        `json:"result_count"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Company content tables, read-only for the public site.
type LeadershipMember struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Position string    `json:"position"`
	PhotoURL string    `json:"photo_url,omitempty"`
	Ordering int       `json:"ordering"`
}

type CompanyAward struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Year     int       `json:"year"`
	Issuer   string    `json:"issuer"`
	PhotoURL string    `json:"photo_url,omitempty"`
}

type BranchLocation struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
	City    string    `json:"city"`
	Phone   string    `json:"phone"`
}

type CompanyInfo struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	About     string    `json:"about"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	UpdatedAt time.Time `json:"updated_at"`
}
