package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/vaahanlabs/pitstop/internal/shared/domain"
	"github.com/vaahanlabs/pitstop/pkg/shortid"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("invalid user role")
	ErrNotAMechanic = errors.New("user is not a mechanic")
)

// Role distinguishes the kinds of accounts on the platform.
type Role string

const (
	RoleUser     Role = "user"
	RoleMember   Role = "member"
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleCompany  Role = "company"
	RoleMechanic Role = "mechanic"
)

// codePrefixes maps each role to its human-readable id prefix.
var codePrefixes = map[Role]string{
	RoleUser:     "USR",
	RoleMember:   "MMB",
	RoleAdmin:    "ADM",
	RoleEmployee: "EMP",
	RoleCompany:  "CMP",
	RoleMechanic: "RDR",
}

// Segment is the customer pricing segment the user belongs to.
type Segment string

const (
	SegmentB2B Segment = "b2b"
	SegmentB2C Segment = "b2c"
)

// User is a platform account: customer, rider or staff.
type User struct {
	domain.BaseAggregateRoot
	code    string
	name    string
	phone   string
	email   string
	role    Role
	segment Segment
	orders  []uuid.UUID
}

// NewUser creates a new user with a role-prefixed short code.
func NewUser(name, phone, email string, role Role, segment Segment) (*User, error) {
	prefix, ok := codePrefixes[role]
	if !ok {
		return nil, ErrInvalidRole
	}
	if segment == "" {
		segment = SegmentB2C
	}
	return &User{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		code:              shortid.New(prefix),
		name:              strings.TrimSpace(name),
		phone:             phone,
		email:             email,
		role:              role,
		segment:           segment,
		orders:            make([]uuid.UUID, 0),
	}, nil
}

// RehydrateUser recreates a user from persisted state.
func RehydrateUser(
	entity domain.BaseEntity,
	code, name, phone, email string,
	role Role,
	segment Segment,
	orders []uuid.UUID,
) *User {
	return &User{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(entity),
		code:              code,
		name:              name,
		phone:             phone,
		email:             email,
		role:              role,
		segment:           segment,
		orders:            orders,
	}
}

func (u *User) Code() string        { return u.code }
func (u *User) Name() string        { return u.name }
func (u *User) Phone() string       { return u.phone }
func (u *User) Email() string       { return u.email }
func (u *User) Role() Role          { return u.role }
func (u *User) Segment() Segment    { return u.segment }
func (u *User) Orders() []uuid.UUID { return u.orders }

// IsMechanic reports whether the user can accept and fulfil orders.
// Mechanics keep the historical "RDR" (rider) code prefix.
func (u *User) IsMechanic() bool { return u.role == RoleMechanic }

// IsCustomer reports whether the account can buy plans and place orders.
func (u *User) IsCustomer() bool {
	switch u.role {
	case RoleUser, RoleMember, RoleCompany:
		return true
	}
	return false
}
