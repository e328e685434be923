package entities

import (
	"strings"
	"time"
)

// Role is the access role of a user
type Role string

const (
	RoleConsumer           Role = "consumer"
	RolePrintManager       Role = "print_manager"
	RoleDeptManager        Role = "dept_manager"
	RoleDeptEmployee       Role = "dept_employee"
	RoleTrainingSupervisor Role = "training_supervisor"
	RoleInventory          Role = "inventory"

	// Legacy roles still present in older data.
	RoleAdmin     Role = "admin"
	RoleApprover  Role = "approver"
	RoleStaff     Role = "staff"
	RoleRequester Role = "requester"
)

var allRoles = []Role{
	RoleConsumer, RolePrintManager, RoleDeptManager, RoleDeptEmployee,
	RoleTrainingSupervisor, RoleInventory, RoleAdmin, RoleApprover, RoleStaff, RoleRequester,
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole converts a string into a Role
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if !r.Valid() {
		return "", invalidf("unknown role %q", s)
	}
	return r, nil
}

// StaffRoles are notified when a new request arrives.
var StaffRoles = []Role{RolePrintManager, RoleDeptManager, RoleDeptEmployee, RoleAdmin, RoleApprover}

// User is an account of the print center
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Department   string    `json:"department,omitempty"`
	OrgUnitID    string    `json:"org_unit_id,omitempty"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	IsSuperuser  bool      `json:"is_superuser"`
	PasswordHash string    `json:"password_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser creates a validated active User
func NewUser(email, fullName string, role Role, now time.Time) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, invalidf("email is required")
	}
	if !strings.Contains(email, "@") {
		return nil, invalidf("email %q is not valid", email)
	}
	if role == "" {
		role = RoleConsumer
	}
	if !role.Valid() {
		return nil, invalidf("unknown role %q", role)
	}

	return &User{
		ID:        NewID(),
		Email:     email,
		FullName:  strings.TrimSpace(fullName),
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NormalizeEmail trims and lower-cases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DisplayName returns the full name, or the email when no name is set
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// HasRole reports whether the user holds any of the given roles
func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin covers print managers, legacy admins and superusers.
func (u *User) IsAdmin() bool {
	return u.HasRole(RolePrintManager, RoleAdmin) || u.IsSuperuser
}

func (u *User) IsPrintManager() bool {
	return u.Role == RolePrintManager || u.IsSuperuser
}

func (u *User) IsApprover() bool {
	return u.HasRole(RoleApprover, RolePrintManager)
}

func (u *User) IsDeptManager() bool { return u.Role == RoleDeptManager }

func (u *User) IsDeptEmployee() bool { return u.Role == RoleDeptEmployee }

func (u *User) IsTrainingSupervisor() bool { return u.Role == RoleTrainingSupervisor }

func (u *User) IsConsumer() bool { return u.Role == RoleConsumer }
