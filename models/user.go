package models

import "time"

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleEditor UserRole = "editor"
	RoleViewer UserRole = "viewer"
)

// Permission: строковое имя права доступа.
type Permission string

const (
	PermAdminister Permission = "administer tournament entities"
	PermView       Permission = "view tournament entities"
	PermManage     Permission = "manage tournament entities"
	PermDelete     Permission = "delete tournament entities"
	PermAdd        Permission = "add tournament entities"
)

var rolePermissions = map[UserRole][]Permission{
	RoleAdmin:  {PermAdminister},
	RoleEditor: {PermView, PermAdd, PermManage, PermDelete},
	RoleViewer: {PermView},
}

// IsValid reports whether the role is one of the known roles.
func (r UserRole) IsValid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permissions returns the permissions granted by the role.
func (r UserRole) Permissions() []Permission {
	return rolePermissions[r]
}

type User struct {
	ID           int       `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Account is the identity an access check is made for. The zero value is the
// anonymous account.
type Account struct {
	UserID      int
	Role        UserRole
	permissions map[Permission]bool
}

// NewAccount builds an account with the permissions of role plus extra.
func NewAccount(userID int, role UserRole, extra ...Permission) Account {
	perms := make(map[Permission]bool)
	for _, p := range role.Permissions() {
		perms[p] = true
	}
	for _, p := range extra {
		perms[p] = true
	}
	return Account{UserID: userID, Role: role, permissions: perms}
}

// AnonymousAccount returns the account used for requests without a token.
func AnonymousAccount(perms ...Permission) Account {
	return NewAccount(0, "", perms...)
}

func (a Account) IsAuthenticated() bool {
	return a.UserID > 0
}

func (a Account) HasPermission(p Permission) bool {
	return a.permissions[p]
}
