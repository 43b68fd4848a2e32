// Package domain contains user accounts and login sessions.
package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Role orders privileges from resident (lowest) to admin. The numeric values
// are the role ids clients already send.
type Role int

const (
	RoleResident Role = 1
	RoleStaff    Role = 2
	RoleManager  Role = 3
	RoleAdmin    Role = 4
)

var roleNames = map[Role]string{
	RoleResident: "resident",
	RoleStaff:    "staff",
	RoleManager:  "manager",
	RoleAdmin:    "admin",
}

// Roles lists every role from lowest to highest.
func Roles() []Role {
	return []Role{RoleResident, RoleStaff, RoleManager, RoleAdmin}
}

func (r Role) String() string {
	return roleNames[r]
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole accepts a role name or its numeric id.
func ParseRole(value string) (Role, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if id, err := strconv.Atoi(value); err == nil {
		role := Role(id)
		return role, role.Valid()
	}
	for role, name := range roleNames {
		if name == value {
			return role, true
		}
	}
	return 0, false
}

type User struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	Username     string       `gorm:"type:varchar(64);not null;uniqueIndex:ux_users_username"`
	Email        string       `gorm:"type:varchar(255)"`
	PasswordHash string       `gorm:"type:varchar(255);not null"`
	Role         Role         `gorm:"not null;default:1"`
	CreatedAt    time.Time    `gorm:"not null"`
	UpdatedAt    time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Session is a persisted login. Only the sha256 of the token is stored.
type Session struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"not null;index"`
	TokenHash string       `gorm:"type:char(64);not null;uniqueIndex:ux_user_sessions_token_hash"`
	ExpiresAt time.Time    `gorm:"not null"`
	RevokedAt *time.Time   `gorm:"column:revoked_at"`
	CreatedAt time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "user_sessions" }

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    snowflake.ID
	Username  string
	Role      Role
	SessionID snowflake.ID
}
