package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountRole is the account's platform-wide role
type AccountRole = string

const (
	// RoleStudent is a tutored account (i.e. join groups, attend meetings)
	RoleStudent AccountRole = "student"
	// RoleParent is a guardian account following one or more students
	RoleParent AccountRole = "parent"
	// RoleAdmin is a platform operator
	RoleAdmin AccountRole = "admin"
)

// Account is the account model
type Account struct {
	bun.BaseModel  `bun:"table:accounts,alias:acc"`
	ID             uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           AccountRole `bun:"role,notnull" json:"role,omitempty"`
	Username       string      `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string      `bun:"email,notnull,unique" json:"email,omitempty"`
	FullName       string      `bun:"full_name,notnull" json:"full_name,omitempty"`
	Phone          string      `bun:"phone" json:"phone,omitempty"`
	School         string      `bun:"school" json:"school,omitempty"`
	DateOfBirth    *time.Time  `bun:"dob,nullzero" json:"dob,omitempty"`
	ImageURL       string      `bun:"image_url" json:"image_url,omitempty"`
	PasswordHash   string      `bun:"password_hash" json:"-"`
	LoginAttempts  int         `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time  `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time  `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time  `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}
