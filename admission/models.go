package admission

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// State is the lifecycle state of an invite or join request
type State = string

const (
	// StatePending is the initial state of every invite and request
	StatePending State = "pending"
	// StateAccepted is terminal; accepting materializes a membership
	StateAccepted State = "accepted"
	// StateRejected is terminal; rejecting has no membership side effect
	StateRejected State = "rejected"
)

// Outcome is a resolution decision for a pending invite or request
type Outcome = string

const (
	OutcomeAccept Outcome = "accept"
	OutcomeReject Outcome = "reject"
)

// MemberRole distinguishes the group leader from regular members
type MemberRole = string

const (
	MemberRoleLeader MemberRole = "leader"
	MemberRoleMember MemberRole = "member"
)

// Group is a named study group
type Group struct {
	bun.BaseModel `bun:"table:groups,alias:grp"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	CreatedBy     uuid.UUID  `bun:"created_by,notnull,type:uuid" json:"created_by,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// GroupMember is the account x group join entity. The (account_id, group_id)
// pair is unique: an account never holds two membership rows for one group.
type GroupMember struct {
	bun.BaseModel `bun:"table:group_members,alias:gm"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     uuid.UUID  `bun:"account_id,notnull,type:uuid" json:"account_id,omitempty"`
	GroupID       uuid.UUID  `bun:"group_id,notnull,type:uuid" json:"group_id,omitempty"`
	MemberRole    MemberRole `bun:"member_role,notnull" json:"member_role,omitempty"`
	IsActive      bool       `bun:"is_active,notnull" json:"is_active,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Invite is a group-initiated admission offer to an account
type Invite struct {
	bun.BaseModel `bun:"table:join_invites,alias:inv"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     uuid.UUID  `bun:"account_id,notnull,type:uuid" json:"account_id,omitempty"`
	GroupID       uuid.UUID  `bun:"group_id,notnull,type:uuid" json:"group_id,omitempty"`
	State         State      `bun:"state,notnull" json:"state,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// JoinRequest is an account-initiated ask to join a group; same shape as
// Invite with the initiator reversed.
type JoinRequest struct {
	bun.BaseModel `bun:"table:join_requests,alias:req"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     uuid.UUID  `bun:"account_id,notnull,type:uuid" json:"account_id,omitempty"`
	GroupID       uuid.UUID  `bun:"group_id,notnull,type:uuid" json:"group_id,omitempty"`
	State         State      `bun:"state,notnull" json:"state,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
