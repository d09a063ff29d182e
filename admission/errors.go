package admission

import "github.com/goliatone/go-errors"

const (
	TextCodeDuplicatePendingInvite  = "DUPLICATE_PENDING_INVITE"
	TextCodeDuplicatePendingRequest = "DUPLICATE_PENDING_REQUEST"
	TextCodeAlreadyMember           = "ALREADY_GROUP_MEMBER"
	TextCodeAlreadyResolved         = "ADMISSION_ALREADY_RESOLVED"
	TextCodeNotFound                = "ADMISSION_RECORD_NOT_FOUND"
	TextCodeInvalidOutcome          = "INVALID_ADMISSION_OUTCOME"
)

// ErrDuplicatePendingInvite is returned when a pending invite already exists
// for the (account, group) pair. A duplicate offer is rejected, never silently
// ignored.
var ErrDuplicatePendingInvite = errors.New("a pending invite already exists for this account and group", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicatePendingInvite).
	WithCode(errors.CodeConflict)

// ErrDuplicatePendingRequest is the request-channel twin of
// ErrDuplicatePendingInvite.
var ErrDuplicatePendingRequest = errors.New("a pending join request already exists for this account and group", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicatePendingRequest).
	WithCode(errors.CodeConflict)

// ErrAlreadyMember is returned when creating an invite or request for an
// account that already holds an active membership.
var ErrAlreadyMember = errors.New("account is already an active member of the group", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyMember).
	WithCode(errors.CodeConflict)

// ErrAlreadyResolved is returned when resolving a record that left the pending
// state. Resolution is one way; callers are told the decision already
// happened instead of getting a silent no-op.
var ErrAlreadyResolved = errors.New("invite or request was already resolved", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyResolved).
	WithCode(errors.CodeConflict)

// ErrNotFound is returned when the referenced invite or request does not exist.
var ErrNotFound = errors.New("invite or request not found", errors.CategoryNotFound).
	WithTextCode(TextCodeNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidOutcome is returned for outcomes other than accept or reject.
var ErrInvalidOutcome = errors.New("outcome must be accept or reject", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidOutcome).
	WithCode(errors.CodeBadRequest)
