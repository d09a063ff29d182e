package admission

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Store is the persistence contract the engine runs on. Implementations must
// provide row-level atomicity: ResolveInviteTx and ResolveRequestTx are
// conditional writes guarded on the pending state, and EnsureMemberTx must be
// a single conflict-aware insert, not a read-then-write pair.
type Store interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error

	PendingInviteExistsTx(ctx context.Context, tx bun.IDB, accountID, groupID uuid.UUID) (bool, error)
	InsertInviteTx(ctx context.Context, tx bun.IDB, invite *Invite) error
	GetInviteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Invite, error)
	ResolveInviteTx(ctx context.Context, tx bun.IDB, id uuid.UUID, to State) (bool, error)

	PendingRequestExistsTx(ctx context.Context, tx bun.IDB, accountID, groupID uuid.UUID) (bool, error)
	InsertRequestTx(ctx context.Context, tx bun.IDB, request *JoinRequest) error
	GetRequestTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*JoinRequest, error)
	ResolveRequestTx(ctx context.Context, tx bun.IDB, id uuid.UUID, to State) (bool, error)

	MemberExistsTx(ctx context.Context, tx bun.IDB, accountID, groupID uuid.UUID) (bool, error)
	EnsureMemberTx(ctx context.Context, tx bun.IDB, accountID, groupID uuid.UUID, role MemberRole) error
}

type store struct {
	db *bun.DB
}

// NewStore returns a bun-backed Store.
func NewStore(db *bun.DB) Store {
	return &store{db: db}
}

func (s *store) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return s.db.RunInTx(ctx, opts, f)
	}
}

func (s *store) PendingInviteExistsTx(ctx context.Context, tx bun.IDB, accountID, groupID uuid.UUID) (bool, error) {
	return tx.NewSelect().
		Model((*Invite)(nil)).
		Where("?TableAlias.account_id = ?", accountID).
		Where("?TableAlias.group_id = ?", groupID).
		Where("?TableAlias.state = ?", StatePending).
		Exists(ctx)
}

func (s *store) InsertInviteTx(ctx context.Context, tx bun.IDB, invite *Invite) error {
	prepareInviteDefaults(invite)
	_, err := tx.NewInsert().Model(invite).Exec(ctx)
	if isUniqueViolation(err, "join_invites") {
		return ErrDuplicatePendingInvite.Clone().WithMetadata(map[string]any{
			"account_id": invite.AccountID.String(),
			"group_id":   invite.GroupID.String(),
		})
	}
	return err
}

func (s *store) GetInviteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Invite, error) {
	invite := &Invite{}
	err := tx.NewSelect().
		Model(invite).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound.Clone().WithMetadata(map[string]any{"invite_id": id.String()})
		}
		return nil, err
	}
	return invite, nil
}

// ResolveInviteTx flips a pending invite to a terminal state. The guard on the
// current state makes the transition a single atomic compare-and-set; zero
// rows affected means another resolver got there first.
func (s *store) ResolveInviteTx(ctx context.Context, tx bun.IDB, id uuid.UUID, to State) (bool, error) {
	res, err := tx.NewUpdate().
		Model((*Invite)(nil)).
		Set("state = ?", to).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Where("state = ?", StatePending).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (s *store) PendingRequestExistsTx(ctx context.Context, tx bun.IDB, accountID, groupID uuid.UUID) (bool, error) {
	return tx.NewSelect().
		Model((*JoinRequest)(nil)).
		Where("?TableAlias.account_id = ?", accountID).
		Where("?TableAlias.group_id = ?", groupID).
		Where("?TableAlias.state = ?", StatePending).
		Exists(ctx)
}

func (s *store) InsertRequestTx(ctx context.Context, tx bun.IDB, request *JoinRequest) error {
	prepareRequestDefaults(request)
	_, err := tx.NewInsert().Model(request).Exec(ctx)
	if isUniqueViolation(err, "join_requests") {
		return ErrDuplicatePendingRequest.Clone().WithMetadata(map[string]any{
			"account_id": request.AccountID.String(),
			"group_id":   request.GroupID.String(),
		})
	}
	return err
}

func (s *store) GetRequestTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*JoinRequest, error) {
	request := &JoinRequest{}
	err := tx.NewSelect().
		Model(request).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound.Clone().WithMetadata(map[string]any{"request_id": id.String()})
		}
		return nil, err
	}
	return request, nil
}

func (s *store) ResolveRequestTx(ctx context.Context, tx bun.IDB, id uuid.UUID, to State) (bool, error) {
	res, err := tx.NewUpdate().
		Model((*JoinRequest)(nil)).
		Set("state = ?", to).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Where("state = ?", StatePending).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// MemberExistsTx reports whether an active membership row exists. Deactivated
// rows do not count, so a past member can be re-admitted.
func (s *store) MemberExistsTx(ctx context.Context, tx bun.IDB, accountID, groupID uuid.UUID) (bool, error) {
	return tx.NewSelect().
		Model((*GroupMember)(nil)).
		Where("?TableAlias.account_id = ?", accountID).
		Where("?TableAlias.group_id = ?", groupID).
		Where("?TableAlias.is_active = ?", true).
		Exists(ctx)
}

// EnsureMemberTx upserts the active membership row for the pair. The unique
// index on (account_id, group_id) plus the conflict clause make concurrent
// admissions converge on a single row.
func (s *store) EnsureMemberTx(ctx context.Context, tx bun.IDB, accountID, groupID uuid.UUID, role MemberRole) error {
	now := time.Now()
	member := &GroupMember{
		ID:         uuid.New(),
		AccountID:  accountID,
		GroupID:    groupID,
		MemberRole: role,
		IsActive:   true,
		CreatedAt:  &now,
	}

	_, err := tx.NewInsert().
		Model(member).
		On("CONFLICT (account_id, group_id) DO UPDATE").
		Set("is_active = ?", true).
		Set("updated_at = ?", now).
		Exec(ctx)

	return err
}

// isUniqueViolation reports whether err is a unique constraint violation
// touching the given table. The partial unique indexes on pending rows
// backstop the engine's check-then-insert; when a racing inserter trips them
// the driver error must still map to the duplicate-pending conflict. Matched
// on the message text so both the sqlite and postgres drivers are covered.
func isUniqueViolation(err error, table string) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(err.Error())
	if !strings.Contains(message, "unique constraint") &&
		!strings.Contains(message, "duplicate key") {
		return false
	}
	return strings.Contains(message, table)
}

func prepareInviteDefaults(invite *Invite) {
	if invite == nil {
		return
	}
	if invite.ID == uuid.Nil {
		invite.ID = uuid.New()
	}
	if invite.State == "" {
		invite.State = StatePending
	}
}

func prepareRequestDefaults(request *JoinRequest) {
	if request == nil {
		return
	}
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	if request.State == "" {
		request.State = StatePending
	}
}

var _ Store = (*store)(nil)
