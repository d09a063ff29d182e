// Package admission manages how accounts join study groups. Admission flows
// through two symmetric channels, group-initiated invites and
// account-initiated join requests, both of which converge on the same
// membership table when accepted.
package admission

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	auth "github.com/welearn/go-auth"
)

// Engine coordinates invite and request lifecycles. Every operation runs in a
// single transaction so a decision and its membership side effect commit or
// roll back together.
type Engine struct {
	store  Store
	logger auth.Logger
}

// NewEngine creates an admission engine on top of the given store.
func NewEngine(store Store, logger auth.Logger) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Engine{
		store:  store,
		logger: logger,
	}
}

// CreateInvite records a pending invite for the account to join the group.
// Fails when the account is already an active member or has a pending invite
// for the same group.
func (e *Engine) CreateInvite(ctx context.Context, groupID, accountID uuid.UUID) (*Invite, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	invite := &Invite{
		AccountID: accountID,
		GroupID:   groupID,
		State:     StatePending,
	}

	err := e.store.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		member, err := e.store.MemberExistsTx(ctx, tx, accountID, groupID)
		if err != nil {
			return err
		}
		if member {
			return ErrAlreadyMember.Clone().WithMetadata(map[string]any{
				"account_id": accountID.String(),
				"group_id":   groupID.String(),
			})
		}

		pending, err := e.store.PendingInviteExistsTx(ctx, tx, accountID, groupID)
		if err != nil {
			return err
		}
		if pending {
			return ErrDuplicatePendingInvite.Clone().WithMetadata(map[string]any{
				"account_id": accountID.String(),
				"group_id":   groupID.String(),
			})
		}

		return e.store.InsertInviteTx(ctx, tx, invite)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("invite created", "invite", invite.ID, "account", accountID, "group", groupID)

	return invite, nil
}

// CreateRequest records a pending join request from the account to the group.
// Same guards as CreateInvite on the request channel.
func (e *Engine) CreateRequest(ctx context.Context, accountID, groupID uuid.UUID) (*JoinRequest, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	request := &JoinRequest{
		AccountID: accountID,
		GroupID:   groupID,
		State:     StatePending,
	}

	err := e.store.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		member, err := e.store.MemberExistsTx(ctx, tx, accountID, groupID)
		if err != nil {
			return err
		}
		if member {
			return ErrAlreadyMember.Clone().WithMetadata(map[string]any{
				"account_id": accountID.String(),
				"group_id":   groupID.String(),
			})
		}

		pending, err := e.store.PendingRequestExistsTx(ctx, tx, accountID, groupID)
		if err != nil {
			return err
		}
		if pending {
			return ErrDuplicatePendingRequest.Clone().WithMetadata(map[string]any{
				"account_id": accountID.String(),
				"group_id":   groupID.String(),
			})
		}

		return e.store.InsertRequestTx(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("join request created", "request", request.ID, "account", accountID, "group", groupID)

	return request, nil
}

// ResolveInvite accepts or rejects a pending invite. Accepting materializes
// an active membership in the same transaction; rejecting only flips the
// state. A second resolution attempt fails with ErrAlreadyResolved no matter
// which outcome won the race.
func (e *Engine) ResolveInvite(ctx context.Context, inviteID uuid.UUID, outcome Outcome) (*Invite, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	target, err := stateFor(outcome)
	if err != nil {
		return nil, err
	}

	var invite *Invite
	err = e.store.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		invite, err = e.store.GetInviteTx(ctx, tx, inviteID)
		if err != nil {
			return err
		}

		resolved, err := e.store.ResolveInviteTx(ctx, tx, inviteID, target)
		if err != nil {
			return err
		}
		if !resolved {
			return ErrAlreadyResolved.Clone().WithMetadata(map[string]any{
				"invite_id": inviteID.String(),
				"state":     invite.State,
			})
		}
		invite.State = target

		if target == StateAccepted {
			return e.store.EnsureMemberTx(ctx, tx, invite.AccountID, invite.GroupID, MemberRoleMember)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("invite resolved", "invite", inviteID, "outcome", outcome)

	return invite, nil
}

// ResolveRequest accepts or rejects a pending join request.
func (e *Engine) ResolveRequest(ctx context.Context, requestID uuid.UUID, outcome Outcome) (*JoinRequest, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	target, err := stateFor(outcome)
	if err != nil {
		return nil, err
	}

	var request *JoinRequest
	err = e.store.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		request, err = e.store.GetRequestTx(ctx, tx, requestID)
		if err != nil {
			return err
		}

		resolved, err := e.store.ResolveRequestTx(ctx, tx, requestID, target)
		if err != nil {
			return err
		}
		if !resolved {
			return ErrAlreadyResolved.Clone().WithMetadata(map[string]any{
				"request_id": requestID.String(),
				"state":      request.State,
			})
		}
		request.State = target

		if target == StateAccepted {
			return e.store.EnsureMemberTx(ctx, tx, request.AccountID, request.GroupID, MemberRoleMember)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("join request resolved", "request", requestID, "outcome", outcome)

	return request, nil
}

func stateFor(outcome Outcome) (State, error) {
	switch outcome {
	case OutcomeAccept:
		return StateAccepted, nil
	case OutcomeReject:
		return StateRejected, nil
	default:
		return "", ErrInvalidOutcome.Clone().WithMetadata(map[string]any{"outcome": outcome})
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
