package auth

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
	"github.com/welearn/go-auth/federation"
)

// RegisterAccountMessage carries a local registration: the caller supplies the
// password and the account role is an explicit parameter, never a subtype.
type RegisterAccountMessage struct {
	FullName  string      `json:"full_name"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone"`
	School    string      `json:"school"`
	Role      AccountRole `json:"role"`
	Password  string      `json:"password"`
	UseHashid bool        `json:"-"`
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// Validate runs field-level validation. Failures are returned as an ozzo
// validation.Errors carrying the full per-field list.
func (e RegisterAccountMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.FullName, validation.Required, validation.Length(1, 50)),
		validation.Field(&e.Username, validation.Required, validation.Length(3, 100)),
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&e.Phone, validation.Length(10, 11), is.Digit),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 255)),
		validation.Field(&e.Role, validation.Required, validation.By(validRole)),
	)
}

// RegisterFederatedAccountMessage seeds an account from a verified external
// identity. No password is taken from the caller: the stored digest is an
// unguessable placeholder so local login stays impossible for these accounts,
// and nothing is ever communicated back.
type RegisterFederatedAccountMessage struct {
	Profile *federation.Profile `json:"profile"`
	Role    AccountRole         `json:"role"`
}

func (e RegisterFederatedAccountMessage) Type() string { return "account.register_federated" }

func (e RegisterFederatedAccountMessage) Validate() error {
	if e.Profile == nil {
		return goerrors.New("federated profile is required", goerrors.CategoryBadInput)
	}
	if !e.Profile.EmailVerified {
		return federation.ErrEmailNotVerified
	}
	return validation.ValidateStruct(&e,
		validation.Field(&e.Role, validation.Required, validation.By(validRole)),
	)
}

func validRole(value any) error {
	role, _ := value.(AccountRole)
	if _, ok := ParseRole(string(role)); !ok {
		return goerrors.New("unknown role", goerrors.CategoryValidation).
			WithTextCode(TextCodeInvalidRole)
	}
	return nil
}

// RegisterAccountHandler creates accounts. Validation, uniqueness checks and
// the insert run in order inside a single transaction, short-circuiting on the
// first failure.
type RegisterAccountHandler struct {
	repo RepositoryManager
}

func NewRegisterAccountHandler(repo RepositoryManager) *RegisterAccountHandler {
	return &RegisterAccountHandler{repo: repo}
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) (*Account, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
	}

	if err := event.Validate(); err != nil {
		return nil, wrapValidation(err)
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	account := &Account{
		FullName:     event.FullName,
		Username:     getUsername(event.Username, event.Email),
		Email:        event.Email,
		Phone:        event.Phone,
		School:       event.School,
		Role:         event.Role,
		PasswordHash: hash,
	}
	if event.UseHashid {
		if id, err := hashid.NewUUID(event.Email); err == nil {
			account.ID = id
		}
	}

	return h.register(ctx, account)
}

// ExecuteFederated registers an account seeded from a federated profile.
func (h *RegisterAccountHandler) ExecuteFederated(ctx context.Context, event RegisterFederatedAccountMessage) (*Account, error) {
	if err := event.Validate(); err != nil {
		return nil, wrapValidation(err)
	}

	profile := event.Profile
	account := &Account{
		FullName:     profile.Name,
		Username:     profile.Email,
		Email:        profile.Email,
		ImageURL:     profile.Picture,
		Role:         event.Role,
		PasswordHash: RandomPasswordHash(),
	}
	if id, err := hashid.NewUUID(profile.Email); err == nil {
		account.ID = id
	}

	return h.register(ctx, account)
}

func (h *RegisterAccountHandler) register(ctx context.Context, account *Account) (*Account, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		taken, err := h.repo.Accounts().UsernameExists(ctx, tx, account.Username)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "username uniqueness check failed")
		}
		if taken {
			return ErrDuplicateUsername
		}

		taken, err = h.repo.Accounts().EmailExists(ctx, tx, account.Email)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "email uniqueness check failed")
		}
		if taken {
			return ErrDuplicateEmail
		}

		if account, err = h.repo.Accounts().RegisterTx(ctx, tx, account); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	return account, nil
}

func wrapValidation(err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}

	var fields validation.Errors
	if goerrors.As(err, &fields) {
		meta := make(map[string]any, len(fields))
		for field, ferr := range fields {
			meta[field] = ferr.Error()
		}
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration input").
			WithMetadata(meta)
	}

	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration input")
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
