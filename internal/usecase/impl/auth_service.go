package impl

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"beatmarket/config"
	deliverycontext "beatmarket/internal/delivery/context"
	"beatmarket/internal/domain/entity"
	domainerrors "beatmarket/internal/domain/errors"
	"beatmarket/internal/domain/repository"
	"beatmarket/internal/domain/service"
	"beatmarket/internal/errors"
	"beatmarket/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface.
type authService struct {
	userRepo     repository.UserRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	tokenTTL     time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	UserRepo     repository.UserRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Config       *config.Config
	Logger       *slog.Logger
}

// NewAuthService is the constructor for authService.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return newAuthService(params)
}

func newAuthService(params AuthServiceParams) *authService {
	return &authService{
		userRepo:     params.UserRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		tokenTTL:     params.Config.Auth.AccessTokenTTL,
		now:          time.Now,
		logger:       params.Logger,
	}
}

func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a user with a zero balance. Self-registration always yields the user role.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*entity.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("username and password are required")
	}

	user, err := srv.createUser(ctx, username, input.Password, entity.RoleUser)
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("User registered", slog.Any("userID", user.ID), slog.String("username", user.Username))

	return user, nil
}

// Login verifies the password and issues an access token.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	user, err := srv.userRepo.FindByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrInvalidCredentials
		}

		return nil, errors.Wrap(err, "failed to load user for login")
	}

	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Info("Login rejected", slog.String("username", user.Username))

		return nil, domainerrors.ErrInvalidCredentials
	}

	token, err := srv.tokenService.GenerateAccessToken(user.ID, entity.Roles{user.Role}.ToStrings())
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate access token")
	}

	return &usecase.LoginOutput{
		AccessToken: token,
		ExpiresIn:   srv.tokenTTL,
		User:        user,
	}, nil
}

// EnsureSystemAccount creates the account with the given role when it does not exist yet.
// An empty password is replaced by a random one so nobody can log in as the account.
// An existing account under the name must already hold the role, otherwise the name was taken
// by someone else and provisioning fails.
func (srv *authService) EnsureSystemAccount(ctx context.Context, username, password string, role entity.Role) (*entity.User, error) {
	existing, err := srv.userRepo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return checkSystemAccountRole(existing, role)
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, errors.Wrap(err, "failed to look up system account")
	}

	if password == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, errors.Wrap(err, "failed to generate system account password")
		}
		password = hex.EncodeToString(secret)
	}

	user, err := srv.createUser(ctx, username, password, role)
	if errors.Is(err, domainerrors.ErrUserAlreadyExists) {
		existing, err := srv.userRepo.FindByUsername(ctx, username)
		if err != nil {
			return nil, errors.Wrap(err, "failed to look up system account")
		}

		return checkSystemAccountRole(existing, role)
	}
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("System account created",
		slog.String("username", username), slog.Any("userID", user.ID), slog.String("role", role.String()))

	return user, nil
}

func checkSystemAccountRole(user *entity.User, role entity.Role) (*entity.User, error) {
	if user.Role != role {
		return nil, domainerrors.ErrUserAlreadyExists.WithDetails(
			"account " + user.Username + " exists with role " + user.Role.String() + ", expected " + role.String())
	}

	return user, nil
}

func (srv *authService) createUser(ctx context.Context, username, password string, role entity.Role) (*entity.User, error) {
	hash, err := srv.hasher.Hash(password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password", slog.Any("error", err))

		return nil, domainerrors.ErrPasswordHashFailed
	}

	now := srv.now().UTC()
	user := &entity.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Balance:      decimal.Zero,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := srv.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, domainerrors.ErrUserAlreadyExists
		}

		return nil, errors.Wrap(err, "failed to create user")
	}

	return user, nil
}

// SystemAccountParams holds dependencies for provisioning system accounts on startup.
type SystemAccountParams struct {
	fx.In
	fx.Lifecycle

	AuthParams AuthServiceParams
}

// RegisterSystemAccounts provisions the platform commission account and, when configured,
// the admin account when the service starts.
func RegisterSystemAccounts(params SystemAccountParams) {
	srv := newAuthService(params.AuthParams)
	cfg := params.AuthParams.Config

	params.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := srv.EnsureSystemAccount(ctx, cfg.Marketplace.PlatformUsername, "", entity.RoleUser); err != nil {
				return errors.Wrap(err, "failed to provision platform account")
			}

			if cfg.Auth.AdminUsername == "" {
				return nil
			}
			if _, err := srv.EnsureSystemAccount(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword, entity.RoleAdmin); err != nil {
				return errors.Wrap(err, "failed to provision admin account")
			}

			return nil
		},
	})
}
