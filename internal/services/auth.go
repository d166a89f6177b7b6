package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/repos"
	"github.com/gtead/marketplace-backend/internal/sessionstore"
	"github.com/gtead/marketplace-backend/internal/types"
	"github.com/gtead/marketplace-backend/internal/utils"
)

// Accounts requesting government-class roles must register with an
// institutional address.
const govEmailSuffix = ".mil"

const (
	defaultAdminEmail    = "admin@gtead.mil"
	defaultAdminPassword = "Admin123!"
)

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Role      string `json:"role" validate:"required"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*types.User, *types.Session, error)
	Login(ctx context.Context, email, password string) (*types.User, *types.Session, error)
	Logout(ctx context.Context, sid string) error
	// SessionUser resolves a verified sid to its live session and user.
	SessionUser(ctx context.Context, sid string) (*types.User, *types.Session, error)
	CreateSession(ctx context.Context, user *types.User, provider string, tokens *ProviderTokens) (*types.Session, error)
	UpdateSession(ctx context.Context, session *types.Session) error
	// SignSID and VerifyCookie translate between the server-side sid and
	// the "sid.hmac" cookie value.
	SignSID(sid string) string
	VerifyCookie(value string) (string, bool)
	SessionTTL() time.Duration
	EnsureDefaultAdmin(ctx context.Context) error
}

// ProviderTokens carries OAuth tokens into a delegated session so
// middleware can refresh them later.
type ProviderTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

type authService struct {
	log        *logger.Logger
	users      repos.UserRepo
	sessions   sessionstore.SessionStore
	secret     []byte
	sessionTTL time.Duration
	validate   *validator.Validate
}

func NewAuthService(log *logger.Logger, users repos.UserRepo, sessions sessionstore.SessionStore, sessionSecret string) AuthService {
	ttl := time.Duration(utils.GetEnvAsInt("SESSION_TTL_SECONDS", 7*24*60*60, log)) * time.Second
	return &authService{
		log:        log.With("service", "AuthService"),
		users:      users,
		sessions:   sessions,
		secret:     []byte(sessionSecret),
		sessionTTL: ttl,
		validate:   validator.New(),
	}
}

func (as *authService) Register(ctx context.Context, input RegisterInput) (*types.User, *types.Session, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)

	if err := as.validate.Struct(input); err != nil {
		return nil, nil, validationErrorf(registrationValidationMessage(err))
	}
	if !types.ValidRole(input.Role) {
		return nil, nil, validationErrorf("Invalid role specified")
	}
	if types.GovernmentRole(input.Role) && !strings.HasSuffix(input.Email, govEmailSuffix) {
		return nil, nil, validationErrorf("Government users must use a .mil email address")
	}

	if _, err := as.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, nil, validationErrorf("User already exists with this email")
	} else if !errors.Is(err, repos.ErrNotFound) {
		return nil, nil, fmt.Errorf("check existing user: %w", err)
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := as.users.Create(ctx, &types.User{
		Email:     input.Email,
		Password:  hashed,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Role:      input.Role,
		Provider:  types.SessionProviderLocal,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	session, err := as.CreateSession(ctx, user, types.SessionProviderLocal, nil)
	if err != nil {
		return nil, nil, err
	}
	as.log.Info("User registered", "user_id", user.ID, "role", user.Role)
	return user, session, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*types.User, *types.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, nil, ErrInvalidCredentials
	}
	user, err := as.users.GetByEmail(ctx, email)
	if errors.Is(err, repos.ErrNotFound) {
		// Burn a hash comparison anyway so unknown emails cost the same
		// as wrong passwords.
		utils.ComparePassword(password, "")
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load user by email: %w", err)
	}
	if !utils.ComparePassword(password, user.Password) {
		return nil, nil, ErrInvalidCredentials
	}
	session, err := as.CreateSession(ctx, user, types.SessionProviderLocal, nil)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

func (as *authService) Logout(ctx context.Context, sid string) error {
	return as.sessions.Delete(ctx, sid)
}

func (as *authService) SessionUser(ctx context.Context, sid string) (*types.User, *types.Session, error) {
	session, err := as.sessions.Get(ctx, sid)
	if err != nil {
		return nil, nil, err
	}
	user, err := as.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

func (as *authService) CreateSession(ctx context.Context, user *types.User, provider string, tokens *ProviderTokens) (*types.Session, error) {
	session := &types.Session{
		SID:       uuid.NewString(),
		UserID:    user.ID,
		Provider:  provider,
		ExpiresAt: time.Now().Add(as.sessionTTL),
		CreatedAt: time.Now(),
	}
	if tokens != nil {
		session.AccessToken = tokens.AccessToken
		session.RefreshToken = tokens.RefreshToken
		session.TokenExpiresAt = tokens.ExpiresAt
	}
	if err := as.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (as *authService) UpdateSession(ctx context.Context, session *types.Session) error {
	return as.sessions.Update(ctx, session)
}

func (as *authService) SignSID(sid string) string {
	mac := hmac.New(sha256.New, as.secret)
	mac.Write([]byte(sid))
	return sid + "." + hex.EncodeToString(mac.Sum(nil))
}

func (as *authService) VerifyCookie(value string) (string, bool) {
	parts := strings.SplitN(value, ".", 2)
	if len(parts) != 2 {
		return "", false
	}
	sid, sig := parts[0], parts[1]
	mac := hmac.New(sha256.New, as.secret)
	mac.Write([]byte(sid))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", false
	}
	return sid, true
}

func (as *authService) SessionTTL() time.Duration {
	return as.sessionTTL
}

// EnsureDefaultAdmin seeds the bootstrap admin account when absent so a
// fresh deployment can create challenges.
func (as *authService) EnsureDefaultAdmin(ctx context.Context) error {
	_, err := as.users.GetByEmail(ctx, defaultAdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repos.ErrNotFound) {
		return fmt.Errorf("check default admin: %w", err)
	}
	hashed, err := utils.HashPassword(defaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hash default admin password: %w", err)
	}
	_, err = as.users.Create(ctx, &types.User{
		Email:     defaultAdminEmail,
		Password:  hashed,
		FirstName: "System",
		LastName:  "Administrator",
		Role:      types.RoleAdmin,
		Provider:  types.SessionProviderLocal,
	})
	if err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}
	as.log.Info("Default admin user created", "email", defaultAdminEmail)
	return nil
}

func registrationValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid registration payload"
	}
	fe := verrs[0]
	switch {
	case fe.Field() == "Email" && fe.Tag() == "email":
		return "Invalid email format"
	case fe.Field() == "Password" && fe.Tag() == "min":
		return "Password must be at least 8 characters long"
	case fe.Tag() == "required":
		return "All fields are required"
	}
	return "Invalid registration payload"
}
