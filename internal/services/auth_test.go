package services

import (
	"context"
	"errors"
	"testing"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/memstore"
	"github.com/gtead/marketplace-backend/internal/repos"
	"github.com/gtead/marketplace-backend/internal/sessionstore"
	"github.com/gtead/marketplace-backend/internal/types"
)

func newTestAuthService(t *testing.T) (AuthService, *repos.Store) {
	t.Helper()
	store, err := memstore.NewStore(nil, false)
	if err != nil {
		t.Fatalf("memstore.NewStore: %v", err)
	}
	auth := NewAuthService(logger.NewNop(), store.Users, sessionstore.NewMemoryStore(), "test-secret")
	return auth, store
}

func TestRegisterRoleRules(t *testing.T) {
	cases := []struct {
		name    string
		email   string
		role    string
		wantErr string
	}{
		{name: "vendor_any_email", email: "vendor@acme.com", role: types.RoleVendor},
		{name: "government_needs_mil", email: "officer@gmail.com", role: types.RoleGovernment, wantErr: "Government users must use a .mil email address"},
		{name: "government_with_mil", email: "officer@army.mil", role: types.RoleGovernment},
		{name: "contracting_officer_needs_mil", email: "ko@contractor.com", role: types.RoleContractingOfficer, wantErr: "Government users must use a .mil email address"},
		{name: "unknown_role", email: "x@acme.com", role: "superuser", wantErr: "Invalid role specified"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth, store := newTestAuthService(t)
			user, session, err := auth.Register(context.Background(), RegisterInput{
				Email:     tc.email,
				Password:  "longenough",
				FirstName: "Pat",
				LastName:  "Doe",
				Role:      tc.role,
			})
			if tc.wantErr != "" {
				if err == nil || err.Error() != tc.wantErr {
					t.Fatalf("expected error %q, got %v", tc.wantErr, err)
				}
				if !IsValidation(err) {
					t.Fatal("rejection should be a validation error")
				}
				// A rejected registration must not leave a user behind.
				if _, gerr := store.Users.GetByEmail(context.Background(), tc.email); !errors.Is(gerr, repos.ErrNotFound) {
					t.Fatalf("rejected registration created a user: %v", gerr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Register: %v", err)
			}
			if user.Role != tc.role {
				t.Fatalf("role %q stored as %q", tc.role, user.Role)
			}
			if user.Password == "longenough" || user.Password == "" {
				t.Fatal("password stored in the clear or missing")
			}
			if session == nil || session.SID == "" {
				t.Fatal("registration should open a session")
			}
		})
	}
}

func TestRegisterValidationMessages(t *testing.T) {
	cases := []struct {
		name  string
		input RegisterInput
		want  string
	}{
		{
			name:  "bad_email",
			input: RegisterInput{Email: "not-an-email", Password: "longenough", FirstName: "A", LastName: "B", Role: types.RoleVendor},
			want:  "Invalid email format",
		},
		{
			name:  "short_password",
			input: RegisterInput{Email: "a@b.com", Password: "short", FirstName: "A", LastName: "B", Role: types.RoleVendor},
			want:  "Password must be at least 8 characters long",
		},
		{
			name:  "missing_fields",
			input: RegisterInput{Email: "a@b.com", Password: "longenough", Role: types.RoleVendor},
			want:  "All fields are required",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth, _ := newTestAuthService(t)
			_, _, err := auth.Register(context.Background(), tc.input)
			if err == nil || err.Error() != tc.want {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()
	input := RegisterInput{Email: "dup@acme.com", Password: "longenough", FirstName: "A", LastName: "B", Role: types.RoleVendor}
	if _, _, err := auth.Register(ctx, input); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, _, err := auth.Register(ctx, input)
	if err == nil || err.Error() != "User already exists with this email" {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
}

func TestLoginEnumerationSafety(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()
	if _, _, err := auth.Register(ctx, RegisterInput{
		Email: "known@acme.com", Password: "rightpassword", FirstName: "A", LastName: "B", Role: types.RoleVendor,
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, _, unknownErr := auth.Login(ctx, "unknown@acme.com", "whatever")
	_, _, wrongErr := auth.Login(ctx, "known@acme.com", "wrongpassword")
	if !errors.Is(unknownErr, ErrInvalidCredentials) || !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v and %v", unknownErr, wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatal("unknown email and wrong password must be indistinguishable")
	}

	user, session, err := auth.Login(ctx, "Known@Acme.com", "rightpassword")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Email != "known@acme.com" {
		t.Fatalf("unexpected user %q", user.Email)
	}
	if session.Provider != types.SessionProviderLocal {
		t.Fatalf("unexpected session provider %q", session.Provider)
	}
}

func TestSessionCookieSignature(t *testing.T) {
	auth, _ := newTestAuthService(t)
	signed := auth.SignSID("some-session-id")
	sid, ok := auth.VerifyCookie(signed)
	if !ok || sid != "some-session-id" {
		t.Fatalf("round trip failed: %q %v", sid, ok)
	}

	if _, ok := auth.VerifyCookie("some-session-id.deadbeef"); ok {
		t.Fatal("forged signature verified")
	}
	if _, ok := auth.VerifyCookie("no-separator"); ok {
		t.Fatal("malformed cookie verified")
	}

	other := NewAuthService(logger.NewNop(), nil, sessionstore.NewMemoryStore(), "different-secret")
	if _, ok := other.VerifyCookie(signed); ok {
		t.Fatal("cookie signed with one secret verified with another")
	}
}

func TestSessionLifecycle(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()
	user, session, err := auth.Register(ctx, RegisterInput{
		Email: "s@acme.com", Password: "longenough", FirstName: "A", LastName: "B", Role: types.RoleVendor,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, gotSession, err := auth.SessionUser(ctx, session.SID)
	if err != nil {
		t.Fatalf("SessionUser: %v", err)
	}
	if got.ID != user.ID || gotSession.SID != session.SID {
		t.Fatal("session resolved to the wrong user")
	}

	if err := auth.Logout(ctx, session.SID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, _, err := auth.SessionUser(ctx, session.SID); err == nil {
		t.Fatal("session usable after logout")
	}
}

func TestEnsureDefaultAdminIdempotent(t *testing.T) {
	auth, store := newTestAuthService(t)
	ctx := context.Background()

	if err := auth.EnsureDefaultAdmin(ctx); err != nil {
		t.Fatalf("EnsureDefaultAdmin: %v", err)
	}
	admin, err := store.Users.GetByEmail(ctx, defaultAdminEmail)
	if err != nil {
		t.Fatalf("admin missing after bootstrap: %v", err)
	}
	if admin.Role != types.RoleAdmin {
		t.Fatalf("admin has role %q", admin.Role)
	}

	if err := auth.EnsureDefaultAdmin(ctx); err != nil {
		t.Fatalf("second EnsureDefaultAdmin: %v", err)
	}
	if _, _, err := auth.Login(ctx, defaultAdminEmail, defaultAdminPassword); err != nil {
		t.Fatalf("default admin cannot log in: %v", err)
	}
}
