package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/middleware"
	"github.com/gtead/marketplace-backend/internal/repos"
	"github.com/gtead/marketplace-backend/internal/requestdata"
	"github.com/gtead/marketplace-backend/internal/services"
	"github.com/gtead/marketplace-backend/internal/types"
	"github.com/gtead/marketplace-backend/internal/utils"
)

const oauthStateCookie = "gtead_oauth_state"

type AuthHandler struct {
	log          *logger.Logger
	authService  services.AuthService
	oidcService  services.OIDCService
	users        repos.UserRepo
	secureCookie bool
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService, oidcService services.OIDCService, users repos.UserRepo) *AuthHandler {
	return &AuthHandler{
		log:          log.With("handler", "AuthHandler"),
		authService:  authService,
		oidcService:  oidcService,
		users:        users,
		secureCookie: utils.GetEnv("COOKIE_SECURE", "false", nil) == "true",
	}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, session *types.Session) {
	c.SetCookie(
		middleware.SessionCookieName,
		h.authService.SignSID(session.SID),
		int(h.authService.SessionTTL().Seconds()),
		"/", "", h.secureCookie, true,
	)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", h.secureCookie, true)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input services.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("Invalid request body"))
		return
	}
	user, session, err := h.authService.Register(c.Request.Context(), input)
	if err != nil {
		if !services.IsValidation(err) {
			h.log.Error("Registration failed", "error", err)
		}
		respondServiceError(c, err)
		return
	}
	h.setSessionCookie(c, session)
	RespondCreated(c, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("Invalid request body"))
		return
	}
	user, session, err := h.authService.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			h.log.Error("Login failed", "error", err)
			err = services.ErrInvalidCredentials
		}
		RespondError(c, http.StatusUnauthorized, "invalid_credentials", err)
		return
	}
	h.setSessionCookie(c, session)
	RespondOK(c, user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd != nil && rd.SessionID != "" {
		if err := h.authService.Logout(c.Request.Context(), rd.SessionID); err != nil {
			h.log.Warn("Session delete failed on logout", "error", err)
		}
	}
	h.clearSessionCookie(c)
	RespondOK(c, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) CurrentUser(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	RespondOK(c, rd.User)
}

// OIDCLogin starts the delegated flow: random state pinned in a short
// cookie, then the provider redirect.
func (h *AuthHandler) OIDCLogin(c *gin.Context) {
	state := uuid.NewString()
	c.SetCookie(oauthStateCookie, state, 600, "/", "", h.secureCookie, true)
	c.Redirect(http.StatusFound, h.oidcService.BeginLogin(state))
}

func (h *AuthHandler) OIDCCallback(c *gin.Context) {
	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		h.log.Warn("OIDC callback state mismatch")
		c.Redirect(http.StatusFound, "/api/auth/oidc/login")
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.secureCookie, true)

	user, tokens, err := h.oidcService.HandleCallback(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.log.Warn("OIDC callback failed", "error", err)
		c.Redirect(http.StatusFound, "/api/auth/oidc/login")
		return
	}
	session, err := h.authService.CreateSession(c.Request.Context(), user, types.SessionProviderOIDC, tokens)
	if err != nil {
		h.log.Error("Session create failed after OIDC callback", "error", err)
		c.Redirect(http.StatusFound, "/api/auth/oidc/login")
		return
	}
	h.setSessionCookie(c, session)
	c.Redirect(http.StatusFound, "/")
}

// UpdateProfile edits vendor business fields. Role and email are not
// editable here.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var body struct {
		FirstName         *string `json:"firstName"`
		LastName          *string `json:"lastName"`
		Organization      *string `json:"organization"`
		UEI               *string `json:"uei"`
		CAGE              *string `json:"cage"`
		NATOEligible      *bool   `json:"natoEligible"`
		SecurityClearance *string `json:"securityClearance"`
		BusinessSize      *string `json:"businessSize"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("Invalid request body"))
		return
	}

	user := rd.User
	if body.FirstName != nil {
		user.FirstName = *body.FirstName
	}
	if body.LastName != nil {
		user.LastName = *body.LastName
	}
	if body.Organization != nil {
		user.Organization = *body.Organization
	}
	if body.UEI != nil {
		user.UEI = *body.UEI
	}
	if body.CAGE != nil {
		user.CAGE = *body.CAGE
	}
	if body.NATOEligible != nil {
		user.NATOEligible = *body.NATOEligible
	}
	if body.SecurityClearance != nil {
		user.SecurityClearance = *body.SecurityClearance
	}
	if body.BusinessSize != nil {
		user.BusinessSize = *body.BusinessSize
	}

	updated, err := h.users.Update(c.Request.Context(), user)
	if err != nil {
		h.log.Error("Profile update failed", "user_id", user.ID, "error", err)
		respondServiceError(c, err)
		return
	}
	RespondOK(c, updated)
}
