package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/gtead/marketplace-backend/internal/handlers"
	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/memstore"
	"github.com/gtead/marketplace-backend/internal/middleware"
	"github.com/gtead/marketplace-backend/internal/repos"
	"github.com/gtead/marketplace-backend/internal/server"
	"github.com/gtead/marketplace-backend/internal/services"
	"github.com/gtead/marketplace-backend/internal/sessionstore"
)

type testEnv struct {
	router *gin.Engine
	store  *repos.Store
	auth   services.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("UPLOAD_DIR", t.TempDir())

	log := logger.NewNop()
	store, err := memstore.NewStore(nil, false)
	require.NoError(t, err)

	authService := services.NewAuthService(log, store.Users, sessionstore.NewMemoryStore(), "test-secret")
	require.NoError(t, authService.EnsureDefaultAdmin(t.Context()))
	aiService := services.NewAIService(log, nil, store)
	uploadService, err := services.NewUploadService(log, nil)
	require.NoError(t, err)

	authMiddleware := middleware.NewAuthMiddleware(log, authService, nil)
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:     authMiddleware,
		AuthHandler:        handlers.NewAuthHandler(log, authService, nil, store.Users),
		ChallengeHandler:   handlers.NewChallengeHandler(log, store.Challenges),
		SolutionHandler:    handlers.NewSolutionHandler(log, store.Solutions),
		ReviewHandler:      handlers.NewReviewHandler(log, store.Reviews, store.Solutions),
		ApplicationHandler: handlers.NewApplicationHandler(log, store.Applications, store.Challenges),
		ChatHandler:        handlers.NewChatHandler(log, aiService, store.ChatMessages),
		MatchHandler:       handlers.NewMatchHandler(log, aiService),
		UploadHandler:      handlers.NewUploadHandler(log, uploadService),
		StatsHandler:       handlers.NewStatsHandler(log, store.Solutions, store.Challenges),
	})
	return &testEnv{router: router, store: store, auth: authService}
}

func (e *testEnv) do(t *testing.T, method, path, cookie string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// register creates an account through the API and returns its session
// cookie header value.
func (e *testEnv) register(t *testing.T, email, role string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/register", "", gin.H{
		"email":     email,
		"password":  "longenough",
		"firstName": "Test",
		"lastName":  "User",
		"role":      role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c.Name + "=" + c.Value
		}
	}
	t.Fatal("no session cookie on register response")
	return ""
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c.Name + "=" + c.Value
		}
	}
	t.Fatal("no session cookie on login response")
	return ""
}

func TestSolutionAndReviewLifecycle(t *testing.T) {
	env := newTestEnv(t)
	vendorCookie := env.register(t, "vendor@acme.com", "vendor")
	govCookie := env.register(t, "evaluator@army.mil", "government")

	// Unauthenticated create is rejected.
	w := env.do(t, http.MethodPost, "/api/solutions", "", gin.H{"title": "X", "description": "Y"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Government users cannot file solutions.
	w = env.do(t, http.MethodPost, "/api/solutions", govCookie, gin.H{"title": "X", "description": "Y"})
	require.Equal(t, http.StatusForbidden, w.Code)

	// Vendor creates a solution; vendorId is forced to the session user.
	w = env.do(t, http.MethodPost, "/api/solutions", vendorCookie, gin.H{
		"title":           "Longbow Mesh Radio",
		"description":     "Self-healing tactical mesh",
		"trl":             7,
		"capabilityAreas": []string{"Communications"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var solution struct {
		ID       string `json:"id"`
		VendorID string `json:"vendorId"`
		Status   string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &solution))
	require.Equal(t, "submitted", solution.Status)

	// Vendors cannot review.
	reviewPath := fmt.Sprintf("/api/solutions/%s/reviews", solution.ID)
	w = env.do(t, http.MethodPost, reviewPath, vendorCookie, gin.H{"rating": 5})
	require.Equal(t, http.StatusForbidden, w.Code)

	// Government review succeeds.
	w = env.do(t, http.MethodPost, reviewPath, govCookie, gin.H{
		"rating":      4,
		"title":       "Solid field performance",
		"fieldTested": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Reviews are publicly listable.
	w = env.do(t, http.MethodGet, reviewPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reviews []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reviews))
	require.Len(t, reviews, 1)

	// Government may patch status but not content.
	solutionPath := "/api/solutions/" + solution.ID
	w = env.do(t, http.MethodPatch, solutionPath, govCookie, gin.H{"status": "awardable"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.do(t, http.MethodPatch, solutionPath, govCookie, gin.H{"status": "awardable", "title": "Renamed"})
	require.Equal(t, http.StatusForbidden, w.Code)

	// The owning vendor may edit content.
	w = env.do(t, http.MethodPatch, solutionPath, vendorCookie, gin.H{"description": "Now with NATO waveforms"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Another vendor may not.
	otherCookie := env.register(t, "rival@bravo.com", "vendor")
	w = env.do(t, http.MethodPatch, solutionPath, otherCookie, gin.H{"description": "sabotage"})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestChallengeCreationIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	vendorCookie := env.register(t, "vendor@acme.com", "vendor")
	adminCookie := env.login(t, "admin@gtead.mil", "Admin123!")

	body := gin.H{"title": "xTech Demo", "description": "Prototype sprint", "type": "xtech"}
	w := env.do(t, http.MethodPost, "/api/challenges", vendorCookie, body)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/challenges", adminCookie, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var challenge struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &challenge))
	require.Equal(t, "open", challenge.Status)

	// Applications require a vendor session and an open challenge.
	w = env.do(t, http.MethodPost, "/api/applications", vendorCookie, gin.H{"challengeId": challenge.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// The vendor sees only their own applications.
	w = env.do(t, http.MethodGet, "/api/applications", vendorCookie, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var apps []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apps))
	require.Len(t, apps, 1)
}

func TestRegistrationValidationOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/register", "", gin.H{
		"email":     "officer@gmail.com",
		"password":  "longenough",
		"firstName": "A",
		"lastName":  "B",
		"role":      "government",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var envelope handlers.ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "Government users must use a .mil email address", envelope.Error.Message)
}

func TestAuthUserAndLogout(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.register(t, "vendor@acme.com", "vendor")

	w := env.do(t, http.MethodGet, "/api/auth/user", cookie, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	require.Equal(t, "vendor@acme.com", me.Email)
	require.Empty(t, me.Password)

	w = env.do(t, http.MethodPost, "/api/logout", cookie, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/auth/user", cookie, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTamperedCookieRejected(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.register(t, "vendor@acme.com", "vendor")
	w := env.do(t, http.MethodGet, "/api/auth/user", cookie+"ff", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChatDegradedAndHistory(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.register(t, "vendor@acme.com", "vendor")

	w := env.do(t, http.MethodPost, "/api/chat", cookie, gin.H{"message": "what challenges fit us?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var msg struct {
		Response string `json:"response"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
	require.NotEmpty(t, msg.Response)

	w = env.do(t, http.MethodGet, "/api/chat/history", cookie, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 1)
}

func TestCapabilitySearchDegradedIsPublic(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/capability-search", "", gin.H{"requirement": "counter drone"})
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Matches []any `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Empty(t, body.Matches)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.register(t, "vendor@acme.com", "vendor")
	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/api/solutions", cookie, gin.H{
			"title": fmt.Sprintf("Solution %d", i), "description": "d",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := env.do(t, http.MethodGet, "/api/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Vendors          int    `json:"vendors"`
		Solutions        int    `json:"solutions"`
		OpenChallenges   int    `json:"openChallenges"`
		ContractsAwarded string `json:"contractsAwarded"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	require.Equal(t, 1, stats.Vendors)
	require.Equal(t, 2, stats.Solutions)
	require.NotEmpty(t, stats.ContractsAwarded)
}

func TestUploadDocumentValidation(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.register(t, "vendor@acme.com", "vendor")

	makeUpload := func(field, filename string) (*bytes.Buffer, string) {
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("content"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return buf, mw.FormDataContentType()
	}

	body, contentType := makeUpload("document", "whitepaper.pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/upload/document", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cookie", cookie)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var uploaded struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploaded))
	require.Contains(t, uploaded.URL, "/uploads/")

	body, contentType = makeUpload("document", "malware.exe")
	req = httptest.NewRequest(http.MethodPost, "/api/upload/document", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cookie", cookie)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
