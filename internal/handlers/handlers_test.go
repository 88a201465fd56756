package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskio/taskio-web/internal/middleware"
	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/internal/services"
	"github.com/taskio/taskio-web/internal/services/backend"
	"github.com/taskio/taskio-web/internal/utils"
	"github.com/taskio/taskio-web/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuth struct {
	reply *models.LoginResponse
	err   error
}

func (s *stubAuth) Login(context.Context, models.Credentials) (*models.LoginResponse, error) {
	return s.reply, s.err
}

func (s *stubAuth) Register(context.Context, models.User) error {
	return nil
}

func (s *stubAuth) ResetPassword(context.Context, string) error {
	return nil
}

func (s *stubAuth) SendMagicLink(context.Context, models.MagicLinkRequest) error {
	return nil
}

func (s *stubAuth) VerifyMagicLink(context.Context, string) (*models.LoginResponse, error) {
	return s.reply, s.err
}

type testApp struct {
	router   *gin.Engine
	sessions *services.SessionManager
	auth     *stubAuth
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	sealer, err := utils.NewSealer("handlers-test-secret")
	if err != nil {
		t.Fatal(err)
	}
	auth := &stubAuth{}
	api := services.API{Auth: auth}
	opts := services.ShellOptions{IdleBudget: time.Hour, TickInterval: time.Hour, PollInterval: time.Hour}
	sessions := services.NewSessionManager(services.NewMemorySessionStore(sealer), services.NewEventHub(), api, opts)
	t.Cleanup(sessions.Shutdown)

	cookie := middleware.NewSessionCookie("taskio_session", false, sealer)
	accounts := services.NewAccountService(api, sessions)
	authHandler := NewAuthHandler(accounts, cookie)
	sessionHandler := NewSessionHandler(sessions)
	dashboardHandler := NewDashboardHandler(services.NewDashboardService(api))

	r := gin.New()
	r.Use(middleware.Session(sessions, cookie))
	r.POST("/api/auth/login", authHandler.Login)
	r.POST("/api/auth/logout", authHandler.Logout)

	protected := r.Group("/api", middleware.APIGuard())
	protected.GET("/session", sessionHandler.State)
	protected.POST("/session/navigate", middleware.Activity(), sessionHandler.Navigate)
	protected.POST("/dashboard/projects", middleware.APIGuard(models.RoleManager), dashboardHandler.CreateProject)

	return &testApp{router: r, sessions: sessions, auth: auth}
}

func (a *testApp) do(method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) response.Response {
	t.Helper()
	resp := response.Response{Data: data}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response %q: %v", w.Body.String(), err)
	}
	return resp
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "taskio_session" {
			return c
		}
	}
	return nil
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name    string
		body    LoginRequest
		err     error
		status  int
		message string
	}{
		{"empty fields", LoginRequest{Username: "ana"}, nil, http.StatusUnprocessableEntity, services.MsgAllFieldsRequired},
		{"bad password", LoginRequest{Username: "ana", Password: "x"}, &backend.APIError{Status: 401}, http.StatusUnauthorized, services.MsgInvalidCredentials},
		{"inactive", LoginRequest{Username: "ana", Password: "x"}, &backend.APIError{Status: 403}, http.StatusForbidden, services.MsgInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			app.auth.err = tt.err

			w := app.do("POST", "/api/auth/login", tt.body)
			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, w.Code)
			}
			if resp := decode(t, w, nil); resp.Message != tt.message {
				t.Errorf("expected %q, got %q", tt.message, resp.Message)
			}
			if c := sessionCookie(w); c != nil {
				t.Errorf("no cookie expected on failure, got %+v", c)
			}
		})
	}
}

func TestLogin_SessionRoundTrip(t *testing.T) {
	app := newTestApp(t)
	app.auth.reply = &models.LoginResponse{AccessToken: "tok", Role: models.RoleManager, UserID: "m1"}

	w := app.do("POST", "/api/auth/login", LoginRequest{Username: "ana", Password: "secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
	cookie := sessionCookie(w)
	if cookie == nil || !cookie.HttpOnly {
		t.Fatalf("expected an HttpOnly session cookie, got %+v", cookie)
	}
	var result LoginResult
	decode(t, w, &result)
	if result.Redirect != "/dashboard" || result.Role != models.RoleManager {
		t.Errorf("unexpected login result %+v", result)
	}

	w = app.do("POST", "/api/session/navigate", NavigateRequest{Route: services.RouteHistory}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("navigate failed: %d %s", w.Code, w.Body.String())
	}
	var state services.ShellState
	decode(t, w, &state)
	if state.Route != services.RouteHistory || state.UserID != "m1" {
		t.Errorf("unexpected state %+v", state)
	}

	w = app.do("POST", "/api/auth/logout", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("logout failed: %d", w.Code)
	}
	if cleared := sessionCookie(w); cleared == nil || cleared.MaxAge >= 0 {
		t.Errorf("logout should expire the cookie, got %+v", cleared)
	}
	if app.sessions.Active() != 0 {
		t.Errorf("expected no active sessions, got %d", app.sessions.Active())
	}

	if w = app.do("GET", "/api/session", nil, cookie); w.Code != http.StatusUnauthorized {
		t.Errorf("old cookie should no longer work, got %d", w.Code)
	}
}

func TestNavigate_MemberCannotOpenHistory(t *testing.T) {
	app := newTestApp(t)
	app.auth.reply = &models.LoginResponse{AccessToken: "tok", Role: models.RoleMember, UserID: "u1"}

	cookie := sessionCookie(app.do("POST", "/api/auth/login", LoginRequest{Username: "ana", Password: "secret"}))
	if cookie == nil {
		t.Fatal("login did not set a cookie")
	}

	w := app.do("POST", "/api/session/navigate", NavigateRequest{Route: services.RouteHistory}, cookie)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	w = app.do("POST", "/api/dashboard/projects", services.ProjectForm{Title: "Sprint 1"}, cookie)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("members may not create projects, got %d", w.Code)
	}
}

func TestCreateProject_InvalidFormKeepsInput(t *testing.T) {
	app := newTestApp(t)
	app.auth.reply = &models.LoginResponse{AccessToken: "tok", Role: models.RoleManager, UserID: "m1"}
	cookie := sessionCookie(app.do("POST", "/api/auth/login", LoginRequest{Username: "ana", Password: "secret"}))

	w := app.do("POST", "/api/dashboard/projects", services.ProjectForm{Title: "Sprint 1"}, cookie)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	var view services.DashboardView
	resp := decode(t, w, &view)
	if resp.Message != services.MsgFieldsRequired {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if view.Form.Title != "Sprint 1" || view.ErrorMessage != services.MsgFieldsRequired {
		t.Errorf("form should be returned as typed, got %+v", view)
	}
}
