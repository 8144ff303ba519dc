package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/projectdesk/internal/auth"
	"github.com/vedran77/projectdesk/internal/client"
	"github.com/vedran77/projectdesk/internal/domain"
	"github.com/vedran77/projectdesk/internal/metrics"
	"github.com/vedran77/projectdesk/internal/service"
	"github.com/vedran77/projectdesk/internal/transport/ws"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"nhooyr.io/websocket"
)

type stack struct {
	store  *fakeStore
	issuer *auth.Issuer
	hub    *ws.Hub
	srv    *httptest.Server
}

func newStack(t *testing.T, health func(context.Context) error) *stack {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := newFakeStore()
	log := zap.NewNop()
	issuer := auth.NewIssuer("test-secret", time.Hour)
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	projectService := service.NewProjectService(fakeProjects{store}, fakeUsers{store})
	projectService.SetNotifier(ws.NewHubNotifier(hub))

	router := NewRouter(RouterDeps{
		Auth:        NewAuthHandler(service.NewAuthService(fakeUsers{store}, issuer, bcrypt.MinCost), log, m),
		Users:       NewUserHandler(service.NewUserService(fakeUsers{store}, bcrypt.MinCost), log),
		Projects:    NewProjectHandler(projectService, log),
		Issuer:      issuer,
		Log:         log,
		CORSOrigins: []string{"http://localhost:8080"},
		Metrics:     m,
		Registry:    registry,
		Hub:         hub,
		HealthCheck: health,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &stack{store: store, issuer: issuer, hub: hub, srv: srv}
}

func (s *stack) tokenFor(t *testing.T, u domain.User) string {
	t.Helper()
	tok, err := s.issuer.Sign(s.issuer.ClaimsFor(&u))
	require.NoError(t, err)
	return tok
}

func (s *stack) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRouter_RegisterScenario(t *testing.T) {
	s := newStack(t, nil)
	body := `{"email":"a@x.com","name":"A","password":"secret1"}`

	resp := s.do(t, http.MethodPost, "/auth/register", "", body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRouter_Guards(t *testing.T) {
	s := newStack(t, nil)
	admin := seedUser(t, s.store, "admin@x.com", domain.RoleAdmin, "secret1")
	user := seedUser(t, s.store, "u@x.com", domain.RoleUser, "secret1")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"projects anonymous", http.MethodGet, "/projects", "", http.StatusUnauthorized},
		{"projects as user", http.MethodGet, "/projects", s.tokenFor(t, user), http.StatusForbidden},
		{"projects as admin", http.MethodGet, "/projects", s.tokenFor(t, admin), http.StatusOK},
		{"users as user", http.MethodGet, "/users", s.tokenFor(t, user), http.StatusForbidden},
		{"own profile", http.MethodGet, "/users/" + user.ID.String(), s.tokenFor(t, user), http.StatusOK},
		{"other profile", http.MethodGet, "/users/" + admin.ID.String(), s.tokenFor(t, user), http.StatusForbidden},
		{"delete as user", http.MethodDelete, "/projects/" + uuid.NewString(), s.tokenFor(t, user), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.do(t, tt.method, tt.path, tt.token, "").StatusCode)
		})
	}
}

func TestRouter_ExpiredTokenIsPlainUnauthorized(t *testing.T) {
	s := newStack(t, nil)
	admin := seedUser(t, s.store, "admin@x.com", domain.RoleAdmin, "secret1")

	past := time.Now().Add(-2 * time.Hour)
	tok, err := s.issuer.Sign(auth.Claims{
		UserID: admin.ID.String(), Role: domain.RoleAdmin,
		IssuedAt: past, ExpiresAt: past.Add(time.Hour),
	})
	require.NoError(t, err)

	resp := s.do(t, http.MethodGet, "/projects", tok, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	data, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, strings.ToLower(string(data)), "expired")
}

// Assign, observe, unassign through the dashboard's own API client.
func TestRouter_AssignScenarioThroughClient(t *testing.T) {
	s := newStack(t, nil)
	admin := seedUser(t, s.store, "admin@x.com", domain.RoleAdmin, "secret1")
	u1 := seedUser(t, s.store, "u1@x.com", domain.RoleUser, "secret1")
	p1 := seedProject(s.store, "p1", domain.ProjectInProgress)

	api := client.NewAPI(s.srv.URL, staticToken(s.tokenFor(t, admin)))
	ctx := context.Background()

	require.NoError(t, api.AssignProject(ctx, p1.ID.String(), u1.ID.String()))
	projects, err := api.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.NotNil(t, projects[0].Assignee)
	assert.Equal(t, u1.ID.String(), projects[0].Assignee.ID)

	again, err := api.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, projects, again)

	require.NoError(t, api.AssignProject(ctx, p1.ID.String(), ""))
	projects, err = api.ListProjects(ctx)
	require.NoError(t, err)
	assert.Nil(t, projects[0].Assignee)

	err = api.DeleteProject(ctx, uuid.NewString())
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

type staticToken string

func (t staticToken) Token() string { return string(t) }

func TestRouter_Health(t *testing.T) {
	ok := newStack(t, func(context.Context) error { return nil })
	assert.Equal(t, http.StatusOK, ok.do(t, http.MethodGet, "/health", "", "").StatusCode)

	down := newStack(t, func(context.Context) error { return errors.New("db down") })
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/health", "", "").StatusCode)
}

func TestRouter_Metrics(t *testing.T) {
	s := newStack(t, nil)
	s.do(t, http.MethodPost, "/auth/register", "", `{"email":"a@x.com","name":"A","password":"secret1"}`)

	resp := s.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(data), `projectdesk_registrations_total{result="created"} 1`)
}

func TestRouter_CORSPreflight(t *testing.T) {
	s := newStack(t, nil)

	req, err := http.NewRequest(http.MethodOptions, s.srv.URL+"/auth/register", bytes.NewReader(nil))
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:8080")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:8080", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouter_WebSocketThroughMiddleware(t *testing.T) {
	s := newStack(t, nil)
	admin := seedUser(t, s.store, "admin@x.com", domain.RoleAdmin, "secret1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := strings.Replace(s.srv.URL, "http://", "ws://", 1) + "/ws?token=" + s.tokenFor(t, admin)
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
}
