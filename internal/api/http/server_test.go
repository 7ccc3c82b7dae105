package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medstage_backend/config"
	"github.com/Alijeyrad/medstage_backend/internal/api/http/router"
	"github.com/Alijeyrad/medstage_backend/internal/domain"
	"github.com/Alijeyrad/medstage_backend/internal/service/application"
	"github.com/Alijeyrad/medstage_backend/internal/service/evaluation"
	"github.com/Alijeyrad/medstage_backend/internal/service/internship"
	"github.com/Alijeyrad/medstage_backend/internal/service/servicetest"
	"github.com/Alijeyrad/medstage_backend/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/medstage_backend/pkg/paseto"
)

type testServer struct {
	app    *fiber.App
	f      *servicetest.Fixture
	tokens map[domain.Actor]string
	mgr    *pasetotoken.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	f := servicetest.New(t, 2)

	enforcer, err := authorize.NewMemoryEnforcer("")
	require.NoError(t, err)
	auth, err := authorize.NewAuthorization(enforcer)
	require.NoError(t, err)

	keys := pasetotoken.NewLocalKeys()
	mgr, err := pasetotoken.New(pasetotoken.Config{Mode: keys.Mode, Issuer: "medstage", Audience: "medstage"}, keys)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.Environment = "test"

	app := NewApp(cfg, nil, false)
	router.NewRouter(router.Params{
		Cfg:             cfg,
		Auth:            auth,
		PasetoMgr:       mgr,
		Registry:        f.Push,
		InternshipSvc:   internship.New(f.Store, f.Notify),
		ApplicationSvc:  application.New(f.Store, f.Notify),
		EvaluationSvc:   evaluation.New(f.Store, f.Notify, evaluation.Options{}),
		NotificationSvc: f.Ledger,
	}).Register(app)

	return &testServer{app: app, f: f, tokens: map[domain.Actor]string{}, mgr: mgr}
}

func (s *testServer) token(t *testing.T, a domain.Actor) string {
	t.Helper()
	if tok, ok := s.tokens[a]; ok {
		return tok
	}
	tok, err := s.mgr.IssueAccess(a, nil)
	require.NoError(t, err)
	s.tokens[a] = tok
	return tok
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func (s *testServer) do(t *testing.T, a *domain.Actor, method, path string, body any) (int, envelope) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if a != nil {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token(t, *a))
	}

	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v), string(env.Data))
	return v
}

func TestRequiresAccessToken(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, nil, fiber.MethodGet, "/api/v1/internships", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.NotEmpty(t, env.Error)

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/internships", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-token")
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHealthEndpointsArePublic(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.app.Test(httptest.NewRequest(fiber.MethodGet, healthcheck.LivenessEndpoint, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRolePolicyIsEnforced(t *testing.T) {
	s := newTestServer(t)
	student := s.f.Students[0]

	code, _ := s.do(t, &student, fiber.MethodPost, "/api/v1/internships", map[string]any{"title": "x"})
	assert.Equal(t, fiber.StatusForbidden, code)

	code, _ = s.do(t, &s.f.Chief, fiber.MethodDelete, "/api/v1/internships/"+domain.NewID().String(), nil)
	assert.Equal(t, fiber.StatusForbidden, code, "only the dean deletes")

	code, _ = s.do(t, &s.f.Doctor, fiber.MethodPost, "/api/v1/applications/"+domain.NewID().String()+"/decision",
		map[string]any{"decision": "accepted"})
	assert.Equal(t, fiber.StatusForbidden, code)
}

func TestPlacementFlow(t *testing.T) {
	s := newTestServer(t)
	chief := s.f.Chief
	alice, bob := s.f.Students[0], s.f.Students[1]
	start := time.Now().AddDate(0, 1, 0).UTC().Truncate(time.Second)

	code, env := s.do(t, &chief, fiber.MethodPost, "/api/v1/internships", map[string]any{
		"title":         "Cardiology rotation",
		"department_id": s.f.DepartmentID,
		"total_places":  1,
		"start_date":    start,
		"end_date":      start.AddDate(0, 3, 0),
	})
	require.Equal(t, fiber.StatusCreated, code, env.Error)
	in := decode[domain.Internship](t, env)
	assert.Equal(t, domain.InternshipActive, in.Status)
	assert.Equal(t, chief.UserID, *in.ChiefID)

	code, env = s.do(t, &alice, fiber.MethodGet, "/api/v1/internships", nil)
	require.Equal(t, fiber.StatusOK, code)
	listed := decode[[]map[string]any](t, env)
	require.Len(t, listed, 1)
	assert.Equal(t, false, listed[0]["has_applied"])

	applyPath := "/api/v1/internships/" + in.ID.String() + "/applications"
	code, env = s.do(t, &alice, fiber.MethodPost, applyPath, map[string]any{"motivation": "cardiology"})
	require.Equal(t, fiber.StatusCreated, code, env.Error)
	app := decode[domain.Application](t, env)
	assert.Equal(t, domain.ApplicationPending, app.Status)

	code, env = s.do(t, &alice, fiber.MethodPost, applyPath, nil)
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Contains(t, env.Error, "duplicate")

	code, env = s.do(t, &bob, fiber.MethodPost, applyPath, nil)
	require.Equal(t, fiber.StatusCreated, code, env.Error)
	bobApp := decode[domain.Application](t, env)

	code, env = s.do(t, &chief, fiber.MethodPost, "/api/v1/applications/"+app.ID.String()+"/decision",
		map[string]any{"decision": "accepted"})
	require.Equal(t, fiber.StatusOK, code, env.Error)
	assert.Equal(t, domain.ApplicationAccepted, decode[domain.Application](t, env).Status)

	code, env = s.do(t, &chief, fiber.MethodGet, "/api/v1/internships/"+in.ID.String(), nil)
	require.Equal(t, fiber.StatusOK, code)
	got := decode[domain.Internship](t, env)
	assert.Equal(t, 1, got.FilledPlaces)
	assert.Equal(t, domain.InternshipFull, got.Status)

	code, env = s.do(t, &chief, fiber.MethodPost, "/api/v1/applications/"+bobApp.ID.String()+"/decision",
		map[string]any{"decision": "accepted"})
	assert.Equal(t, fiber.StatusConflict, code, env.Error)

	code, _ = s.do(t, &alice, fiber.MethodPost, "/api/v1/applications/"+app.ID.String()+"/cancel", nil)
	assert.Equal(t, fiber.StatusConflict, code, "accepted applications stay")

	code, env = s.do(t, &alice, fiber.MethodGet, "/api/v1/notifications/unread-count", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, 4, decode[map[string]int](t, env)["unread"], "created, submitted, accepted, full")

	code, env = s.do(t, &alice, fiber.MethodGet, "/api/v1/notifications?limit=2", nil)
	require.Equal(t, fiber.StatusOK, code)
	latest := decode[[]domain.Notification](t, env)
	require.Len(t, latest, 2)
	assert.Equal(t, "Internship full", latest[0].Title)
	assert.Equal(t, "Application accepted", latest[1].Title)

	code, _ = s.do(t, &alice, fiber.MethodPatch, "/api/v1/notifications/"+latest[0].ID.String()+"/read", nil)
	assert.Equal(t, fiber.StatusNoContent, code)

	code, env = s.do(t, &alice, fiber.MethodPatch, "/api/v1/notifications/read-all", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, 3, decode[map[string]int](t, env)["updated"])
}

func TestEvaluationFlow(t *testing.T) {
	s := newTestServer(t)
	student := s.f.Students[0]
	in := s.f.Internship(t, 2)

	app, err := application.New(s.f.Store, s.f.Notify).Apply(t.Context(), student, in.ID, "")
	require.NoError(t, err)
	_, err = application.New(s.f.Store, s.f.Notify).Decide(t.Context(), s.f.Chief, app.ID,
		application.DecideRequest{Decision: "accepted"})
	require.NoError(t, err)

	code, env := s.do(t, &s.f.Doctor, fiber.MethodPost, "/api/v1/applications/"+app.ID.String()+"/evaluation", nil)
	require.Equal(t, fiber.StatusOK, code, env.Error)
	ev := decode[domain.Evaluation](t, env)
	base := "/api/v1/evaluations/" + ev.ID.String()

	code, env = s.do(t, &s.f.Doctor, fiber.MethodPost, base+"/submit", map[string]any{
		"attendance": 80, "practical_skills": 90, "professional_behavior": 70, "comments": "solid",
	})
	require.Equal(t, fiber.StatusOK, code, env.Error)
	ev = decode[domain.Evaluation](t, env)
	require.NotNil(t, ev.Score)
	assert.InDelta(t, 80.0, *ev.Score, 0.001)

	code, _ = s.do(t, &s.f.Doctor, fiber.MethodPut, base+"/draft", map[string]any{"attendance": 10})
	assert.Equal(t, fiber.StatusConflict, code, "submitted evaluations are frozen")

	code, _ = s.do(t, &s.f.OtherChief, fiber.MethodPost, base+"/validate", nil)
	assert.Equal(t, fiber.StatusForbidden, code)

	code, env = s.do(t, &s.f.Chief, fiber.MethodPost, base+"/validate", map[string]any{"chief_comments": "agreed"})
	require.Equal(t, fiber.StatusOK, code, env.Error)
	assert.True(t, decode[domain.Evaluation](t, env).Validated)

	code, env = s.do(t, &student, fiber.MethodGet, "/api/v1/evaluations", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, decode[[]domain.Evaluation](t, env), 1)

	code, _ = s.do(t, &student, fiber.MethodGet, "/api/v1/evaluations/not-an-id", nil)
	assert.Equal(t, fiber.StatusBadRequest, code)
}
