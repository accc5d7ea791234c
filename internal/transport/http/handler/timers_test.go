package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/timeweaver-api/internal/config"
	"github.com/timeweaver-api/internal/domain"
	jwtinfra "github.com/timeweaver-api/internal/infrastructure/jwt"
	"github.com/timeweaver-api/internal/transport/http/middleware"
)

// --- mock ---

type mockTimerSvc struct{ mock.Mock }

func (m *mockTimerSvc) List(ctx context.Context, userID string) ([]domain.TimerView, error) {
	args := m.Called(ctx, userID)
	if v, _ := args.Get(0).([]domain.TimerView); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTimerSvc) Create(ctx context.Context, userID string, req domain.CreateTimerRequest) (*domain.Timer, error) {
	args := m.Called(ctx, userID, req)
	if t, _ := args.Get(0).(*domain.Timer); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTimerSvc) Remove(ctx context.Context, userID, timerID string) error {
	return m.Called(ctx, userID, timerID).Error(0)
}

// --- helpers ---

// newTestJWTProvider generates a fresh RSA key pair and returns a *jwtinfra.Provider.
func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         24 * time.Hour,
	})
	require.NoError(t, err)
	return p
}

// bearerReq builds a request with a signed Bearer token for the given userID.
func bearerReq(t *testing.T, p *jwtinfra.Provider, method, target, userID string, body []byte) *http.Request {
	t.Helper()
	token, err := p.Sign(userID, "sess1")
	require.NoError(t, err)
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

// withChiID injects a chi URL param "id" into the request context.
func withChiID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// serveAuthed wraps the handler with middleware.Auth before serving.
func serveAuthed(p *jwtinfra.Provider, h http.Handler, w http.ResponseWriter, r *http.Request) {
	middleware.Auth(p)(h).ServeHTTP(w, r)
}

// --- Create tests ---

func TestCreateTimer_MissingClaims(t *testing.T) {
	svc := &mockTimerSvc{}
	h := NewTimerHandler(svc)
	r := httptest.NewRequest(http.MethodPost, "/v1/timers", nil)
	rr := httptest.NewRecorder()
	h.Create(rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateTimer_InvalidBody(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockTimerSvc{}
	h := NewTimerHandler(svc)

	r := bearerReq(t, p, http.MethodPost, "/v1/timers", "u1", []byte("not-json"))
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Create), rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateTimer_PastTarget(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockTimerSvc{}
	svc.On("Create", mock.Anything, "u1", mock.Anything).Return(nil, domain.ErrBadRequest)
	h := NewTimerHandler(svc)
	body, _ := json.Marshal(domain.CreateTimerRequest{
		Title:      "Launch",
		TargetDate: time.Now().Add(-time.Hour).Format(time.RFC3339),
	})

	r := bearerReq(t, p, http.MethodPost, "/v1/timers", "u1", body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Create), rr, r)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	svc.AssertExpectations(t)
}

func TestCreateTimer_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockTimerSvc{}
	target := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	created := &domain.Timer{TimerID: "t1", UserID: "u1", Title: "Launch", TargetDate: target}
	svc.On("Create", mock.Anything, "u1", mock.Anything).Return(created, nil)
	h := NewTimerHandler(svc)
	body, _ := json.Marshal(domain.CreateTimerRequest{
		Title:      "Launch",
		TargetDate: target.Format(time.RFC3339),
		TimeZone:   "Europe/Madrid",
	})

	r := bearerReq(t, p, http.MethodPost, "/v1/timers", "u1", body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Create), rr, r)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp domain.Timer
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "t1", resp.TimerID)
	assert.Equal(t, "Launch", resp.Title)
	svc.AssertExpectations(t)
}

// --- List tests ---

func TestListTimers_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockTimerSvc{}
	views := []domain.TimerView{
		{Timer: domain.Timer{TimerID: "t1", UserID: "u1", Title: "Launch"}, TimeLeft: domain.TimeLeft{Hours: 1}},
	}
	svc.On("List", mock.Anything, "u1").Return(views, nil)
	h := NewTimerHandler(svc)

	r := bearerReq(t, p, http.MethodGet, "/v1/timers", "u1", nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.List), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp TimersEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "t1", resp.Data[0].TimerID)
	assert.Equal(t, 1, resp.Data[0].TimeLeft.Hours)
	svc.AssertExpectations(t)
}

func TestListTimers_AnonymousIdentity(t *testing.T) {
	svc := &mockTimerSvc{}
	svc.On("List", mock.Anything, domain.AnonymousUserID).Return([]domain.TimerView{}, nil)
	h := NewTimerHandler(svc)

	r := httptest.NewRequest(http.MethodGet, "/v1/timers", nil)
	rr := httptest.NewRecorder()
	middleware.Anonymous(http.HandlerFunc(h.List)).ServeHTTP(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

// --- Delete tests ---

func TestDeleteTimer_NotOwner(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockTimerSvc{}
	svc.On("Remove", mock.Anything, "u1", "t2").Return(domain.ErrForbidden)
	h := NewTimerHandler(svc)

	r := bearerReq(t, p, http.MethodDelete, "/v1/timers/t2", "u1", nil)
	r = withChiID(r, "t2")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Delete), rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	svc.AssertExpectations(t)
}

func TestDeleteTimer_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockTimerSvc{}
	svc.On("Remove", mock.Anything, "u1", "t1").Return(nil)
	h := NewTimerHandler(svc)

	r := bearerReq(t, p, http.MethodDelete, "/v1/timers/t1", "u1", nil)
	r = withChiID(r, "t1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Delete), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}
