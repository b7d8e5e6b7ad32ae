package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	patentapp "github.com/ipfolio/ipfolio/internal/application/patent"
	"github.com/ipfolio/ipfolio/internal/config"
	domain "github.com/ipfolio/ipfolio/internal/domain/patent"
	"github.com/ipfolio/ipfolio/internal/domain/user"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
	"github.com/ipfolio/ipfolio/internal/interfaces/http/handlers"
	"github.com/ipfolio/ipfolio/internal/interfaces/http/middleware"
)

type stubPatentService struct {
	mock.Mock
	patentapp.Service
}

func (s *stubPatentService) Get(ctx context.Context, p user.Principal, id int64) (*domain.Patent, error) {
	args := s.Called(ctx, p, id)
	if v := args.Get(0); v != nil {
		return v.(*domain.Patent), args.Error(1)
	}
	return nil, args.Error(1)
}

func testRouter(t *testing.T, svc patentapp.Service) (http.Handler, config.AuthConfig) {
	t.Helper()
	authCfg := config.AuthConfig{
		JWTSecret:    "router-test-secret",
		ClockSkew:    time.Second,
		RequireToken: true,
	}
	logger := logging.NewNopLogger()
	r := NewRouter(RouterConfig{
		PatentHandler:  handlers.NewPatentHandler(svc, logger),
		HealthHandler:  handlers.NewHealthHandler(nil, nil, logger),
		AuthMiddleware: middleware.NewAuthMiddleware(authCfg, logger, nil),
		Mode:           "test",
		Logger:         logger,
	})
	return r, authCfg
}

func TestRouterHealthIsPublic(t *testing.T) {
	r, _ := testRouter(t, &stubPatentService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterAPIRequiresToken(t *testing.T) {
	r, _ := testRouter(t, &stubPatentService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/patents/1", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouterAuthenticatedRequestReachesHandler(t *testing.T) {
	svc := &stubPatentService{}
	svc.On("Get", mock.Anything, mock.Anything, int64(1)).
		Return(&domain.Patent{ID: 1, Title: "Optical sensor array"}, nil)
	r, authCfg := testRouter(t, svc)

	token, err := middleware.IssueToken(authCfg, user.Principal{UserID: "admin-1", Role: user.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patents/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestRouterUnknownRouteIs404(t *testing.T) {
	r, _ := testRouter(t, &stubPatentService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
