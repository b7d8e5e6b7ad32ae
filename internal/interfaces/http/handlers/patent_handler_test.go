package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	patentapp "github.com/ipfolio/ipfolio/internal/application/patent"
	domain "github.com/ipfolio/ipfolio/internal/domain/patent"
	"github.com/ipfolio/ipfolio/internal/domain/user"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
	"github.com/ipfolio/ipfolio/pkg/errors"
)

type mockPatentService struct {
	mock.Mock
}

func (m *mockPatentService) Create(ctx context.Context, p user.Principal, spec domain.CreateSpec) (*domain.Patent, error) {
	args := m.Called(ctx, p, spec)
	if v := args.Get(0); v != nil {
		return v.(*domain.Patent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPatentService) Update(ctx context.Context, p user.Principal, id int64, spec domain.UpdateSpec) (*domain.Patent, error) {
	args := m.Called(ctx, p, id, spec)
	if v := args.Get(0); v != nil {
		return v.(*domain.Patent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPatentService) Get(ctx context.Context, p user.Principal, id int64) (*domain.Patent, error) {
	args := m.Called(ctx, p, id)
	if v := args.Get(0); v != nil {
		return v.(*domain.Patent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPatentService) List(ctx context.Context, p user.Principal, input patentapp.ListInput) (*patentapp.ListResult, error) {
	args := m.Called(ctx, p, input)
	if v := args.Get(0); v != nil {
		return v.(*patentapp.ListResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPatentService) UserCanAccess(ctx context.Context, p user.Principal, id int64) (bool, error) {
	args := m.Called(ctx, p, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockPatentService) Delete(ctx context.Context, p user.Principal, id int64) error {
	args := m.Called(ctx, p, id)
	return args.Error(0)
}

// withPrincipal injects a fixed caller identity, standing in for the auth
// middleware.
func withPrincipal(p user.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("auth.principal", p)
		c.Next()
	}
}

func adminPrincipal() user.Principal {
	return user.Principal{UserID: "admin-1", Role: user.RoleAdmin}.Normalize()
}

func patentTestRouter(svc patentapp.Service, p user.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPatentHandler(svc, logging.NewNopLogger())
	r := gin.New()
	r.Use(withPrincipal(p))
	r.GET("/patents", h.List)
	r.POST("/patents", h.Create)
	r.GET("/patents/:id", h.Get)
	r.PUT("/patents/:id", h.Update)
	r.DELETE("/patents/:id", h.Delete)
	r.GET("/patents/:id/access", h.Access)
	return r
}

func jsonRequest(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPatentCreateReturns201(t *testing.T) {
	svc := &mockPatentService{}
	svc.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Patent{ID: 42, Title: "Optical sensor array"}, nil)
	r := patentTestRouter(svc, adminPrincipal())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPost, "/patents", domain.CreateSpec{
		Title:     "Optical sensor array",
		ClientIDs: []int64{7},
	}))

	require.Equal(t, http.StatusCreated, w.Code)
	var got domain.Patent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(42), got.ID)
	svc.AssertExpectations(t)
}

func TestPatentCreateValidationErrorCarriesViolations(t *testing.T) {
	svc := &mockPatentService{}
	svc.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.Validation("patent aggregate invalid", errors.FieldViolation{
			Field: "title", Rule: "required", Message: "title must be set",
		}))
	r := patentTestRouter(svc, adminPrincipal())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPost, "/patents", domain.CreateSpec{}))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body struct {
		Error struct {
			Code       string `json:"code"`
			Violations []struct {
				Field string `json:"field"`
				Rule  string `json:"rule"`
			} `json:"violations"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Error.Violations, 1)
	assert.Equal(t, "title", body.Error.Violations[0].Field)
	assert.Equal(t, "required", body.Error.Violations[0].Rule)
}

func TestPatentCreateMalformedBody(t *testing.T) {
	svc := &mockPatentService{}
	r := patentTestRouter(svc, adminPrincipal())

	req := httptest.NewRequest(http.MethodPost, "/patents", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Create")
}

func TestPatentGetNotFoundMapsTo404(t *testing.T) {
	svc := &mockPatentService{}
	svc.On("Get", mock.Anything, mock.Anything, int64(99)).
		Return(nil, errors.New(errors.ErrCodePatentNotFound, "patent 99 not found"))
	r := patentTestRouter(svc, adminPrincipal())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodGet, "/patents/99", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPatentGetInvalidIDRejectedBeforeService(t *testing.T) {
	svc := &mockPatentService{}
	r := patentTestRouter(svc, adminPrincipal())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodGet, "/patents/abc", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Get")
}

func TestPatentUpdateOmittedDepositsKeepStored(t *testing.T) {
	svc := &mockPatentService{}
	var captured domain.UpdateSpec
	svc.On("Update", mock.Anything, mock.Anything, int64(5), mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(3).(domain.UpdateSpec)
		}).
		Return(&domain.Patent{ID: 5}, nil)
	r := patentTestRouter(svc, adminPrincipal())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPut, "/patents/5", gin.H{"title": "Renamed"}))

	require.Equal(t, http.StatusOK, w.Code)
	_, replace := captured.Deposits.Records()
	assert.False(t, replace, "omitted deposits key must keep stored records")
	require.NotNil(t, captured.Title)
	assert.Equal(t, "Renamed", *captured.Title)
}

func TestPatentUpdateSuppliedDepositsReplace(t *testing.T) {
	svc := &mockPatentService{}
	var captured domain.UpdateSpec
	svc.On("Update", mock.Anything, mock.Anything, int64(5), mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(3).(domain.UpdateSpec)
		}).
		Return(&domain.Patent{ID: 5}, nil)
	r := patentTestRouter(svc, adminPrincipal())

	countryID := int64(1)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPut, "/patents/5", gin.H{
		"deposits": []domain.DepositRecord{{CountryID: &countryID, DepositNumber: "FR123"}},
	}))

	require.Equal(t, http.StatusOK, w.Code)
	records, replace := captured.Deposits.Records()
	assert.True(t, replace)
	require.Len(t, records, 1)
	assert.Equal(t, "FR123", records[0].DepositNumber)
}

func TestPatentDeleteReturns204(t *testing.T) {
	svc := &mockPatentService{}
	svc.On("Delete", mock.Anything, mock.Anything, int64(42)).Return(nil)
	r := patentTestRouter(svc, adminPrincipal())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodDelete, "/patents/42", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}

func TestPatentDeleteDeniedMapsTo403(t *testing.T) {
	svc := &mockPatentService{}
	svc.On("Delete", mock.Anything, mock.Anything, int64(42)).
		Return(errors.New(errors.ErrCodeWriteDenied, "write access denied"))
	r := patentTestRouter(svc, adminPrincipal())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodDelete, "/patents/42", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPatentListPassesQueryAndPagination(t *testing.T) {
	svc := &mockPatentService{}
	var captured patentapp.ListInput
	svc.On("List", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(patentapp.ListInput)
		}).
		Return(&patentapp.ListResult{Items: []*domain.Patent{}, Page: 2, PageSize: 10}, nil)
	r := patentTestRouter(svc, adminPrincipal())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodGet, "/patents?q=sensor&page=2&page_size=10", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sensor", captured.Query)
	assert.Equal(t, 2, captured.Page.Page)
	assert.Equal(t, 10, captured.Page.PageSize)
}

func TestPatentAccessEndpoint(t *testing.T) {
	svc := &mockPatentService{}
	svc.On("UserCanAccess", mock.Anything, mock.Anything, int64(8)).Return(true, nil)
	r := patentTestRouter(svc, adminPrincipal())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodGet, "/patents/8/access", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["allowed"])
}

// no principal in context
func TestPatentGetWithoutPrincipalIs401(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewPatentHandler(&mockPatentService{}, logging.NewNopLogger())
	r := gin.New()
	r.GET("/patents/:id", h.Get)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodGet, "/patents/1", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
