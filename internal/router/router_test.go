package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"willtank/internal/auth"
	"willtank/internal/config"
	apperrors "willtank/internal/errors"
	"willtank/internal/handler"
	"willtank/internal/model"
	"willtank/internal/validator"
)

type stubUserService struct{}

func (stubUserService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return &model.User{ID: id, Name: "Ada", Email: "ada@example.com"}, nil
}

func (stubUserService) UpdateProfile(ctx context.Context, id uuid.UUID, name string) (*model.User, error) {
	return &model.User{ID: id, Name: name}, nil
}

func (stubUserService) CompleteOnboarding(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return &model.User{ID: id, OnboardingCompleted: true}, nil
}

type memTokens struct {
	revoked map[string]bool
	err     error
}

func (m *memTokens) StoreRefreshToken(ctx context.Context, tokenID string, userID uuid.UUID, email string, ttl time.Duration) error {
	return nil
}

func (m *memTokens) GetRefreshToken(ctx context.Context, tokenID string) (uuid.UUID, string, error) {
	return uuid.Nil, "", auth.ErrRefreshTokenNotFound
}

func (m *memTokens) DeleteRefreshToken(ctx context.Context, tokenID string) error { return nil }

func (m *memTokens) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	m.revoked[tokenID] = true
	return nil
}

func (m *memTokens) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	return m.revoked[tokenID], m.err
}

const testSecret = "router-test-secret"

func newServer(tokens *memTokens) *echo.Echo {
	e := echo.New()
	Register(e, &config.Config{JWTSecret: testSecret}, Handlers{
		User: handler.NewUserHandler(stubUserService{}),
	}, tokens)
	return e
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSecuredRoutes(t *testing.T) {
	jwtSvc := auth.NewJWTService(testSecret)
	userID := uuid.New()

	accessID, access, err := jwtSvc.GenerateAccessToken(userID, "ada@example.com")
	require.NoError(t, err)
	_, refresh, err := jwtSvc.GenerateRefreshToken(userID, "ada@example.com")
	require.NoError(t, err)
	_, foreign, err := auth.NewJWTService("another-secret").GenerateAccessToken(userID, "ada@example.com")
	require.NoError(t, err)

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		revoked bool
		status  int
	}{
		{name: "no token", prepare: func(r *http.Request) {}, status: http.StatusUnauthorized},
		{
			name:    "bearer access token",
			prepare: func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+access) },
			status:  http.StatusOK,
		},
		{
			name:    "session cookie",
			prepare: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: handler.SessionCookie, Value: access}) },
			status:  http.StatusOK,
		},
		{
			name:    "refresh token is not a session",
			prepare: func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+refresh) },
			status:  http.StatusUnauthorized,
		},
		{
			name:    "wrong signing key",
			prepare: func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+foreign) },
			status:  http.StatusUnauthorized,
		},
		{
			name:    "revoked after logout",
			prepare: func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+access) },
			revoked: true,
			status:  http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := &memTokens{revoked: map[string]bool{}}
			if tt.revoked {
				tokens.revoked[accessID] = true
			}
			e := newServer(tokens)

			req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusOK {
				var user model.User
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
				assert.Equal(t, userID, user.ID)
				return
			}
			assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)
		})
	}
}

func TestSecuredRoutes_BlacklistOutage(t *testing.T) {
	userID := uuid.New()
	_, access, err := auth.NewJWTService(testSecret).GenerateAccessToken(userID, "ada@example.com")
	require.NoError(t, err)

	e := newServer(&memTokens{revoked: map[string]bool{}, err: errors.New("redis down")})
	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	e := newServer(&memTokens{revoked: map[string]bool{}})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "validation",
			err:    &validator.ValidationError{Errors: map[string]string{"email": "is required"}},
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
		{
			name:   "echo not found",
			err:    echo.ErrNotFound,
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
		},
		{
			name:   "echo body limit",
			err:    echo.ErrStatusRequestEntityTooLarge,
			status: http.StatusRequestEntityTooLarge,
			code:   "FILE_TOO_LARGE",
		},
		{
			name:   "wrapped domain error",
			err:    fmt.Errorf("lock: %w", apperrors.ErrWillLocked),
			status: http.StatusConflict,
			code:   "WILL_LOCKED",
		},
		{
			name:   "unknown",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			code:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			HTTPErrorHandler(tt.err, c)

			assert.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Code)
			if tt.code == "VALIDATION_ERROR" {
				assert.Equal(t, "is required", body.Details["email"])
			}
		})
	}
}

func TestBodyLimit(t *testing.T) {
	assert.Equal(t, "12M", bodyLimit(0))
	assert.Equal(t, "11264K", bodyLimit(10<<20))
}

func TestAuthRateLimit(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, AuthRateLimit(3))
	e.POST("/open", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, AuthRateLimit(0))

	send := func(path, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = ip + ":5000"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, send("/login", "203.0.113.7").Code)
	}
	rec := send("/login", "203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec).Code)

	assert.Equal(t, http.StatusNoContent, send("/login", "198.51.100.4").Code)

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusNoContent, send("/open", "203.0.113.7").Code)
	}
}
