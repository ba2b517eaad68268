package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/princinho/toursbackend/apperrors"
	"github.com/princinho/toursbackend/logger"
	"github.com/princinho/toursbackend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.InitWithWriter("production", &bytes.Buffer{})
	os.Exit(m.Run())
}

type authFunc func(ctx context.Context, token string) (*models.User, error)

func (f authFunc) Authenticate(ctx context.Context, token string) (*models.User, error) {
	return f(ctx, token)
}

var guide = &models.User{ID: bson.NewObjectID(), Name: "Guide", Role: models.RoleGuide}

// tokenAuth accepts exactly "good-token".
var tokenAuth = authFunc(func(_ context.Context, token string) (*models.User, error) {
	switch token {
	case "":
		return nil, apperrors.Unauthorized("You are not logged in! Please log in to get access.")
	case "good-token":
		return guide, nil
	}
	return nil, apperrors.Unauthorized("Invalid token. Please log in again!")
})

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func newRouter(production bool, handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler(production), Recovery())
	r.GET("/test", handlers...)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestProtect(t *testing.T) {
	var seen *models.User
	handler := func(c *gin.Context) {
		seen, _ = CurrentUser(c.Request.Context())
		c.Status(http.StatusNoContent)
	}
	r := newRouter(true, Protect(tokenAuth), handler)

	tests := []struct {
		name    string
		prepare func(*http.Request)
		status  int
		message string
	}{
		{
			name:    "no token",
			prepare: func(*http.Request) {},
			status:  http.StatusUnauthorized,
			message: "You are not logged in! Please log in to get access.",
		},
		{
			name:    "bad token",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer forged") },
			status:  http.StatusUnauthorized,
			message: "Invalid token. Please log in again!",
		},
		{
			name:    "bearer header",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer good-token") },
			status:  http.StatusNoContent,
		},
		{
			name:    "cookie",
			prepare: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "good-token"}) },
			status:  http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			tt.prepare(req)

			w := serve(r, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.message != "" {
				assert.Nil(t, seen, "handler must not run")
				assert.Equal(t, map[string]any{"status": "fail", "message": tt.message}, decode(t, w))
				return
			}
			require.NotNil(t, seen)
			assert.Equal(t, guide.ID, seen.ID)
		})
	}
}

func TestRestrictTo(t *testing.T) {
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	withUser := func(u *models.User) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Request = c.Request.WithContext(WithCurrentUser(c.Request.Context(), u))
		}
	}

	tests := []struct {
		name   string
		user   *models.User
		status int
	}{
		{name: "guide on admin route", user: &models.User{Role: models.RoleGuide}, status: http.StatusForbidden},
		{name: "admin", user: &models.User{Role: models.RoleAdmin}, status: http.StatusNoContent},
		{name: "lead guide", user: &models.User{Role: models.RoleLeadGuide}, status: http.StatusNoContent},
		{name: "no identity", user: nil, status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(true, withUser(tt.user), RestrictTo(models.RoleAdmin, models.RoleLeadGuide), ok)
			w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusForbidden {
				assert.Equal(t, "You do not have permission to perform this action", decode(t, w)["message"])
			}
		})
	}
}

func TestErrorHandler_Production(t *testing.T) {
	fail := func(err error) gin.HandlerFunc {
		return func(c *gin.Context) { c.Error(err) }
	}

	w := serve(newRouter(true, fail(apperrors.NotFound("No tour found with that ID"))), httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, map[string]any{"status": "fail", "message": "No tour found with that ID"}, decode(t, w))

	w = serve(newRouter(true, fail(errors.New("connection reset"))), httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, map[string]any{"status": "error", "message": "Something went very wrong!"}, decode(t, w))

	w = serve(newRouter(true, fail(&apperrors.CastError{Path: "_id", Value: "abc"})), httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid _id: abc", decode(t, w)["message"])
}

func TestErrorHandler_Development(t *testing.T) {
	r := newRouter(false, func(c *gin.Context) { c.Error(errors.New("connection reset")) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["error"], "connection reset")
	assert.NotEmpty(t, body["stack"])

	r = newRouter(false, func(c *gin.Context) { c.Error(apperrors.NotFound("No tour found with that ID")) })
	body = decode(t, serve(r, httptest.NewRequest(http.MethodGet, "/test", nil)))
	assert.Equal(t, "fail", body["status"])
	assert.NotContains(t, body, "stack", "client errors carry no stack")
}

func TestRecovery(t *testing.T) {
	r := newRouter(true, func(*gin.Context) { panic("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Something went very wrong!", decode(t, w)["message"])
}

func TestNotFound(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(true))
	r.NoRoute(NotFound())

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/nothing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Can't find /api/v1/nothing on this server!", decode(t, w)["message"])
}

func TestRequestID(t *testing.T) {
	var seen string
	r := gin.New()
	r.Use(RequestID(), RequestLogger())
	r.GET("/test", func(c *gin.Context) {
		seen = logger.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "3f1c8f0e-8f39-4d4c-9a53-0a1f0d4b8c11")
	w = serve(r, req)
	assert.Equal(t, "3f1c8f0e-8f39-4d4c-9a53-0a1f0d4b8c11", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "not a uuid")
	w = serve(r, req)
	assert.NotEqual(t, "not a uuid", w.Header().Get(RequestIDHeader))
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(true), BodyLimit(16, 1024))
	r.POST("/test", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"a":"b"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusNoContent, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"name":"`+strings.Repeat("x", 64)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(r, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
