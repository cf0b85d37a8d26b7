package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ds124wfegd/eshikshan/internal/entity"
	"github.com/ds124wfegd/eshikshan/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(manager *auth.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Authenticate(manager))
	router.GET("/me", func(c *gin.Context) {
		actor, _ := ActorFromContext(c)
		c.JSON(http.StatusOK, actor)
	})
	router.GET("/staff", RequireRole(entity.RoleInstructor, entity.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestAuthenticate(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour)
	expired := auth.NewJWTManager("secret", -time.Minute)

	student, err := manager.GenerateToken(1, "Asha@Example.com", "Asha", "student")
	require.NoError(t, err)
	instructor, err := manager.GenerateToken(10, "ravi@example.com", "Ravi", "INSTRUCTOR")
	require.NoError(t, err)
	stale, err := expired.GenerateToken(1, "asha@example.com", "Asha", "student")
	require.NoError(t, err)
	unknownRole, err := manager.GenerateToken(1, "asha@example.com", "Asha", "janitor")
	require.NoError(t, err)
	noEmail, err := manager.GenerateToken(1, "", "Asha", "student")
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"student reads self", "/me", "Bearer " + student, http.StatusOK},
		{"lower-case scheme", "/me", "bearer " + student, http.StatusOK},
		{"query token", "/me?token=" + student, "", http.StatusOK},
		{"no header", "/me", "", http.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic " + student, http.StatusUnauthorized},
		{"expired", "/me", "Bearer " + stale, http.StatusUnauthorized},
		{"garbage", "/me", "Bearer not-a-token", http.StatusUnauthorized},
		{"unknown role", "/me", "Bearer " + unknownRole, http.StatusForbidden},
		{"no email", "/me", "Bearer " + noEmail, http.StatusUnauthorized},
		{"student on staff route", "/staff", "Bearer " + student, http.StatusForbidden},
		{"instructor on staff route", "/staff", "Bearer " + instructor, http.StatusNoContent},
	}

	router := newAuthRouter(manager)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		})
	}
}

func TestAuthenticate_NormalizesActor(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour)
	token, err := manager.GenerateToken(7, " Asha@Example.com", "Asha Verma", "Student")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	newAuthRouter(manager).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"email":"asha@example.com","name":"Asha Verma","role":"student"}`, w.Body.String())
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}
