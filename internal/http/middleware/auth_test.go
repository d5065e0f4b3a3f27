package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursemarket-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
	"github.com/yungbote/coursemarket-backend/internal/services"
)

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := services.NewAuthService(logger.NewNop(), "mw-secret", time.Hour)
	userID := uuid.New()
	token, err := auth.IssueAccessToken(userID, "student")
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	r := gin.New()
	r.Use(NewAuthMiddleware(logger.NewNop(), auth).RequireAuth())
	r.GET("/api/me", func(c *gin.Context) {
		c.String(http.StatusOK, ctxutil.UserID(c.Request.Context()).String())
	})

	cases := []struct {
		name   string
		setup  func(*http.Request)
		path   string
		status int
	}{
		{"missing", func(*http.Request) {}, "/api/me", http.StatusUnauthorized},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, "/api/me", http.StatusUnauthorized},
		{"header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, "/api/me", http.StatusOK},
		{"query", func(*http.Request) {}, "/api/me?token=" + token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status: want=%d got=%d", tc.status, rec.Code)
			}
			if tc.status == http.StatusOK && rec.Body.String() != userID.String() {
				t.Fatalf("user id: want=%s got=%s", userID, rec.Body.String())
			}
		})
	}
}
