package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"pitlane.io/pitlane/internal/domain"
)

func TestRequireRole(t *testing.T) {
	t.Parallel()

	run := func(actor *domain.Actor, roles ...domain.Role) int {
		router := gin.New()
		router.Use(func(c *gin.Context) {
			if actor != nil {
				c.Request = c.Request.WithContext(WithActor(c.Request.Context(), *actor))
			}
			c.Next()
		})
		router.GET("/x", RequireRole(roles...), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		return w.Code
	}

	admin := &domain.Actor{UserID: "a", Role: domain.RoleAdmin}
	mechanic := &domain.Actor{UserID: "m", Role: domain.RoleMechanic}
	user := &domain.Actor{UserID: "u", Role: domain.RoleUser}

	tests := []struct {
		name  string
		actor *domain.Actor
		roles []domain.Role
		want  int
	}{
		{"admin on admin route", admin, []domain.Role{domain.RoleAdmin}, http.StatusNoContent},
		{"mechanic on admin route", mechanic, []domain.Role{domain.RoleAdmin}, http.StatusForbidden},
		{"user on shared route", user, []domain.Role{domain.RoleUser, domain.RoleAdmin}, http.StatusNoContent},
		{"admin has no implicit mechanic rights", admin, []domain.Role{domain.RoleMechanic}, http.StatusForbidden},
		{"anonymous", nil, []domain.Role{domain.RoleUser}, http.StatusUnauthorized},
		{"empty user id", &domain.Actor{Role: domain.RoleAdmin}, []domain.Role{domain.RoleAdmin}, http.StatusUnauthorized},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := run(tc.actor, tc.roles...); got != tc.want {
				t.Fatalf("status = %d, want %d", got, tc.want)
			}
		})
	}
}
