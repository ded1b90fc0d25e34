package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/padala-next/internal/constants"
	"github.com/padala-next/internal/http/handlers/shared"
	"github.com/padala-next/internal/service"

	"github.com/gin-gonic/gin"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}
	if resp := strings.TrimSpace(generated); resp == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

type stubTokenParser struct {
	claims *service.TokenClaims
	err    error
}

func (s stubTokenParser) Parse(token string) (*service.TokenClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	if token != "good-token" {
		return nil, service.ErrTokenInvalid
	}
	return s.claims, nil
}

type stubEnforcer struct {
	allow   map[string]bool
	err     error
	objects []string
}

func (s *stubEnforcer) EnforceUser(userID uint, obj, act string) (bool, error) {
	s.objects = append(s.objects, obj)
	if s.err != nil {
		return false, s.err
	}
	return s.allow[act+" "+obj], nil
}

func decodeStatusCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp.StatusCode
}

func TestJWTAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	parser := stubTokenParser{claims: &service.TokenClaims{UserID: 8, Role: constants.RoleDriver, DriverID: 3}}
	r := gin.New()
	r.Use(JWTAuthMiddleware(parser))
	r.GET("/driver/ping", func(c *gin.Context) {
		userID, _ := c.Get(shared.ContextKeyUserID)
		driverID, _ := c.Get(shared.ContextKeyDriverID)
		c.JSON(http.StatusOK, gin.H{"status_code": 0, "user_id": userID, "driver_id": driverID})
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: 401},
		{name: "wrong scheme", header: "Basic abc", want: 401},
		{name: "bad token", header: "Bearer nope", want: 401},
		{name: "good token", header: "Bearer good-token", want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/driver/ping", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			if got := decodeStatusCode(t, w); got != tc.want {
				t.Fatalf("status_code want %d got %d body=%s", tc.want, got, w.Body.String())
			}
			if tc.want == 0 && !strings.Contains(w.Body.String(), `"driver_id":3`) {
				t.Fatalf("driver id should be set in context, body=%s", w.Body.String())
			}
		})
	}
}

func TestJWTAuthMiddlewareWithoutParser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(JWTAuthMiddleware(nil))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	r.ServeHTTP(w, req)
	if got := decodeStatusCode(t, w); got != 401 {
		t.Fatalf("status_code want 401 got %d", got)
	}
}

func TestRBACMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	enforcer := &stubEnforcer{allow: map[string]bool{"POST /api/v1/dispatch/orders/:id/assign": true}}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-User") != "" {
			c.Set(shared.ContextKeyUserID, uint(5))
		}
		c.Next()
	})
	r.Use(RBACMiddleware(enforcer))
	r.POST("/api/v1/dispatch/orders/:id/assign", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})
	r.POST("/api/v1/dispatch/orders/:id/reassign", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})

	serve := func(path string, withUser bool) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if withUser {
			req.Header.Set("X-Test-User", "1")
		}
		r.ServeHTTP(w, req)
		return decodeStatusCode(t, w)
	}

	if got := serve("/api/v1/dispatch/orders/12/assign", false); got != 401 {
		t.Fatalf("anonymous want 401 got %d", got)
	}
	if got := serve("/api/v1/dispatch/orders/12/assign", true); got != 0 {
		t.Fatalf("allowed route want 0 got %d", got)
	}
	if got := serve("/api/v1/dispatch/orders/12/reassign", true); got != 403 {
		t.Fatalf("denied route want 403 got %d", got)
	}
	if last := enforcer.objects[len(enforcer.objects)-1]; last != "/api/v1/dispatch/orders/:id/reassign" {
		t.Fatalf("enforcer should receive route pattern, got %s", last)
	}

	enforcer.err = errors.New("adapter closed")
	if got := serve("/api/v1/dispatch/orders/12/assign", true); got != 401 {
		t.Fatalf("enforce error want 401 got %d", got)
	}
}
