package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type stubTokens map[string]struct {
	id   uint
	role string
}

func (s stubTokens) Parse(raw string) (uint, string, error) {
	if v, ok := s[raw]; ok {
		return v.id, v.role, nil
	}
	return 0, "", errors.New("bad token")
}

var tokens = stubTokens{
	"tok-client": {1, "client"},
	"tok-admin":  {2, "admin"},
}

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Authenticate(tokens))
	r.GET("/public", func(c *gin.Context) {
		id, role, ok := Identity(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role, "ok": ok})
	})
	r.GET("/private", RequireAuth(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/admin", RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func do(r http.Handler, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate_AnonymousPassesThrough(t *testing.T) {
	w := do(authRouter(), "/public", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["ok"] != false {
		t.Fatalf("anonymous request got identity: %v", body)
	}
}

func TestAuthenticate_ValidTokenSetsIdentity(t *testing.T) {
	w := do(authRouter(), "/public", "bearer tok-client")
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body["ok"] != true || body["id"] != float64(1) || body["role"] != "client" {
		t.Fatalf("identity = %v", body)
	}
}

func TestAuthenticate_RejectsBadHeaders(t *testing.T) {
	r := authRouter()
	for _, h := range []string{"Basic abc", "Bearer", "Bearer    ", "Bearer nope", "tok-client"} {
		w := do(r, "/public", h)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%q: status = %d; want 401", h, w.Code)
		}
		if w.Header().Get("WWW-Authenticate") == "" {
			t.Fatalf("%q: missing WWW-Authenticate", h)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["code"] != "unauthorized" || body["request_id"] == "" {
			t.Fatalf("%q: body = %v", h, body)
		}
	}
}

func TestRequireAuthAndRole(t *testing.T) {
	r := authRouter()
	cases := []struct {
		path, authz string
		want        int
	}{
		{"/private", "", http.StatusUnauthorized},
		{"/private", "Bearer tok-client", http.StatusNoContent},
		{"/admin", "", http.StatusUnauthorized},
		{"/admin", "Bearer tok-client", http.StatusForbidden},
		{"/admin", "Bearer tok-admin", http.StatusNoContent},
	}
	for _, tc := range cases {
		if w := do(r, tc.path, tc.authz); w.Code != tc.want {
			t.Errorf("%s with %q: status = %d; want %d", tc.path, tc.authz, w.Code, tc.want)
		}
	}
}

func TestIdentity_IgnoresGarbage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	for _, v := range []any{"abc", "0", 5} {
		c.Set(ctxKeyUserID, v)
		if _, _, ok := Identity(c); ok {
			t.Fatalf("Identity accepted %v", v)
		}
	}
}
