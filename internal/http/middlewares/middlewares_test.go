package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpx "github.com/sebastos1/auth/internal/http"
	"github.com/sebastos1/auth/internal/store/core"
	"github.com/sebastos1/auth/internal/store/memory"
)

func TestChain_Order(t *testing.T) {
	var got []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = append(got, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, "handler")
	}), tag("a"), tag("b"), tag("c"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := []string{"a", "b", "c", "handler"}
	if len(got) != len(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestWithRecover_PanicBecomes500(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), WithRecover())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["error"] != "server_error" {
		t.Fatalf("error = %v", body["error"])
	}
	if body["error_code"] != float64(httpx.CodePanic) {
		t.Fatalf("error_code = %v, want %d", body["error_code"], httpx.CodePanic)
	}
}

func TestRequireUser_MissingToken(t *testing.T) {
	store := memory.New()
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	}), RequireUser(store))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/userinfo", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Fatal("missing WWW-Authenticate header")
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["error"] != "invalid_token" {
		t.Fatalf("error = %v", body["error"])
	}
	if body["error_code"] != float64(httpx.CodeUnauthenticated) {
		t.Fatalf("error_code = %v, want %d", body["error_code"], httpx.CodeUnauthenticated)
	}
}

func TestRequireUser_ValidToken(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.CreateUser(ctx, &core.User{ID: "u1", Email: "a@b.c", Username: "alpha", IsActive: true}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	ac := &core.AuthorizationCode{Code: "c1", ClientID: "cl1", UserID: "u1", ExpiresAt: now.Add(time.Minute), CreatedAt: now}
	if err := store.CreateAuthorizationCode(ctx, ac); err != nil {
		t.Fatalf("create code: %v", err)
	}
	at := &core.AccessToken{Token: "tok-1", ClientID: "cl1", UserID: "u1", Scopes: "openid profile", ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	rt := &core.RefreshToken{Token: "ref-1", AccessToken: "tok-1", ClientID: "cl1", UserID: "u1", Scopes: "openid profile", ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	if err := store.RedeemAuthorizationCode(ctx, "c1", at, rt); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		au := GetAuthUser(r.Context())
		if au == nil || au.User.ID != "u1" {
			t.Fatalf("auth user = %v", au)
		}
		if !au.HasProfile() || au.HasRoles() {
			t.Fatalf("scope predicates wrong for %q", au.Scopes)
		}
		w.WriteHeader(http.StatusNoContent)
	}), RequireUser(store))

	req := httptest.NewRequest(http.MethodGet, "/userinfo", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}
