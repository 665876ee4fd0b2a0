package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/vidshare/vidshare/internal/auth"
	"github.com/vidshare/vidshare/internal/models"
	"github.com/vidshare/vidshare/internal/store"
)

const testSecret = "test-secret-for-channel-tests"

func newTestRouter(st Store) http.Handler {
	h := NewHandler(st)
	verifier := auth.NewVerifier(auth.VerifierConfig{Secret: testSecret})
	r := chi.NewRouter()
	r.Get("/api/channels/{id}", h.Get)
	r.Group(func(r chi.Router) {
		r.Use(verifier.Middleware)
		r.Put("/api/channels/{id}", h.Update)
		r.Put("/api/channels/subscribe/{id}", h.Subscribe)
		r.Put("/api/channels/unsubscribe/{id}", h.Unsubscribe)
	})
	return r
}

func do(t *testing.T, router http.Handler, method, target, channelID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	if channelID != "" {
		token, err := auth.GenerateAccessToken(testSecret, channelID, "")
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func seed(t *testing.T, mem *store.Memory, name string) models.Channel {
	t.Helper()
	c, err := mem.CreateChannel(context.Background(), name, name+"@example.com", "secret-hash")
	if err != nil {
		t.Fatalf("create channel: %v", err)
	}
	return c
}

func TestGet_PublicProfileHidesCredentials(t *testing.T) {
	mem := store.NewMemory()
	a := seed(t, mem, "alice")

	rec := do(t, newTestRouter(mem), http.MethodGet, "/api/channels/"+a.ID, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret-hash") || strings.Contains(rec.Body.String(), "alice@example.com") {
		t.Errorf("profile leaks credentials: %s", rec.Body.String())
	}
	var body map[string]any
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body["name"] != "alice" {
		t.Errorf("unexpected profile: %v", body)
	}
}

func TestGet_NotFound(t *testing.T) {
	rec := do(t, newTestRouter(store.NewMemory()), http.MethodGet, "/api/channels/missing", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUpdate(t *testing.T) {
	mem := store.NewMemory()
	a := seed(t, mem, "alice")
	b := seed(t, mem, "bob")
	router := newTestRouter(mem)

	tests := []struct {
		name       string
		target     string
		actor      string
		body       string
		wantStatus int
	}{
		{"owner updates profile", a.ID, a.ID, `{"profile":"https://cdn.example.com/a.png"}`, http.StatusOK},
		{"non-owner forbidden", a.ID, b.ID, `{"name":"mallory"}`, http.StatusForbidden},
		{"missing channel", "missing", a.ID, `{"name":"x"}`, http.StatusNotFound},
		{"name taken", a.ID, a.ID, `{"name":"bob"}`, http.StatusConflict},
		{"blank name", a.ID, a.ID, `{"name":"  "}`, http.StatusBadRequest},
		{"empty patch", a.ID, a.ID, `{}`, http.StatusBadRequest},
		{"no credential", a.ID, "", `{"name":"x"}`, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPut, "/api/channels/"+tt.target, tt.actor, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}

	got, _ := mem.FindChannel(context.Background(), a.ID)
	if got.Name != "alice" || got.Profile != "https://cdn.example.com/a.png" {
		t.Errorf("unexpected final channel state: %+v", got)
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	mem := store.NewMemory()
	a := seed(t, mem, "alice")
	b := seed(t, mem, "bob")
	router := newTestRouter(mem)
	ctx := context.Background()

	for range 2 {
		if rec := do(t, router, http.MethodPut, "/api/channels/subscribe/"+b.ID, a.ID, ""); rec.Code != http.StatusNoContent {
			t.Fatalf("subscribe: expected 204, got %d", rec.Code)
		}
	}
	target, _ := mem.FindChannel(ctx, b.ID)
	subscriber, _ := mem.FindChannel(ctx, a.ID)
	if target.Subscribers != 1 || len(subscriber.SubscribedChannels) != 1 {
		t.Errorf("after subscribe: subscribers=%d subscribed=%v", target.Subscribers, subscriber.SubscribedChannels)
	}

	if rec := do(t, router, http.MethodPut, "/api/channels/unsubscribe/"+b.ID, a.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("unsubscribe: expected 204, got %d", rec.Code)
	}
	target, _ = mem.FindChannel(ctx, b.ID)
	if target.Subscribers != 0 {
		t.Errorf("expected 0 subscribers, got %d", target.Subscribers)
	}
}

func TestSubscribe_Errors(t *testing.T) {
	mem := store.NewMemory()
	a := seed(t, mem, "alice")
	router := newTestRouter(mem)

	if rec := do(t, router, http.MethodPut, "/api/channels/subscribe/"+a.ID, a.ID, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("self subscribe: expected 400, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPut, "/api/channels/subscribe/missing", a.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing target: expected 404, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPut, "/api/channels/subscribe/"+a.ID, "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no credential: expected 401, got %d", rec.Code)
	}
}
