package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"formrelay/pkg/core"
)

func testConfig() core.Config {
	var cfg core.Config
	cfg.Server.MaxBodyBytes = 64 << 10
	cfg.Contact.Path = "/api/contact"
	cfg.Discord.Username = "Form Relay"
	cfg.Discord.TimeoutMS = 100
	cfg.Auth.Header = "X-Secret"
	return cfg
}

func TestBuildHandlerHealth(t *testing.T) {
	handler, err := buildHandler(testConfig(), log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if body.Status != "ok" {
		t.Fatalf("unexpected status: %q", body.Status)
	}
}

func TestBuildHandlerHealthRejectsPost(t *testing.T) {
	handler, err := buildHandler(testConfig(), log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestBuildHandlerDegradedContact(t *testing.T) {
	handler, err := buildHandler(testConfig(), log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}

	body := strings.NewReader(`{"name":"Alice","phone":"+12345678901"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/contact", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without a webhook url, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBuildHandlerRejectsEnforcedAuthWithoutSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enforce = true
	if _, err := buildHandler(cfg, log.New(io.Discard, "", 0)); err == nil {
		t.Fatalf("expected build error when enforcement has no secret")
	}
}

func TestBuildHandlerCORSPreflight(t *testing.T) {
	t.Run("allow all by default", func(t *testing.T) {
		handler, err := buildHandler(testConfig(), log.New(io.Discard, "", 0))
		if err != nil {
			t.Fatalf("build handler: %v", err)
		}
		req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
		req.Header.Set("Origin", "https://example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
			t.Fatalf("expected preflight approval, headers: %v", rec.Header())
		}
	})

	t.Run("restricted origins", func(t *testing.T) {
		cfg := testConfig()
		cfg.CORS.AllowedOrigins = []string{"https://forms.example.com"}
		handler, err := buildHandler(cfg, log.New(io.Discard, "", 0))
		if err != nil {
			t.Fatalf("build handler: %v", err)
		}

		req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Fatalf("expected disallowed origin, got %q", got)
		}

		req = httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
		req.Header.Set("Origin", "https://forms.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://forms.example.com" {
			t.Fatalf("expected allowed origin echoed, got %q", got)
		}
	})
}

func TestRequestLogMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "req-7")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	})
	handler := requestLogMiddleware(logger)(next)

	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader("{}"))
	req.RemoteAddr = "192.0.2.10:54321"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	line := buf.String()
	for _, want := range []string{"method=POST", "path=/api/contact", "status=418", "bytes=5", "request_id=req-7", "remote_ip=192.0.2.10"} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line missing %q: %s", want, line)
		}
	}
}

func TestApplyMiddlewaresOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := applyMiddlewares(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}), []Middleware{tag("outer"), nil, tag("inner")})
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Fatalf("unexpected middleware order: %v", order)
	}
}
