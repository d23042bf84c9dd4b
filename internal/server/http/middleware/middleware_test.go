package middleware

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	pkgAuth "github.com/polkiloo/warehouse/internal/pkg/auth"
	testhelpers "github.com/polkiloo/warehouse/internal/test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuthRequired(t *testing.T) {
	cases := []struct {
		name   string
		parser testhelpers.TokenParserStub
		header string
		status int
	}{
		{name: "missing token", parser: testhelpers.TokenParserStub{ID: 1}, status: http.StatusUnauthorized},
		{name: "invalid token", parser: testhelpers.TokenParserStub{Err: pkgAuth.ErrInvalidToken}, header: "Bearer token", status: http.StatusUnauthorized},
		{name: "wrapped invalid token", parser: testhelpers.TokenParserStub{Err: fmt.Errorf("parse: %w", pkgAuth.ErrInvalidToken)}, header: "Bearer token", status: http.StatusUnauthorized},
		{name: "parser failure", parser: testhelpers.TokenParserStub{Err: context.DeadlineExceeded}, header: "Bearer token", status: http.StatusInternalServerError},
		{name: "bare scheme", parser: testhelpers.TokenParserStub{ID: 1}, header: "Bearer ", status: http.StatusUnauthorized},
		{name: "valid", parser: testhelpers.TokenParserStub{ID: 42}, header: "bearer token", status: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var storedID int64
			router := gin.New()
			router.Use(AuthRequired(tc.parser))
			router.GET("/", func(c *gin.Context) {
				storedID = c.GetInt64(UserIDContextKey)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.Code)
			}
			if tc.status == http.StatusOK && storedID != tc.parser.ID {
				t.Fatalf("expected user id %d, got %d", tc.parser.ID, storedID)
			}
			if tc.status != http.StatusOK && !strings.Contains(resp.Body.String(), `"error"`) {
				t.Fatalf("expected error body, got %q", resp.Body.String())
			}
		})
	}
}

func TestExtractToken(t *testing.T) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
	if token := extractToken(c); token != "" {
		t.Fatalf("expected empty token, got %q", token)
	}

	c.Request.Header.Set("Authorization", "Bearer abc")
	if token := extractToken(c); token != "abc" {
		t.Fatalf("expected token from header, got %q", token)
	}

	c.Request.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	c.Request.AddCookie(&http.Cookie{Name: authCookieName, Value: "cookie"})
	if token := extractToken(c); token != "cookie" {
		t.Fatalf("expected token from cookie, got %q", token)
	}
}

func TestCompressionInflatesRequests(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write([]byte(`{"orderId":1}`))
	_ = gz.Close()

	router := gin.New()
	router.Use(Compression())
	var body string
	router.POST("/", func(c *gin.Context) {
		data, _ := io.ReadAll(c.Request.Body)
		body = string(data)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(buf.Bytes()))
	req.Header.Set("Content-Encoding", "gzip")
	router.ServeHTTP(httptest.NewRecorder(), req)
	if body != `{"orderId":1}` {
		t.Fatalf("expected decompressed payload, got %q", body)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("plain"))
	body = ""
	router.ServeHTTP(httptest.NewRecorder(), req)
	if body != "plain" {
		t.Fatalf("expected plain body, got %q", body)
	}
}

func TestCompressionGzipsResponses(t *testing.T) {
	router := gin.New()
	router.Use(Compression())
	router.GET("/api/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	router.GET("/metrics", func(c *gin.Context) { c.String(http.StatusOK, "raw") })

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip response, got headers %v", resp.Header())
	}
	reader, err := gzip.NewReader(resp.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	data, _ := io.ReadAll(reader)
	if string(data) != "pong" {
		t.Fatalf("unexpected body %q", data)
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Header().Get("Content-Encoding") == "gzip" || resp.Body.String() != "raw" {
		t.Fatalf("metrics must not be compressed, got %q", resp.Body.String())
	}
}

type logRecord struct {
	Level     string `json:"level"`
	RequestID string `json:"request_id"`
	Status    int    `json:"status"`
	Path      string `json:"path"`
	UserID    int64  `json:"user_id"`
	Error     string `json:"error"`
}

func captureLogs(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	router := gin.New()
	router.Use(RequestLogger(captureLogs(&buf)))
	router.GET("/ok", func(c *gin.Context) {
		c.Set(UserIDContextKey, int64(7))
		c.Status(http.StatusOK)
	})
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/boom", func(c *gin.Context) {
		_ = c.Error(io.ErrUnexpectedEOF)
		c.Status(http.StatusInternalServerError)
	})

	cases := []struct {
		path      string
		requestID string
		level     string
	}{
		{"/ok", "req-1", "INFO"},
		{"/missing", "", "WARN"},
		{"/boom", strings.Repeat("x", 100), "ERROR"},
	}
	for _, tc := range cases {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.requestID != "" {
			req.Header.Set(RequestIDHeader, tc.requestID)
		}
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		var rec logRecord
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("%s: decode log line %q: %v", tc.path, buf.String(), err)
		}
		if rec.Level != tc.level || rec.Path != tc.path {
			t.Fatalf("%s: unexpected log %+v", tc.path, rec)
		}
		echoed := resp.Header().Get(RequestIDHeader)
		if rec.RequestID == "" || echoed != rec.RequestID {
			t.Fatalf("%s: request id not propagated, logged %q echoed %q", tc.path, rec.RequestID, echoed)
		}
		if tc.requestID == "req-1" && rec.RequestID != "req-1" {
			t.Fatalf("expected inbound request id kept, got %q", rec.RequestID)
		}
		if len(tc.requestID) > maxInboundRequestIDSz && rec.RequestID == tc.requestID {
			t.Fatal("oversized inbound request id must be replaced")
		}
	}

	buf.Reset()
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	var rec logRecord
	_ = json.Unmarshal(buf.Bytes(), &rec)
	if rec.UserID != 7 {
		t.Fatalf("expected user id logged, got %+v", rec)
	}

	buf.Reset()
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	_ = json.Unmarshal(buf.Bytes(), &rec)
	if !strings.Contains(rec.Error, "unexpected EOF") {
		t.Fatalf("expected gin errors logged, got %+v", rec)
	}
}
