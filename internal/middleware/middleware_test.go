package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTransports(t *testing.T) {
	var gotAuth, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get(RequestIDHeader)
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	token := ""
	client := &http.Client{Transport: Logging(logger, RequestID(BearerAuth(func() string { return token }, http.DefaultTransport)))}

	t.Run("no token leaves header unset", func(t *testing.T) {
		resp, err := client.Get(server.URL + "/ok")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if gotAuth != "" {
			t.Errorf("Authorization = %q, want empty", gotAuth)
		}
		if gotRequestID == "" {
			t.Error("expected request id header")
		}
	})

	t.Run("token is sent as bearer", func(t *testing.T) {
		token = "abc"
		ctx := WithUserID(context.Background(), "u-1")
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/missing", nil)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if gotAuth != "Bearer abc" {
			t.Errorf("Authorization = %q", gotAuth)
		}
		if req.Header.Get("Authorization") != "" {
			t.Error("caller's request was mutated")
		}
		out := logs.String()
		if !strings.Contains(out, "Request rejected") || !strings.Contains(out, "user_id=u-1") {
			t.Errorf("unexpected logs: %s", out)
		}
	})
}
