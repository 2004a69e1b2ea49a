package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/phishscan/internal/model"
)

// stubInspector flags every URL containing "phish".
type stubInspector struct{}

func (stubInspector) Inspect(_ context.Context, rawURL string) *model.Detection {
	d := model.NewDetection(rawURL)
	d.Decide(model.StageDenylist, strings.Contains(rawURL, "phish"))
	return d
}

type memoryRecorder struct {
	mu    sync.Mutex
	saved []*model.Detection
	err   error
}

func (m *memoryRecorder) SaveDetection(_ context.Context, d *model.Detection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, d)
	return m.err
}

func (m *memoryRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := New(stubInspector{}, WithFingerprint("abc123"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Status != "ok" || got.ModelFingerprint != "abc123" {
		t.Errorf("unexpected health response: %+v", got)
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		body         string
		wantStatus   int
		wantPhishing bool
		wantError    string
	}{
		{name: "phishing", body: `{"url":"http://evilphisher.org"}`, wantStatus: http.StatusOK, wantPhishing: true},
		{name: "legitimate", body: `{"url":"http://trustedsite.com"}`, wantStatus: http.StatusOK},
		{name: "missing url", body: `{}`, wantStatus: http.StatusBadRequest, wantError: "url is a required field"},
		{name: "empty body", body: ``, wantStatus: http.StatusBadRequest, wantError: "empty body"},
		{name: "unknown field", body: `{"url":"http://a.example","extra":1}`, wantStatus: http.StatusBadRequest, wantError: "unknown field"},
		{name: "trailing data", body: `{"url":"http://a.example"}{}`, wantStatus: http.StatusBadRequest, wantError: "trailing data"},
		{name: "malformed", body: `{"url":`, wantStatus: http.StatusBadRequest, wantError: "invalid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := post(t, New(stubInspector{}).Handler(), "/v1/detect", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}

			if tt.wantError != "" {
				var got errorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				if !strings.Contains(got.Error, tt.wantError) {
					t.Errorf("error = %q, want it to contain %q", got.Error, tt.wantError)
				}
				if got.RequestID == "" {
					t.Error("expected request id in error response")
				}
				return
			}

			var got detectResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if got.Phishing != tt.wantPhishing {
				t.Errorf("phishing = %v, want %v", got.Phishing, tt.wantPhishing)
			}
			if got.Detection == nil || got.Detection.Phishing != got.Phishing {
				t.Errorf("detection does not match verdict: %+v", got.Detection)
			}
		})
	}
}

func TestDetectWrongMethod(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	New(stubInspector{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/detect", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestDetectBatch(t *testing.T) {
	t.Parallel()

	t.Run("results keep input order", func(t *testing.T) {
		t.Parallel()

		body := `{"urls":["http://a.example","http://phish.example","http://b.example"]}`
		rec := post(t, New(stubInspector{}, WithConcurrency(2)).Handler(), "/v1/detect/batch", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		var got batchResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		want := []bool{false, true, false}
		if len(got.Results) != len(want) {
			t.Fatalf("got %d results, want %d", len(got.Results), len(want))
		}
		for i, r := range got.Results {
			if r.Phishing != want[i] {
				t.Errorf("result[%d].phishing = %v, want %v", i, r.Phishing, want[i])
			}
		}
		if got.Results[1].Detection.URL != "http://phish.example" {
			t.Errorf("result order changed: %+v", got.Results[1].Detection)
		}
	})

	t.Run("rejects empty list", func(t *testing.T) {
		t.Parallel()

		rec := post(t, New(stubInspector{}).Handler(), "/v1/detect/batch", `{"urls":[]}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("rejects empty entry", func(t *testing.T) {
		t.Parallel()

		rec := post(t, New(stubInspector{}).Handler(), "/v1/detect/batch", `{"urls":["http://a.example",""]}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	t.Run("stores served detections", func(t *testing.T) {
		t.Parallel()

		rec := &memoryRecorder{}
		h := New(stubInspector{}, WithRecorder(rec)).Handler()
		post(t, h, "/v1/detect", `{"url":"http://a.example"}`)
		post(t, h, "/v1/detect/batch", `{"urls":["http://b.example","http://c.example"]}`)

		if rec.count() != 3 {
			t.Errorf("recorded %d detections, want 3", rec.count())
		}
	})

	t.Run("storage failure does not change the response", func(t *testing.T) {
		t.Parallel()

		rec := &memoryRecorder{err: errors.New("disk full")}
		resp := post(t, New(stubInspector{}, WithRecorder(rec)).Handler(), "/v1/detect", `{"url":"http://phish.example"}`)
		if resp.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.Code)
		}
	})
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	s := New(stubInspector{}, WithAddr(ln.Addr().String()))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url) //nolint:noctx // test request
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server did not answer: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
