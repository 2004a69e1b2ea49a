package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/pipeline"
)

// Defaults for Server.
const (
	DefaultAddr            = ":8080"
	DefaultMaxBodyBytes    = 1 << 20
	DefaultRequestTimeout  = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Inspector checks a single URL.
type Inspector = pipeline.Inspector

// Recorder stores completed detections.
type Recorder interface {
	SaveDetection(ctx context.Context, d *model.Detection) error
}

// Server serves detection requests over HTTP.
type Server struct {
	inspector       Inspector
	batch           *pipeline.BatchProcessor
	recorder        Recorder
	fingerprint     string
	logger          *slog.Logger
	addr            string
	maxBodyBytes    int64
	requestTimeout  time.Duration
	shutdownTimeout time.Duration
	concurrency     int

	router *chi.Mux
	srv    *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithRecorder stores every detection served. Storage failures are logged
// and do not change the response.
func WithRecorder(r Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithFingerprint reports the model fingerprint on /healthz.
func WithFingerprint(fp string) Option {
	return func(s *Server) { s.fingerprint = fp }
}

// WithRequestTimeout bounds the handling of one request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithConcurrency sets the number of URLs checked at once by the batch route.
func WithConcurrency(n int) Option {
	return func(s *Server) { s.concurrency = n }
}

// New creates a Server around inspector.
func New(inspector Inspector, opts ...Option) *Server {
	s := &Server{
		inspector:       inspector,
		addr:            DefaultAddr,
		maxBodyBytes:    DefaultMaxBodyBytes,
		requestTimeout:  DefaultRequestTimeout,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.batch = pipeline.NewBatchProcessor(inspector,
		pipeline.WithConcurrency(s.concurrency),
		pipeline.WithBatchLogger(s.logger),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/detect", s.handleDetect)
		r.Post("/detect/batch", s.handleDetectBatch)
	})
	s.router = r

	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
// In-flight requests get DefaultShutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http listening", "addr", ln.Addr().String())
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.logger.Info("http shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type detectRequest struct {
	URL string `json:"url" validate:"required,max=8192"`
}

type batchRequest struct {
	URLs []string `json:"urls" validate:"required,min=1,max=100,dive,required,max=8192"`
}

type detectResponse struct {
	Phishing  bool             `json:"phishing"`
	Detection *model.Detection `json:"detection"`
}

type batchResponse struct {
	Results []detectResponse `json:"results"`
}

type healthResponse struct {
	Status           string `json:"status"`
	ModelFingerprint string `json:"model_fingerprint,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", ModelFingerprint: s.fingerprint})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[detectRequest](r, s.maxBodyBytes)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	d := s.inspector.Inspect(r.Context(), req.URL)
	s.record(r.Context(), d)
	writeJSON(w, http.StatusOK, detectResponse{Phishing: d.Phishing, Detection: d})
}

func (s *Server) handleDetectBatch(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[batchRequest](r, s.maxBodyBytes)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	detections, err := s.batch.ProcessBatch(r.Context(), req.URLs)
	if err != nil {
		s.writeError(w, r, http.StatusServiceUnavailable, err)
		return
	}

	resp := batchResponse{Results: make([]detectResponse, len(detections))}
	for i, d := range detections {
		s.record(r.Context(), d)
		resp.Results[i] = detectResponse{Phishing: d.Phishing, Detection: d}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) record(ctx context.Context, d *model.Detection) {
	if s.recorder == nil || d == nil {
		return
	}
	if err := s.recorder.SaveDetection(ctx, d); err != nil {
		s.logger.Warn("failed to record detection", "id", d.ID, "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	writeJSON(w, status, errorResponse{
		Error:     err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
