// Package server exposes the codec and document store over HTTP.
//
//	GET    /healthz
//	GET    /metrics                     Prometheus metrics, when enabled
//	POST   /v1/normalize?uri=&diagnostics=true
//	GET    /v1/documents/{key...}
//	PUT    /v1/documents/{key...}
//	DELETE /v1/documents/{key...}
//
// Documents are decoded before they are stored, so the store only ever
// holds normalized JSON. The X-Graphjson-Diagnostics response header
// carries the number of diagnostics recorded while decoding.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/graphjson/pkg/codec"
	"github.com/matzehuels/graphjson/pkg/errors"
	"github.com/matzehuels/graphjson/pkg/graph"
	"github.com/matzehuels/graphjson/pkg/store"
)

// DiagnosticsHeader carries the diagnostic count of a decoded document.
const DiagnosticsHeader = "X-Graphjson-Diagnostics"

// Options configures a Server.
type Options struct {
	// Metrics serves /metrics from this gatherer. Nil disables the route.
	Metrics prometheus.Gatherer
	// MaxBodyBytes caps request bodies. Zero means 10 MiB.
	MaxBodyBytes int64
	// TTL is passed to the store on PUT. Zero means no expiry.
	TTL    time.Duration
	Logger *log.Logger
}

// Server handles the HTTP API.
type Server struct {
	codec   *codec.Codec
	store   store.Store
	opts    Options
	log     *log.Logger
	handler http.Handler
}

// New creates a server backed by c and st.
func New(c *codec.Codec, st store.Store, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 << 20
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{codec: c, store: st, opts: opts, log: logger.WithPrefix("server")}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/normalize", s.normalize)
		r.Get("/documents/*", s.getDocument)
		r.Put("/documents/*", s.putDocument)
		r.Delete("/documents/*", s.deleteDocument)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "bytes", ww.BytesWritten(),
			"duration", time.Since(start), "request_id", middleware.GetReqID(r.Context()))
	})
}

// diagnostic is the wire form of graph.Diagnostic.
type diagnostic struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
	Offset  int64       `json:"offset"`
}

type normalized struct {
	Document    json.RawMessage `json:"document"`
	Diagnostics []diagnostic    `json:"diagnostics"`
}

func (s *Server) normalize(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get("uri")
	if u == "" {
		u = "urn:graphjson:request"
	}
	doc, out, ok := s.decode(w, r, u)
	if !ok {
		return
	}
	if want, _ := strconv.ParseBool(r.URL.Query().Get("diagnostics")); want {
		diags := make([]diagnostic, 0, len(doc.Diagnostics()))
		for _, d := range doc.Diagnostics() {
			diags = append(diags, diagnostic{Code: d.Code, Message: d.Message, Offset: d.Offset})
		}
		writeJSON(w, http.StatusOK, normalized{Document: out, Diagnostics: diags})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// decode reads the request body into a document and re-encodes it. On
// failure it writes the error response and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, u string) (*graph.Document, []byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errors.New(errors.ErrCodeInvalidInput, "body exceeds %d bytes", tooLarge.Limit))
			return nil, nil, false
		}
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return nil, nil, false
	}

	ctx := r.Context()
	doc, err := s.codec.Unmarshal(ctx, body, u, nil)
	if err != nil {
		writeError(w, decodeStatus(err), err)
		return nil, nil, false
	}
	out, err := s.codec.Marshal(ctx, doc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return nil, nil, false
	}
	w.Header().Set(DiagnosticsHeader, strconv.Itoa(len(doc.Diagnostics())))
	return doc, out, true
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	data, ok, err := s.store.Get(r.Context(), key)
	if err != nil {
		writeError(w, storeStatus(err), err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, errors.New(errors.ErrCodeDocumentNotFound, "document %q not found", key))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) putDocument(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	_, out, ok := s.decode(w, r, key)
	if !ok {
		return
	}
	if err := s.store.Set(r.Context(), key, out, s.opts.TTL); err != nil {
		writeError(w, storeStatus(err), err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(out)
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if err := s.store.Delete(r.Context(), key); err != nil {
		writeError(w, storeStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type errorBody struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeStatus(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInternal, errors.ErrCodeConfiguration:
		return http.StatusInternalServerError
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}

func storeStatus(err error) int {
	switch {
	case stderrors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, store.ErrReadOnly):
		return http.StatusMethodNotAllowed
	case stderrors.Is(err, store.ErrNetwork):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
