package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fwojciec/postmap"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ShutdownTimeout is the time given for outstanding requests to finish
// before the server is closed.
const ShutdownTimeout = 5 * time.Second

// Server is the JSON API over postmap services.
type Server struct {
	ln     net.Listener
	server *http.Server
	router chi.Router

	// Addr is the bind address, e.g. ":8080".
	Addr string

	// MediaDir, when set, is served under /media/.
	MediaDir string

	// Metrics serves /metrics. Defaults to the default Prometheus registry.
	Metrics http.Handler

	Logger *slog.Logger

	ConnectorService  postmap.ConnectorService
	PostService       postmap.PostService
	AttachmentService postmap.AttachmentService
	PostBuilder       postmap.PostBuilder
}

// NewServer returns a new Server with its routes mounted.
func NewServer() *Server {
	s := &Server{
		server: &http.Server{
			ReadHeaderTimeout: 10 * time.Second,
		},
		router: chi.NewRouter(),
		Logger: slog.Default(),
	}
	s.server.Handler = s.router

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)

	s.router.Get("/metrics", s.handleMetrics)
	s.router.Get("/media/*", s.handleMedia)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/connectors", s.handleConnectorList)
		r.Post("/connectors/{id}/extractions", s.handleExtraction)

		r.Get("/posts", s.handlePostList)
		r.Get("/posts/{id}", s.handlePostView)
		r.Delete("/posts/{id}", s.handlePostDelete)
		r.Get("/posts/{id}/attachments", s.handleAttachmentList)
	})

	return s
}

// ServeHTTP routes a request. Used directly by tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Open binds Addr and starts serving in the background.
func (s *Server) Open() (err error) {
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	go s.server.Serve(s.ln)
	return nil
}

// URL returns the base URL of a running server.
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String()
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	h := s.Metrics
	if h == nil {
		h = promhttp.Handler()
	}
	h.ServeHTTP(w, r)
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	if s.MediaDir == "" {
		http.NotFound(w, r)
		return
	}
	http.StripPrefix("/media/", http.FileServer(http.Dir(s.MediaDir))).ServeHTTP(w, r)
}

type extractionRequest struct {
	URL string `json:"url"`
}

type eventResponse struct {
	Status postmap.Status `json:"status"`
	Code   int            `json:"code"`
	URL    string         `json:"url"`
	PostID string         `json:"postId,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type extractionResponse struct {
	OK     bool            `json:"ok"`
	Events []eventResponse `json:"events"`
}

func (s *Server) handleExtraction(w http.ResponseWriter, r *http.Request) {
	var req extractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.Error(w, r, postmap.Errorf(postmap.EINVALID, "invalid JSON body"))
		return
	}

	resp := extractionResponse{Events: []eventResponse{}}
	ok, err := s.PostBuilder.BuildPosts(r.Context(), chi.URLParam(r, "id"), req.URL, func(ev postmap.StatusEvent) {
		er := eventResponse{Status: ev.Status, Code: int(ev.Status), URL: ev.URL, PostID: ev.PostID}
		if ev.Err != nil {
			er.Error = s.eventError(r, ev)
		}
		resp.Events = append(resp.Events, er)
	})
	if err != nil {
		s.Error(w, r, err)
		return
	}
	resp.OK = ok

	s.writeJSON(w, http.StatusOK, resp)
}

// eventError returns the client-facing message for a failed status event.
func (s *Server) eventError(r *http.Request, ev postmap.StatusEvent) string {
	if postmap.ErrorCode(ev.Err) == postmap.EINTERNAL {
		s.Logger.Error("extraction event", "path", r.URL.Path, "status", ev.Status, "url", ev.URL, "err", ev.Err)
		return "Internal error."
	}
	return postmap.ErrorMessage(ev.Err)
}

func (s *Server) handleConnectorList(w http.ResponseWriter, r *http.Request) {
	connectors, err := s.ConnectorService.FindConnectors(r.Context())
	if err != nil {
		s.Error(w, r, err)
		return
	}
	if connectors == nil {
		connectors = []*postmap.Connector{}
	}
	s.writeJSON(w, http.StatusOK, connectors)
}

func (s *Server) handlePostList(w http.ResponseWriter, r *http.Request) {
	var filter postmap.PostFilter
	q := r.URL.Query()

	if v := q.Get("connector"); v != "" {
		filter.ConnectorID = &v
	}
	if v := q.Get("status"); v != "" {
		status := postmap.PostStatus(v)
		filter.Status = &status
	}
	var err error
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		s.Error(w, r, err)
		return
	}
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		s.Error(w, r, err)
		return
	}

	posts, err := s.PostService.FindPosts(r.Context(), filter)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	if posts == nil {
		posts = []*postmap.Post{}
	}
	s.writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handlePostView(w http.ResponseWriter, r *http.Request) {
	post, err := s.PostService.FindPostByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, post)
}

func (s *Server) handlePostDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.PostService.DeletePost(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAttachmentList(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.PostService.FindPostByID(r.Context(), id); err != nil {
		s.Error(w, r, err)
		return
	}

	attachments, err := s.AttachmentService.FindAttachments(r.Context(), postmap.AttachmentFilter{PostID: &id})
	if err != nil {
		s.Error(w, r, err)
		return
	}
	if attachments == nil {
		attachments = []*postmap.Attachment{}
	}
	s.writeJSON(w, http.StatusOK, attachments)
}

// Error writes err as a JSON error response. Internal errors are logged and
// reported without detail.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	code, message := postmap.ErrorCode(err), postmap.ErrorMessage(err)

	if code == postmap.EINTERNAL {
		s.Logger.Error("http error", "method", r.Method, "path", r.URL.Path, "err", err)
		message = "Internal error."
	}

	s.writeJSON(w, ErrorStatusCode(code), map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Debug("writing response", "err", err)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func(begin time.Time) {
			s.Logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(begin),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}(time.Now())
		next.ServeHTTP(ww, r)
	})
}

var codes = map[string]int{
	postmap.ECONFLICT: http.StatusConflict,
	postmap.EINVALID:  http.StatusBadRequest,
	postmap.ENOTFOUND: http.StatusNotFound,
	postmap.EINTERNAL: http.StatusInternalServerError,
}

// ErrorStatusCode returns the HTTP status code for an application error code.
func ErrorStatusCode(code string) int {
	if v, ok := codes[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, postmap.Errorf(postmap.EINVALID, "invalid number %q", v)
	}
	return n, nil
}
