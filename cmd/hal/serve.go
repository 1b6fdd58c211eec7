package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fwojciec/hal"
)

// maxRequestBytes caps request bodies.
const maxRequestBytes = 1 << 20

//go:embed index.html
var indexHTML []byte

// Run executes the serve command.
func (c *ServeCmd) Run(deps *Dependencies) error {
	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           NewHandler(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	deps.Logger.Info("listening", "addr", c.Addr)

	select {
	case err := <-errc:
		return err
	case <-deps.Ctx.Done():
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// NewHandler returns the HTTP API: GET /health, POST /browse and
// POST /filings, plus a browse form at GET /.
func NewHandler(deps *Dependencies) http.Handler {
	s := &server{deps: deps}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.index)
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("POST /browse", s.browse)
	mux.HandleFunc("POST /filings", s.filings)
	return mux
}

type server struct {
	deps *Dependencies
}

func (s *server) index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) browse(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ladder == nil {
		s.fail(w, hal.Errorf(hal.EINTERNAL, "browse is not configured"))
		return
	}
	req := browseRequest{FetchRequest: hal.NewFetchRequest("")}
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if req.VisualExtraction && req.Mode == hal.ModeAuto {
		req.Mode = hal.ModeVision
	}
	result, err := s.deps.Ladder.Fetch(r.Context(), req.FetchRequest)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, result)
}

func (s *server) filings(w http.ResponseWriter, r *http.Request) {
	if s.deps.Filings == nil {
		s.fail(w, hal.Errorf(hal.EINTERNAL, "filing lookup is not configured; set HAL_SEC_USER_AGENT"))
		return
	}
	req := hal.NewFilingRequest("")
	if err := decode(r, req); err != nil {
		s.fail(w, err)
		return
	}
	result, err := s.deps.Filings.Lookup(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, result)
}

// browseRequest is the body of POST /browse. VisualExtraction forces vision
// for an auto request; an explicit dom mode still wins.
type browseRequest struct {
	*hal.FetchRequest
	VisualExtraction bool `json:"visual_extraction"`
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return hal.Errorf(hal.EINVALID, "invalid request body: %v", err)
	}
	return nil
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

func (s *server) fail(w http.ResponseWriter, err error) {
	status := statusCode(err)
	if status == http.StatusInternalServerError {
		s.deps.Logger.Error("request failed", "err", err)
	}
	s.respond(w, status, errorResponse{
		Error:   hal.ErrorCode(err),
		Reason:  string(hal.ErrorReason(err)),
		Message: hal.ErrorMessage(err),
	})
}

func (s *server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.deps.Logger.Debug("write response", "err", err)
	}
}

// statusCode maps an error code to an HTTP status.
func statusCode(err error) int {
	switch hal.ErrorCode(err) {
	case hal.EINVALID, hal.EBLOCKED:
		return http.StatusBadRequest
	case hal.EUNKNOWNTICKER, hal.ENOFILING, hal.ENOTFOUND:
		return http.StatusNotFound
	case hal.ETIMEOUT:
		return http.StatusGatewayTimeout
	case hal.ENAVIGATION:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
