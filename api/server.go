package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/parametriq/designflow/bus"
	"github.com/parametriq/designflow/coordination"
	"github.com/parametriq/designflow/design"
	"github.com/parametriq/designflow/internal/metrics"
	"github.com/parametriq/designflow/persistence"
	"github.com/parametriq/designflow/session"
)

// Server wires the consensus engine to HTTP handlers.
type Server struct {
	coordinator *coordination.AgentCoordinator
	bus         *bus.MessageBus
	store       persistence.SessionStore
	sessionCfg  session.Config
	logger      *zap.Logger
	collector   *metrics.Collector
}

// NewServer 创建 API 服务
func NewServer(coordinator *coordination.AgentCoordinator, messageBus *bus.MessageBus, store persistence.SessionStore, sessionCfg session.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		coordinator: coordinator,
		bus:         messageBus,
		store:       store,
		sessionCfg:  sessionCfg,
		logger:      logger.With(zap.String("component", "api_server")),
	}
}

// SetCollector 注入指标收集器（可选），传递给每个会话
func (s *Server) SetCollector(collector *metrics.Collector) {
	s.collector = collector
}

// RegisterRoutes 注册 API 路由
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/sessions", s.handleRunSession)
	mux.HandleFunc("GET /api/v1/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /healthz", s.handleHealth)
}

// RunSessionRequest 提交一个 proposal 并驱动至终态
type RunSessionRequest struct {
	Proposal      *design.DesignProposal    `json:"proposal"`
	Context       *design.EvaluationContext `json:"context,omitempty"`
	MaxIterations int                       `json:"max_iterations,omitempty"`
}

// handleRunSession runs a collaborative session to completion and stores
// the terminal result.
func (s *Server) handleRunSession(w http.ResponseWriter, r *http.Request) {
	var req RunSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body: "+err.Error())
		return
	}
	if req.Proposal == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "proposal is required")
		return
	}

	sess := session.NewCollaborativeSession(s.coordinator, s.bus, req.Proposal, s.sessionCfg, s.logger)
	if s.collector != nil {
		sess.SetCollector(s.collector)
	}

	result, err := sess.RunToCompletion(r.Context(), req.MaxIterations, req.Context)
	if err != nil {
		if errors.Is(err, r.Context().Err()) {
			writeError(w, http.StatusRequestTimeout, "cancelled", "session run cancelled")
			return
		}
		s.logger.Error("session run failed",
			zap.String("session_id", sess.ID()),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "session_failed", err.Error())
		return
	}

	if s.store != nil {
		if err := s.store.SaveResult(r.Context(), result); err != nil {
			// Storage is best-effort; the caller still gets the result.
			s.logger.Warn("failed to persist session result",
				zap.String("session_id", result.SessionID),
				zap.Error(err),
			)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetSession fetches one stored session result.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "no_store", "session store not configured")
		return
	}

	result, err := s.store.GetResult(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no session with that id")
			return
		}
		writeError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleListSessions lists stored session results, most recent first.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "no_store", "session store not configured")
		return
	}

	results, err := s.store.ListResults(r.Context(), 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// handleHealth reports liveness and store health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]string{"status": "ok"}

	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			health["status"] = "degraded"
			health["store"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, health)
			return
		}
		health["store"] = "ok"
	}

	writeJSON(w, http.StatusOK, health)
}
