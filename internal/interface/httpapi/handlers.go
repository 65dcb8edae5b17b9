// Package httpapi exposes the operator surface: anomaly checks, the
// advisory verifier, and manual scrape triggers. Operators only ever
// see classified outcomes, never raw errors from sources.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"screenwatch-service/internal/domain/entity"
	"screenwatch-service/internal/domain/repository"
	"screenwatch-service/internal/interface/ai"
	"screenwatch-service/internal/usecase"
	"screenwatch-service/pkg/logger"
)

// Handler wires the operator endpoints
type Handler struct {
	detector   *usecase.AnomalyDetector
	verifier   *ai.EscalatingVerifier
	tracker    *usecase.BaselineTracker
	runner     *usecase.ScrapeRunner
	cinemaRepo repository.CinemaRepository
	runRepo    repository.ScraperRunRepository
	logger     logger.Logger
}

// NewHandler creates the operator API handler
func NewHandler(
	detector *usecase.AnomalyDetector,
	verifier *ai.EscalatingVerifier,
	tracker *usecase.BaselineTracker,
	runner *usecase.ScrapeRunner,
	cinemaRepo repository.CinemaRepository,
	runRepo repository.ScraperRunRepository,
	logger logger.Logger,
) *Handler {
	return &Handler{
		detector:   detector,
		verifier:   verifier,
		tracker:    tracker,
		runner:     runner,
		cinemaRepo: cinemaRepo,
		runRepo:    runRepo,
		logger:     logger,
	}
}

// Register mounts the operator routes on the mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/health-check", h.handleHealthCheck)
	mux.HandleFunc("GET /api/v1/cinemas/{slug}/check", h.handleCinemaCheck)
	mux.HandleFunc("POST /api/v1/cinemas/{slug}/scrape", h.handleScrape)
	mux.HandleFunc("POST /api/v1/cinemas/{slug}/baseline/recalculate", h.handleRecalculate)
	mux.HandleFunc("PUT /api/v1/cinemas/{slug}/baseline", h.handleSetBaseline)
	mux.HandleFunc("POST /api/v1/verify", h.handleVerify)
	mux.HandleFunc("PUT /api/v1/runs/{runId}/resolution", h.handleResolution)
}

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// handleHealthCheck runs the detector over every active cinema
func (h *Handler) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	report, err := h.detector.CheckAll(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "health_check_failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// handleCinemaCheck runs the detector for one cinema
func (h *Handler) handleCinemaCheck(w http.ResponseWriter, r *http.Request) {
	cinema, err := h.cinemaRepo.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "unknown_cinema", err)
		return
	}

	health, err := h.detector.CheckCinema(r.Context(), cinema.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "check_failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, health)
}

// handleScrape triggers one cinema's pipeline on demand
func (h *Handler) handleScrape(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.runner.RunScraper(r.Context(), r.PathValue("slug"), "operator")
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "scrape_failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, outcome.Run)
}

// handleRecalculate refreshes one cinema's baseline from history
func (h *Handler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	cinema, err := h.cinemaRepo.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "unknown_cinema", err)
		return
	}

	baseline, err := h.tracker.Recalculate(r.Context(), cinema.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "recalculation_failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, baseline)
}

type setBaselineRequest struct {
	WeekdayAvg   float64 `json:"weekdayAvg"`
	WeekendAvg   float64 `json:"weekendAvg"`
	TolerancePct float64 `json:"tolerancePct"`
}

// handleSetBaseline pins a cinema's baseline to operator-supplied
// averages, exempting it from automatic recalculation
func (h *Handler) handleSetBaseline(w http.ResponseWriter, r *http.Request) {
	var req setBaselineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	cinema, err := h.cinemaRepo.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "unknown_cinema", err)
		return
	}

	baseline, err := h.tracker.SetManualBaseline(r.Context(), cinema.ID, req.WeekdayAvg, req.WeekendAvg, req.TolerancePct)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "baseline_update_failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, baseline)
}

type verifyRequest struct {
	CinemaSlug    string `json:"cinemaSlug"`
	AnomalyType   string `json:"anomalyType"`
	TodayCount    int    `json:"todayCount"`
	LastWeekCount int    `json:"lastWeekCount"`
}

// handleVerify asks the AI verifier for an advisory diagnosis. A
// verifier failure surfaces as a gateway error, explicitly distinct
// from a low-confidence diagnosis.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	cinema, err := h.cinemaRepo.GetBySlug(r.Context(), req.CinemaSlug)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "unknown_cinema", err)
		return
	}

	result, err := h.verifier.Verify(r.Context(), ai.AnomalyContext{
		CinemaName:    cinema.Name,
		CinemaSlug:    cinema.Slug,
		Chain:         cinema.Chain,
		Tier:          cinema.Tier(),
		AnomalyType:   req.AnomalyType,
		TodayCount:    req.TodayCount,
		LastWeekCount: req.LastWeekCount,
		Date:          time.Now(),
	})
	if err != nil {
		h.writeError(w, http.StatusBadGateway, "verifier_unavailable", err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

type resolutionRequest struct {
	AutoFixed   bool `json:"autoFixed"`
	AutoRetried bool `json:"autoRetried"`
	FixedByAI   bool `json:"fixedByAi"`
}

// handleResolution records how an anomalous run was resolved. The run
// itself stays immutable; only the resolution flags change.
func (h *Handler) handleResolution(w http.ResponseWriter, r *http.Request) {
	var req resolutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	resolution := entity.Resolution{
		AutoFixed:   req.AutoFixed,
		AutoRetried: req.AutoRetried,
		FixedByAI:   req.FixedByAI,
	}
	if err := h.runRepo.UpdateResolution(r.Context(), r.PathValue("runId"), resolution); err != nil {
		h.writeError(w, http.StatusInternalServerError, "resolution_update_failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, resolution)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code string, err error) {
	h.logger.Error("Operator API error", "code", code, "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{
		Success: false,
		Error:   &apiError{Message: err.Error(), Code: code},
	})
}
