// Package model serves model builds, validation, scenario sweeps and saved
// snapshots over HTTP.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"statement_engine/pkg/core/assumption"
	"statement_engine/pkg/core/calc"
	"statement_engine/pkg/core/projection"
	"statement_engine/pkg/core/scenario"
	"statement_engine/pkg/core/store"
	"statement_engine/pkg/core/validate"
	"statement_engine/pkg/core/valuation"
	"statement_engine/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Handler holds the engine and the collaborators its endpoints share.
type Handler struct {
	engine    *projection.ProjectionEngine
	runner    *scenario.Runner
	repo      *store.ModelRepo // nil disables saving and the /api/models endpoints
	threshold float64          // QA gate on max balance error
	log       logrus.FieldLogger
}

// NewHandler creates a handler. A threshold <= 0 uses the default gate.
func NewHandler(engine *projection.ProjectionEngine, runner *scenario.Runner, repo *store.ModelRepo, threshold float64, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if threshold <= 0 {
		threshold = validate.DefaultAcceptableBalanceError
	}
	return &Handler{
		engine:    engine,
		runner:    runner,
		repo:      repo,
		threshold: threshold,
		log:       logger.WithField("component", "api"),
	}
}

// Register mounts the endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/model/build", h.HandleBuild)
	mux.HandleFunc("POST /api/model/validate", h.HandleValidate)
	mux.HandleFunc("POST /api/model/sweep", h.HandleSweep)
	mux.HandleFunc("GET /api/models", h.HandleList)
	mux.HandleFunc("GET /api/models/{id}", h.HandleGet)
}

// BuildRequest asks for one scenario of a case.
type BuildRequest struct {
	Case           *assumption.Case `json:"case"`
	Scenario       string           `json:"scenario"`
	Overrides      string           `json:"overrides,omitempty"` // Markdown driver table
	DiscountRate   float64          `json:"discount_rate,omitempty"`
	TerminalGrowth float64          `json:"terminal_growth,omitempty"`
	Shares         float64          `json:"shares,omitempty"`
	Save           bool             `json:"save,omitempty"`
}

// BuildResponse is the built model and its derived analysis.
type BuildResponse struct {
	RunID          string                     `json:"run_id,omitempty"`
	Scenario       string                     `json:"scenario"`
	Drivers        []models.DriverAssumptions `json:"drivers"`
	Result         *models.ModelResult        `json:"result"`
	Ratios         []calc.PeriodRatios        `json:"ratios"`
	Valuation      *valuation.DCFResult       `json:"valuation,omitempty"`
	AssuranceError string                     `json:"assurance_error,omitempty"`
}

// HandleBuild builds one scenario. A model that fails the QA gate is still
// returned, with the reasons in assurance_error.
func (h *Handler) HandleBuild(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if !decodeCase(w, r, &req, func() *assumption.Case { return req.Case }) {
		return
	}
	if req.Scenario == "" {
		req.Scenario = "base"
	}

	drivers, err := req.Case.Drivers(req.Scenario)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if req.Overrides != "" {
		if drivers, err = assumption.ApplyDriverTable(req.Overrides, drivers); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	result, err := h.engine.BuildModel(req.Case.Historical, drivers, req.Case.Horizon(drivers))
	if err != nil {
		writeError(w, buildStatus(err), err)
		return
	}

	resp := BuildResponse{
		Scenario: req.Scenario,
		Drivers:  drivers,
		Result:   result,
		Ratios:   calc.AnalyzeModel(result),
	}
	if err := validate.Assure(result, h.threshold); err != nil {
		resp.AssuranceError = err.Error()
	}
	if req.DiscountRate > 0 {
		dcf, err := valuation.CalculateDCF(valuation.DCFInputFromModel(result, req.DiscountRate, req.TerminalGrowth, req.Shares))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		resp.Valuation = &dcf
	}

	if req.Save {
		if h.repo == nil {
			writeError(w, http.StatusNotImplemented, errors.New("model store not configured"))
			return
		}
		snap := &store.Snapshot{CaseName: req.Case.Name, Scenario: req.Scenario, Drivers: drivers, Result: result}
		if err := h.repo.Save(r.Context(), snap); err != nil {
			h.log.WithError(err).Error("Failed to save model")
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		resp.RunID = snap.RunID.String()
	}

	h.log.WithFields(logrus.Fields{
		"case":              req.Case.Name,
		"scenario":          req.Scenario,
		"max_balance_error": result.MaxBalanceError,
	}).Info("Model built")
	writeJSON(w, http.StatusOK, resp)
}

// ScenarioStatus is one scenario's QA outcome.
type ScenarioStatus struct {
	Name            string  `json:"name"`
	Balanced        bool    `json:"balanced"`
	MaxBalanceError float64 `json:"max_balance_error"`
	Error           string  `json:"error,omitempty"`
}

// ValidateResponse reports history issues and the QA gate per scenario.
type ValidateResponse struct {
	HistoryOK bool             `json:"history_ok"`
	Issues    []string         `json:"issues,omitempty"`
	Scenarios []ScenarioStatus `json:"scenarios,omitempty"`
}

// HandleValidate checks a case's history and assures every scenario.
// An invalid history is reported in the body, not as an HTTP error.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var c *assumption.Case
	if !decodeCase(w, r, &c, func() *assumption.Case { return c }) {
		return
	}

	settings := h.engine.Settings()
	if err := validate.ValidateHistory(c.Historical, settings.HistoryTolerance); err != nil {
		resp := ValidateResponse{}
		var herr *validate.HistoryError
		if errors.As(err, &herr) {
			for _, issue := range herr.Issues {
				resp.Issues = append(resp.Issues, issue.String())
			}
		} else {
			resp.Issues = []string{err.Error()}
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp := ValidateResponse{HistoryOK: true}
	for _, name := range c.ScenarioNames() {
		drivers, _ := c.Drivers(name)
		status := ScenarioStatus{Name: name}
		result, err := h.engine.BuildModel(c.Historical, drivers, c.Horizon(drivers))
		if err == nil {
			status.MaxBalanceError = result.MaxBalanceError
			err = validate.Assure(result, h.threshold)
		}
		if err != nil {
			status.Error = err.Error()
		} else {
			status.Balanced = true
		}
		resp.Scenarios = append(resp.Scenarios, status)
	}
	writeJSON(w, http.StatusOK, resp)
}

// SweepRequest asks for a growth sensitivity around one scenario, or every
// scenario of the case when Deltas is empty.
type SweepRequest struct {
	Case     *assumption.Case `json:"case"`
	Scenario string           `json:"scenario"`
	Deltas   []float64        `json:"deltas,omitempty"`
}

// HandleSweep builds scenarios concurrently and returns their summaries.
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if !decodeCase(w, r, &req, func() *assumption.Case { return req.Case }) {
		return
	}

	var scenarios []scenario.Scenario
	if len(req.Deltas) == 0 {
		for _, name := range req.Case.ScenarioNames() {
			drivers, _ := req.Case.Drivers(name)
			scenarios = append(scenarios, scenario.Scenario{Name: name, Drivers: drivers, ForecastYears: req.Case.ForecastYears})
		}
	} else {
		if req.Scenario == "" {
			req.Scenario = "base"
		}
		drivers, err := req.Case.Drivers(req.Scenario)
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		base := scenario.Scenario{Name: req.Scenario, Drivers: drivers, ForecastYears: req.Case.ForecastYears}
		scenarios = scenario.GrowthSensitivity(base, req.Deltas)
	}

	runs, err := h.runner.Run(r.Context(), req.Case.Historical, scenarios)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, scenario.Summarize(runs))
}

// HandleList lists saved snapshots, optionally filtered by ?case_name=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusNotImplemented, errors.New("model store not configured"))
		return
	}
	infos, err := h.repo.List(r.Context(), r.URL.Query().Get("case_name"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// HandleGet returns one saved snapshot.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusNotImplemented, errors.New("model store not configured"))
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid run id: %w", err))
		return
	}
	snap, err := h.repo.Load(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// decodeCase decodes the body into dst and validates the case it carries.
// It writes the error response and returns false on failure.
func decodeCase(w http.ResponseWriter, r *http.Request, dst any, caseOf func() *assumption.Case) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	c := caseOf()
	if c == nil {
		writeError(w, http.StatusBadRequest, errors.New("request has no case"))
		return false
	}
	if err := c.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func buildStatus(err error) int {
	if errors.Is(err, validate.ErrHistoryInconsistent) || errors.Is(err, projection.ErrInvalidHorizon) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(err.Error())})
}
