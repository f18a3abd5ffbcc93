package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/riskreport/internal/analysis"
	"github.com/wonny/riskreport/internal/contracts"
	"github.com/wonny/riskreport/internal/report"
	"github.com/wonny/riskreport/pkg/config"
	"github.com/wonny/riskreport/pkg/logger"
)

// Analysis outcomes reported to the recorder
const (
	OutcomeOK             = "ok"
	OutcomeSchemaMismatch = "schema_mismatch"
	OutcomeEmptyLedger    = "empty_ledger"
	OutcomeBadRequest     = "bad_request"
	OutcomeTooLarge       = "too_large"
	OutcomeError          = "error"
)

// AnalysisRecorder receives one observation per analyze request (optional)
type AnalysisRecorder interface {
	ObserveAnalysis(format, outcome string, trades, warnings int, elapsed time.Duration)
}

// AnalysisHandler handles report analysis endpoints
// ⭐ SSOT: 요청마다 독립된 analysis.Session 사용
type AnalysisHandler struct {
	cfg      config.AnalysisConfig
	maxBytes int64
	recorder AnalysisRecorder
	logger   *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler; recorder may be nil
func NewAnalysisHandler(cfg config.AnalysisConfig, maxBytes int64, recorder AnalysisRecorder, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		cfg:      cfg,
		maxBytes: maxBytes,
		recorder: recorder,
		logger:   log,
	}
}

// AnalyzeResponse is the analysis result; equity curves are only included with detail=true
type AnalyzeResponse struct {
	ID          string                       `json:"id"`
	ContentKey  string                       `json:"content_key"`
	Format      string                       `json:"format"`
	GeneratedAt time.Time                    `json:"generated_at"`
	Trades      int                          `json:"trades"`
	SkippedRows int                          `json:"skipped_rows"`
	Warnings    []contracts.ParseWarning     `json:"warnings"`
	Summary     map[string]float64           `json:"broker_summary,omitempty"`
	Metrics     contracts.MetricSet          `json:"metrics"`
	Recovery    contracts.RecoveryReport     `json:"recovery"`
	Temporal    contracts.TemporalReport     `json:"temporal"`
	Simulation  contracts.SimulationSummary  `json:"simulation"`
	Ledger      *contracts.Ledger            `json:"ledger,omitempty"`
	Detail      *contracts.SimulationResult  `json:"simulation_detail,omitempty"`
}

// analyzeQuery is the parsed query string of POST /api/analyze
type analyzeQuery struct {
	format  report.Format
	balance *float64
	trials  *int
	seed    *int64
	ruin    *float64
	workers *int
	detail  bool
}

// Analyze parses the raw request body and returns every analysis result
// POST /api/analyze?format=csv|html&trials=&seed=&ruin=&balance=&workers=&detail=
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	q, err := parseAnalyzeQuery(r, h.cfg.MaxTrials)
	if err != nil {
		h.observe("", OutcomeBadRequest, 0, 0, start)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.observe(string(q.format), OutcomeTooLarge, 0, 0, start)
			respondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("report exceeds %d bytes", h.maxBytes))
			return
		}
		h.observe(string(q.format), OutcomeBadRequest, 0, 0, start)
		respondError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	cfg := h.cfg
	if q.balance != nil {
		cfg.InitialBalance = q.balance
	}
	session, err := analysis.NewSession(cfg, h.logger)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create analysis session")
		h.observe(string(q.format), OutcomeError, 0, 0, start)
		respondError(w, http.StatusInternalServerError, "Failed to create analysis session")
		return
	}

	if _, err := session.Load(raw, q.format); err != nil {
		h.respondParseError(w, q.format, err, start)
		return
	}

	params, err := session.DefaultParams()
	if err != nil {
		h.observe(string(q.format), OutcomeError, 0, 0, start)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	q.apply(&params)
	params.DiscardCurves = !q.detail

	rep, err := session.Analyze(r.Context(), raw, q.format, &params)
	if err != nil {
		h.respondAnalyzeError(w, q.format, err, start)
		return
	}

	resp := AnalyzeResponse{
		ID:          rep.ID,
		ContentKey:  rep.ContentKey,
		Format:      rep.Format,
		GeneratedAt: rep.GeneratedAt,
		Trades:      rep.Ledger.Len(),
		SkippedRows: contracts.SkippedRows(rep.Warnings),
		Warnings:    nonNilWarnings(rep.Warnings),
		Summary:     rep.Summary,
		Metrics:     rep.Metrics,
		Recovery:    rep.Recovery,
		Temporal:    rep.Temporal,
		Simulation:  rep.Simulation.Summary(),
	}
	if q.detail {
		resp.Ledger = rep.Ledger
		resp.Detail = rep.Simulation
	}

	h.observe(rep.Format, OutcomeOK, resp.Trades, len(resp.Warnings), start)
	respondJSON(w, http.StatusOK, resp)
}

func (h *AnalysisHandler) respondParseError(w http.ResponseWriter, format report.Format, err error, start time.Time) {
	var perr *contracts.ParseError
	errors.As(err, &perr)

	switch {
	case errors.Is(err, contracts.ErrSchemaMismatch):
		h.observe(string(format), OutcomeSchemaMismatch, 0, 0, start)
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: err.Error(),
			Kind:  OutcomeSchemaMismatch,
		})
	case errors.Is(err, contracts.ErrEmptyLedger):
		var warnings []contracts.ParseWarning
		if perr != nil {
			warnings = perr.Warnings
		}
		h.observe(string(format), OutcomeEmptyLedger, 0, len(warnings), start)
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:    err.Error(),
			Kind:     OutcomeEmptyLedger,
			Warnings: warnings,
		})
	case errors.Is(err, contracts.ErrUnsupportedFormat):
		h.observe(string(format), OutcomeBadRequest, 0, 0, start)
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.WithError(err).Error("Failed to parse report")
		h.observe(string(format), OutcomeError, 0, 0, start)
		respondError(w, http.StatusInternalServerError, "Failed to parse report")
	}
}

func (h *AnalysisHandler) respondAnalyzeError(w http.ResponseWriter, format report.Format, err error, start time.Time) {
	switch {
	case errors.Is(err, contracts.ErrInvalidTrialCount), errors.Is(err, contracts.ErrInvalidRuinThreshold):
		h.observe(string(format), OutcomeBadRequest, 0, 0, start)
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.observe(string(format), OutcomeError, 0, 0, start)
		respondError(w, http.StatusServiceUnavailable, "Analysis cancelled")
	default:
		h.logger.WithError(err).Error("Analysis failed")
		h.observe(string(format), OutcomeError, 0, 0, start)
		respondError(w, http.StatusInternalServerError, "Analysis failed")
	}
}

func (h *AnalysisHandler) observe(format, outcome string, trades, warnings int, start time.Time) {
	if h.recorder == nil {
		return
	}
	h.recorder.ObserveAnalysis(format, outcome, trades, warnings, time.Since(start))
}

// parseAnalyzeQuery reads the query string; format falls back to the Content-Type
// parseAnalyzeQuery reads query overrides; trials above maxTrials are rejected before the body is read
func parseAnalyzeQuery(r *http.Request, maxTrials int) (analyzeQuery, error) {
	var q analyzeQuery
	values := r.URL.Query()

	formatHint := values.Get("format")
	if formatHint == "" {
		formatHint = formatFromContentType(r.Header.Get("Content-Type"))
	}
	if formatHint == "" {
		return q, fmt.Errorf("format is required (csv or html)")
	}
	format, err := report.ParseFormat(formatHint)
	if err != nil {
		return q, err
	}
	q.format = format

	if v := values.Get("balance"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return q, fmt.Errorf("invalid balance %q", v)
		}
		q.balance = &f
	}
	if v := values.Get("trials"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("invalid trials %q", v)
		}
		if maxTrials > 0 && n > maxTrials {
			return q, fmt.Errorf("trials %d exceeds the limit of %d", n, maxTrials)
		}
		q.trials = &n
	}
	if v := values.Get("seed"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return q, fmt.Errorf("invalid seed %q", v)
		}
		q.seed = &n
	}
	if v := values.Get("ruin"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return q, fmt.Errorf("invalid ruin %q", v)
		}
		q.ruin = &f
	}
	if v := values.Get("workers"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("invalid workers %q", v)
		}
		q.workers = &n
	}
	if v := values.Get("detail"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, fmt.Errorf("invalid detail %q", v)
		}
		q.detail = b
	}
	return q, nil
}

// apply overrides configured simulation params with query values
func (q analyzeQuery) apply(p *contracts.SimulationParams) {
	if q.trials != nil {
		p.Trials = *q.trials
	}
	if q.seed != nil {
		p.Seed = q.seed
	}
	if q.ruin != nil {
		p.RuinThreshold = *q.ruin
	}
	if q.workers != nil {
		p.Workers = *q.workers
	}
}

func formatFromContentType(ct string) string {
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return string(report.FormatHTML)
	case "text/csv", "text/tab-separated-values":
		return string(report.FormatCSV)
	}
	return ""
}

func nonNilWarnings(w []contracts.ParseWarning) []contracts.ParseWarning {
	if w == nil {
		return []contracts.ParseWarning{}
	}
	return w
}
