package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/wonny/zuwa/backend/internal/audit"
	"github.com/wonny/zuwa/backend/internal/brain"
	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

// Runner runs one decision pipeline
type Runner interface {
	Run(ctx context.Context, req brain.RunRequest, observe brain.Observer) *contracts.DecisionRecord
}

// LatestReader returns the most recent decision for a symbol
type LatestReader interface {
	Latest(ctx context.Context, symbol string) (*contracts.DecisionRecord, error)
}

var validate = validator.New()

// AnalyzeRequest is the optional body of POST /api/analyze/{symbol}
type AnalyzeRequest struct {
	Symbol         string `json:"-" validate:"required,numeric,len=6"`
	Name           string `json:"name" validate:"max=32"`
	TimeoutSeconds int    `json:"timeout_seconds" default:"60" validate:"min=1,max=300"`
}

// HistoryQuery holds the query parameters of GET /api/decisions/{symbol}
type HistoryQuery struct {
	Limit int `default:"20" validate:"min=1,max=500"`
}

// DecisionHandler handles decision API endpoints
// ⭐ SSOT: 의사결정 API 핸들러는 이 구조체에서만
type DecisionHandler struct {
	runner   Runner
	repo     contracts.DecisionRepository
	latest   LatestReader
	analyzer *audit.Analyzer
	limiter  *rate.Limiter
	logger   *logger.Logger
}

// NewDecisionHandler creates a new decision handler.
// latest may be nil, in which case the repository is queried directly.
func NewDecisionHandler(runner Runner, repo contracts.DecisionRepository, latest LatestReader, log *logger.Logger) *DecisionHandler {
	return &DecisionHandler{
		runner:   runner,
		repo:     repo,
		latest:   latest,
		analyzer: audit.NewAnalyzer(repo, log),
		// 분석은 외부 데이터 소스를 호출하므로 초당 1회, burst 3
		limiter: rate.NewLimiter(rate.Limit(1), 3),
		logger:  log.WithComponent("api"),
	}
}

// WithLimiter replaces the analyze rate limiter. nil disables limiting.
func (h *DecisionHandler) WithLimiter(l *rate.Limiter) *DecisionHandler {
	h.limiter = l
	return h
}

// Analyze runs the pipeline synchronously and returns the decision record
// POST /api/analyze/{symbol}
func (h *DecisionHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	req, err := parseAnalyzeRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.limiter != nil && !h.limiter.Allow() {
		respondError(w, http.StatusTooManyRequests, "Too many analysis requests")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(req.TimeoutSeconds)*time.Second)
	defer cancel()

	record := h.runner.Run(ctx, brain.RunRequest{Symbol: req.Symbol, Name: req.Name}, nil)

	h.logger.WithFields(map[string]interface{}{
		"symbol": record.Symbol,
		"run_id": record.RunID,
		"rating": record.Rating,
	}).Info("Analysis served")

	respondJSON(w, http.StatusOK, record)
}

// GetHistory returns recent decisions with summary statistics
// GET /api/decisions/{symbol}?limit=20
func (h *DecisionHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	symbol := contracts.NormalizeSymbol(mux.Vars(r)["symbol"])

	var q HistoryQuery
	if err := defaults.Set(&q); err != nil {
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'limit' (expected integer)")
			return
		}
		q.Limit = limit
	}
	if err := validate.Struct(q); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'limit' (expected 1-500)")
		return
	}

	report, err := h.analyzer.Analyze(r.Context(), symbol, q.Limit)
	if errors.Is(err, audit.ErrNotFound) {
		respondError(w, http.StatusNotFound, fmt.Sprintf("No decisions for %s", symbol))
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to load decision history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve decision history")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetLatest returns the most recent decision
// GET /api/decisions/{symbol}/latest
func (h *DecisionHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	symbol := contracts.NormalizeSymbol(mux.Vars(r)["symbol"])

	var (
		record *contracts.DecisionRecord
		err    error
	)
	if h.latest != nil {
		record, err = h.latest.Latest(r.Context(), symbol)
	} else {
		var records []*contracts.DecisionRecord
		records, err = h.repo.ListBySymbol(r.Context(), symbol, 1)
		if err == nil && len(records) == 0 {
			err = audit.ErrNotFound
		}
		if err == nil {
			record = records[0]
		}
	}

	if errors.Is(err, audit.ErrNotFound) {
		respondError(w, http.StatusNotFound, fmt.Sprintf("No decisions for %s", symbol))
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to load latest decision")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest decision")
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// GetRun returns one decision record
// GET /api/runs/{runID}
func (h *DecisionHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runID"]

	record, err := h.repo.GetByRunID(r.Context(), runID)
	if errors.Is(err, audit.ErrNotFound) {
		respondError(w, http.StatusNotFound, fmt.Sprintf("Run %s not found", runID))
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to load run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve run")
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// parseAnalyzeRequest reads the symbol path variable and the optional JSON body
func parseAnalyzeRequest(r *http.Request) (AnalyzeRequest, error) {
	var req AnalyzeRequest
	if err := defaults.Set(&req); err != nil {
		return req, err
	}

	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return req, errors.New("Invalid request body")
		}
	}
	req.Symbol = contracts.NormalizeSymbol(mux.Vars(r)["symbol"])

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].Field() {
			case "Symbol":
				return req, fmt.Errorf("Invalid symbol %q (expected 6-digit A-share code)", req.Symbol)
			case "TimeoutSeconds":
				return req, errors.New("Invalid 'timeout_seconds' (expected 1-300)")
			case "Name":
				return req, errors.New("Invalid 'name' (max 32 characters)")
			}
		}
		return req, err
	}
	return req, nil
}
