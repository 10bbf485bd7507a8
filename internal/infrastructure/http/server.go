package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"assetsync-service/internal/application"
	"assetsync-service/internal/domain"
	"assetsync-service/internal/infrastructure/logx"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const userHeader = "X-User-ID"

type SnapshotReader interface {
	GetSnapshot(ctx context.Context, req application.SnapshotRequest) (application.SnapshotResult, error)
	GetGradesHistory(ctx context.Context, req application.SnapshotRequest) (application.GradesResult, error)
}

type Valuator interface {
	Reconcile(in application.ValuationInput) (domain.Valuation, error)
	ForSymbol(ctx context.Context, req application.SnapshotRequest) (application.SymbolValuation, error)
}

type TimelineBuilder interface {
	BuildTimeline(ctx context.Context, userID string, holdings []domain.Holding) (domain.PortfolioTimeline, error)
}

type QuotaReader interface {
	Status(ctx context.Context, userID string) (domain.QuotaStatus, error)
}

// RequestRecorder receives one observation per served request.
type RequestRecorder interface {
	RecordHTTPRequest(route string, code int, took time.Duration)
}

type Server struct {
	snapshots  SnapshotReader
	valuations Valuator
	portfolio  TimelineBuilder
	quota      QuotaReader

	ping     func(ctx context.Context) error
	metrics  http.Handler
	recorder RequestRecorder
}

func NewServer(snapshots SnapshotReader, valuations Valuator, portfolio TimelineBuilder, quota QuotaReader) *Server {
	return &Server{snapshots: snapshots, valuations: valuations, portfolio: portfolio, quota: quota}
}

// SetReadyCheck installs the storage check used by /readyz.
func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }

// SetMetrics exposes h on /metrics and records every request with rec. Either may be nil.
func (s *Server) SetMetrics(h http.Handler, rec RequestRecorder) {
	s.metrics, s.recorder = h, rec
}

type snapshotResponse struct {
	Symbol    domain.Symbol                 `json:"symbol"`
	Tier      domain.Tier                   `json:"tier"`
	FromCache bool                          `json:"from_cache"`
	UpdatedAt time.Time                     `json:"updated_at"`
	Notice    *domain.Notice                `json:"notice,omitempty"`
	Snapshot  domain.CanonicalAssetSnapshot `json:"snapshot"`
}

type gradesResponse struct {
	Symbol    domain.Symbol        `json:"symbol"`
	Tier      domain.Tier          `json:"tier"`
	FromCache bool                 `json:"from_cache"`
	UpdatedAt time.Time            `json:"updated_at"`
	Notice    *domain.Notice       `json:"notice,omitempty"`
	Grades    []domain.GradeChange `json:"grades"`
}

type valuationResponse struct {
	Symbol    domain.Symbol    `json:"symbol,omitempty"`
	Valuation domain.Valuation `json:"valuation"`
	Notice    *domain.Notice   `json:"notice,omitempty"`
}

type reconcileRequest struct {
	Price      float64              `json:"price"`
	LeveredDCF *float64             `json:"levered_dcf"`
	Historical []domain.DCFEstimate `json:"historical"`
}

type timelineRequest struct {
	Holdings []domain.Holding `json:"holdings"`
}

func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(userHeader))
}

func (s *Server) snapshotRequest(w http.ResponseWriter, r *http.Request) (application.SnapshotRequest, bool) {
	uid := userID(r)
	if uid == "" {
		badRequest(w, userHeader+" header is required")
		return application.SnapshotRequest{}, false
	}
	return application.SnapshotRequest{Symbol: chi.URLParam(r, "symbol"), UserID: uid}, true
}

func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	req, ok := s.snapshotRequest(w, r)
	if !ok {
		return
	}
	res, err := s.snapshots.GetSnapshot(r.Context(), req)
	if err != nil {
		s.fail(w, r, "get_snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{
		Symbol:    res.Snapshot.Symbol,
		Tier:      res.Tier,
		FromCache: res.FromCache,
		UpdatedAt: res.UpdatedAt,
		Notice:    res.Notice,
		Snapshot:  res.Snapshot,
	})
}

func (s *Server) GetGradesHistory(w http.ResponseWriter, r *http.Request) {
	req, ok := s.snapshotRequest(w, r)
	if !ok {
		return
	}
	res, err := s.snapshots.GetGradesHistory(r.Context(), req)
	if err != nil {
		s.fail(w, r, "get_grades_history", err)
		return
	}
	writeJSON(w, http.StatusOK, gradesResponse{
		Symbol:    res.Symbol,
		Tier:      res.Tier,
		FromCache: res.FromCache,
		UpdatedAt: res.UpdatedAt,
		Notice:    res.Notice,
		Grades:    res.Grades,
	})
}

func (s *Server) GetValuation(w http.ResponseWriter, r *http.Request) {
	req, ok := s.snapshotRequest(w, r)
	if !ok {
		return
	}
	res, err := s.valuations.ForSymbol(r.Context(), req)
	if err != nil {
		s.fail(w, r, "get_valuation", err)
		return
	}
	writeJSON(w, http.StatusOK, valuationResponse{Symbol: res.Symbol, Valuation: res.Valuation, Notice: res.Notice})
}

func (s *Server) ReconcileValuation(w http.ResponseWriter, r *http.Request) {
	var body reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	val, err := s.valuations.Reconcile(application.ValuationInput{
		Price:      body.Price,
		Levered:    body.LeveredDCF,
		Historical: body.Historical,
	})
	if err != nil {
		s.fail(w, r, "reconcile_valuation", err)
		return
	}
	writeJSON(w, http.StatusOK, valuationResponse{Valuation: val})
}

func (s *Server) BuildTimeline(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		badRequest(w, userHeader+" header is required")
		return
	}
	var body timelineRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	tl, err := s.portfolio.BuildTimeline(r.Context(), uid, body.Holdings)
	if err != nil {
		s.fail(w, r, "build_timeline", err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

func (s *Server) GetQuota(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		badRequest(w, userHeader+" header is required")
		return
	}
	st, err := s.quota.Status(r.Context(), uid)
	if err != nil {
		s.fail(w, r, "get_quota", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	log := logx.WithFields(r.Context()).With(zap.String("operation", op), zap.Int("status", status), zap.Error(err))
	if status >= http.StatusInternalServerError {
		log.Warn("http.request_failed")
	} else {
		log.Info("http.request_rejected")
	}
	writeServiceError(w, err)
}
