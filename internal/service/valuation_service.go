package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"forestval/internal/export"
	"forestval/internal/logger"
	"forestval/internal/model"
	"forestval/internal/repository"
	"forestval/internal/rotation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidRunID = errors.New("invalid run id")
	ErrRunNotFound  = errors.New("valuation run not found")
)

// --- DTOs ---

type ValuationRequest struct {
	RotationLength    int              `json:"rotation_length" binding:"required,min=1"`
	InterestRate      float64          `json:"interest_rate"` // percent
	FlatYearlyCost    float64          `json:"flat_yearly_cost"`
	FlatYearlyRevenue float64          `json:"flat_yearly_revenue"`
	Entries           []rotation.Entry `json:"entries"`
	// FillGaps inserts zero rows for unscheduled years before validation.
	FillGaps bool `json:"fill_gaps"`
}

func (r ValuationRequest) params() rotation.Params {
	return rotation.Params{
		RotationLength:    r.RotationLength,
		InterestRate:      r.InterestRate,
		FlatYearlyCost:    r.FlatYearlyCost,
		FlatYearlyRevenue: r.FlatYearlyRevenue,
	}
}

type ValuationResponse struct {
	RunID  string          `json:"run_id,omitempty"`
	Params rotation.Params `json:"params"`
	*rotation.Valuation
}

type RunSummary struct {
	ID             string   `json:"id"`
	RotationLength int      `json:"rotation_length"`
	InterestRate   string   `json:"interest_rate"`
	RowCount       int      `json:"row_count"`
	Status         string   `json:"status"`
	ErrorKind      string   `json:"error_kind,omitempty"`
	TerminalYear   *int     `json:"terminal_year,omitempty"`
	NPV            *float64 `json:"npv,omitempty"`
	FPV            *float64 `json:"fpv,omitempty"`
	LEV            *float64 `json:"lev,omitempty"`
	CreatedAt      string   `json:"created_at"`
}

// Live event names
const (
	EventRunRecorded = "run_recorded"
)

// Notifier pushes events to connected live-session clients.
type Notifier interface {
	Publish(event string, payload interface{})
}

// --- Interface ---

type ValuationService interface {
	Valuate(ctx context.Context, subject string, req ValuationRequest) (ValuationResponse, error)
	Export(ctx context.Context, subject string, req ValuationRequest) ([]byte, error)
	ListRuns(ctx context.Context, status string, page, limit int) ([]RunSummary, int64, error)
	GetRun(ctx context.Context, id string) (RunSummary, error)
}

type valuationService struct {
	runRepo   repository.ValuationRunRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	notifier  Notifier
	log       *logger.Logger
}

func NewValuationService(
	runRepo repository.ValuationRunRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
	log *logger.Logger,
) ValuationService {
	return &valuationService{
		runRepo:   runRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		notifier:  notifier,
		log:       log,
	}
}

// --- Implementation ---

// Valuate runs the engine and records the outcome. Engine errors are
// returned unchanged (callers match them with errors.Is); a failure to record
// the run is logged and never fails the computation.
func (s *valuationService) Valuate(ctx context.Context, subject string, req ValuationRequest) (ValuationResponse, error) {
	v, err := s.compute(req)
	runID := s.recordRun(ctx, subject, model.ActionValuateRotation, req, v, err)
	if err != nil {
		return ValuationResponse{}, err
	}
	return ValuationResponse{RunID: runID, Params: req.params(), Valuation: v}, nil
}

func (s *valuationService) Export(ctx context.Context, subject string, req ValuationRequest) ([]byte, error) {
	v, err := s.compute(req)
	s.recordRun(ctx, subject, model.ActionExportRotation, req, v, err)
	if err != nil {
		return nil, err
	}
	data, err := export.Workbook(req.params(), v)
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return data, nil
}

func (s *valuationService) ListRuns(ctx context.Context, status string, page, limit int) ([]RunSummary, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	runs, total, err := s.runRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list valuation runs: %w", err)
	}

	res := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		res = append(res, toRunSummary(r))
	}
	return res, total, nil
}

func (s *valuationService) GetRun(ctx context.Context, id string) (RunSummary, error) {
	runID, err := uuid.Parse(id)
	if err != nil {
		return RunSummary{}, fmt.Errorf("%w: %v", ErrInvalidRunID, err)
	}

	run, err := s.runRepo.FindByID(ctx, runID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return RunSummary{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return RunSummary{}, fmt.Errorf("failed to get valuation run: %w", err)
	}
	return toRunSummary(*run), nil
}

// --- Helpers ---

func (s *valuationService) compute(req ValuationRequest) (*rotation.Valuation, error) {
	entries := req.Entries
	if req.FillGaps {
		filled, err := FillGaps(entries, req.RotationLength)
		if err != nil {
			return nil, err
		}
		entries = filled
	}
	return rotation.Compute(entries, req.params())
}

func (s *valuationService) recordRun(ctx context.Context, subject, action string, req ValuationRequest, v *rotation.Valuation, runErr error) string {
	run := model.ValuationRun{
		RotationLength:    req.RotationLength,
		InterestRate:      decimal.NewFromFloat(req.InterestRate),
		FlatYearlyCost:    decimal.NewFromFloat(req.FlatYearlyCost),
		FlatYearlyRevenue: decimal.NewFromFloat(req.FlatYearlyRevenue),
		RowCount:          len(req.Entries),
		Status:            model.RunStatusSucceeded,
	}
	if runErr != nil {
		run.Status = model.RunStatusRejected
		run.ErrorKind = rotation.Kind(runErr)
		run.ErrorMessage = runErr.Error()
	} else {
		terminal := v.TerminalYear
		run.RowCount = len(v.Rows)
		run.TerminalYear = &terminal
		run.NPV = decimal.NewNullDecimal(decimal.NewFromFloat(v.NPV))
		run.FPV = decimal.NewNullDecimal(decimal.NewFromFloat(v.FPV))
		run.LEV = decimal.NewNullDecimal(decimal.NewFromFloat(v.LEV).Round(4))
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.runRepo.Create(txCtx, &run); err != nil {
			return fmt.Errorf("failed to create valuation run: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"status":     run.Status,
			"error_kind": run.ErrorKind,
		})
		audit := &model.AuditLog{
			Subject:    subject,
			Action:     action,
			EntityID:   run.ID.String(),
			EntityName: fmt.Sprintf("rotation %dy @ %s%%", run.RotationLength, run.InterestRate.String()),
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.Warn("valuation run not recorded", "error", err, "status", run.Status)
		return ""
	}

	s.log.Info("valuation run recorded",
		"run_id", run.ID.String(),
		"status", run.Status,
		"error_kind", run.ErrorKind,
		"rotation_length", run.RotationLength,
	)
	if s.notifier != nil {
		s.notifier.Publish(EventRunRecorded, toRunSummary(run))
	}
	return run.ID.String()
}

func toRunSummary(r model.ValuationRun) RunSummary {
	res := RunSummary{
		ID:             r.ID.String(),
		RotationLength: r.RotationLength,
		InterestRate:   r.InterestRate.StringFixed(2),
		RowCount:       r.RowCount,
		Status:         r.Status,
		ErrorKind:      r.ErrorKind,
		TerminalYear:   r.TerminalYear,
		NPV:            nullFloat(r.NPV),
		FPV:            nullFloat(r.FPV),
		LEV:            nullFloat(r.LEV),
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
	}
	return res
}

func nullFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}
