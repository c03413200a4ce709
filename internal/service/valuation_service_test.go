package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"forestval/internal/database"
	"forestval/internal/logger"
	"forestval/internal/model"
	"forestval/internal/repository"
	"forestval/internal/rotation"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Publish(event string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

type failingRunRepo struct {
	repository.ValuationRunRepository
}

func (failingRunRepo) Create(ctx context.Context, run *model.ValuationRun) error {
	return errors.New("disk full")
}

func sparseRequest() ValuationRequest {
	return ValuationRequest{
		RotationLength: 8,
		InterestRate:   3,
		FillGaps:       true,
		Entries: []rotation.Entry{
			{T: 0, Measure: "reforest", Cost: 100},
			{T: 2, Measure: "fertilization", Cost: 60},
			{T: 4, Measure: "thinning", Revenue: 200},
			{T: 8, Measure: "harvest", Revenue: 3300},
		},
	}
}

func newTestService(t *testing.T) (ValuationService, AuditService, *recordingNotifier) {
	t.Helper()
	db, err := database.OpenTestDB()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	notifier := &recordingNotifier{}
	runRepo := repository.NewValuationRunRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	svc := NewValuationService(runRepo, auditRepo, repository.NewTransactionManager(db), notifier, logger.Nop())
	return svc, NewAuditService(auditRepo), notifier
}

func TestValuateRecordsRun(t *testing.T) {
	ctx := context.Background()
	svc, audits, notifier := newTestService(t)

	res, err := svc.Valuate(ctx, "forester-1", sparseRequest())
	if err != nil {
		t.Fatalf("Valuate: %v", err)
	}
	if res.RunID == "" {
		t.Fatalf("expected run id")
	}
	if len(res.Rows) != 9 || res.TerminalYear != 8 {
		t.Fatalf("unexpected valuation: rows=%d terminal=%d", len(res.Rows), res.TerminalYear)
	}
	if res.NPV < 2626.18 || res.NPV > 2626.20 {
		t.Fatalf("npv: got=%v", res.NPV)
	}

	runs, total, err := svc.ListRuns(ctx, "", 1, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if total != 1 || runs[0].ID != res.RunID || runs[0].Status != model.RunStatusSucceeded {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if runs[0].RowCount != 9 || runs[0].InterestRate != "3.00" {
		t.Fatalf("unexpected run summary: %+v", runs[0])
	}
	if runs[0].LEV == nil || *runs[0].LEV < 12470.58 || *runs[0].LEV > 12470.60 {
		t.Fatalf("lev: got=%v", runs[0].LEV)
	}

	logs, _, err := audits.GetAuditLogs(ctx, 1, 10)
	if err != nil {
		t.Fatalf("GetAuditLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].Action != model.ActionValuateRotation || logs[0].Subject != "forester-1" || logs[0].EntityID != res.RunID {
		t.Fatalf("unexpected audit logs: %+v", logs)
	}

	if len(notifier.events) != 1 || notifier.events[0] != EventRunRecorded {
		t.Fatalf("unexpected events: %v", notifier.events)
	}
}

func TestGetRun(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	res, err := svc.Valuate(ctx, "forester-1", sparseRequest())
	if err != nil {
		t.Fatalf("Valuate: %v", err)
	}

	run, err := svc.GetRun(ctx, res.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.ID != res.RunID || run.TerminalYear == nil || *run.TerminalYear != 8 {
		t.Fatalf("unexpected run: %+v", run)
	}

	if _, err := svc.GetRun(ctx, "not-a-uuid"); !errors.Is(err, ErrInvalidRunID) {
		t.Fatalf("malformed id: got=%v", err)
	}
	if _, err := svc.GetRun(ctx, "00000000-0000-0000-0000-000000000001"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("unknown id: got=%v", err)
	}
}

func TestValuateRejectedRun(t *testing.T) {
	ctx := context.Background()
	svc, audits, _ := newTestService(t)

	req := sparseRequest()
	req.InterestRate = 0

	_, err := svc.Valuate(ctx, "", req)
	if !errors.Is(err, rotation.ErrDegenerateRate) {
		t.Fatalf("expected ErrDegenerateRate, got %v", err)
	}

	runs, _, err := svc.ListRuns(ctx, model.RunStatusRejected, 1, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ErrorKind != "degenerate_rate" || runs[0].NPV != nil || runs[0].TerminalYear != nil {
		t.Fatalf("unexpected rejected run: %+v", runs)
	}

	logs, _, err := audits.GetAuditLogs(ctx, 1, 10)
	if err != nil {
		t.Fatalf("GetAuditLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].Subject != "anonymous" {
		t.Fatalf("unexpected audit logs: %+v", logs)
	}
}

func TestValuateWithoutGapFill(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := sparseRequest()
	req.FillGaps = false

	if _, err := svc.Valuate(context.Background(), "", req); !errors.Is(err, rotation.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for sparse rows, got %v", err)
	}
}

func TestValuateSurvivesStoreFailure(t *testing.T) {
	db, err := database.OpenTestDB()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	notifier := &recordingNotifier{}
	svc := NewValuationService(
		failingRunRepo{},
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		notifier,
		logger.Nop(),
	)

	res, err := svc.Valuate(context.Background(), "", sparseRequest())
	if err != nil {
		t.Fatalf("Valuate must not fail when recording fails: %v", err)
	}
	if res.RunID != "" {
		t.Fatalf("expected empty run id, got %q", res.RunID)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("nothing should be published for unrecorded runs: %v", notifier.events)
	}
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	svc, audits, _ := newTestService(t)

	data, err := svc.Export(ctx, "", sparseRequest())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	// XLSX files are zip archives.
	if len(data) < 4 || string(data[:2]) != "PK" {
		t.Fatalf("not an xlsx payload")
	}

	logs, _, err := audits.GetAuditLogs(ctx, 1, 10)
	if err != nil {
		t.Fatalf("GetAuditLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].Action != model.ActionExportRotation {
		t.Fatalf("unexpected audit logs: %+v", logs)
	}

	req := sparseRequest()
	req.Entries[3].Revenue = 0
	req.Entries[2].Revenue = 0
	if _, err := svc.Export(ctx, "", req); !errors.Is(err, rotation.ErrNoPositiveResultYears) {
		t.Fatalf("expected ErrNoPositiveResultYears, got %v", err)
	}
}
