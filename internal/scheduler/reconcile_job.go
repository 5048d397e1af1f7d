package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/MKWcorp/berkomunitas-sub005/internal/service"
	"github.com/MKWcorp/berkomunitas-sub005/pkg/logger"
)

// ReconcileScheduler runs the bulk reconciliation job on a cron schedule.
// The job is idempotent, so overlapping or repeated runs are harmless;
// cron's default behavior of skipping nothing is acceptable here.
type ReconcileScheduler struct {
	cron         *cron.Cron
	reconcileSvc *service.ReconcileService
	cronExpr     string
}

func NewReconcileScheduler(reconcileSvc *service.ReconcileService, cronExpr string) *ReconcileScheduler {
	if cronExpr == "" {
		cronExpr = "@hourly"
	}
	return &ReconcileScheduler{
		cron:         cron.New(),
		reconcileSvc: reconcileSvc,
		cronExpr:     cronExpr,
	}
}

func (s *ReconcileScheduler) Start() error {
	_, err := s.cron.AddFunc(s.cronExpr, s.runReconciliation)
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("reconciliation scheduler started: ", s.cronExpr)
	return nil
}

func (s *ReconcileScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("reconciliation scheduler stopped")
}

func (s *ReconcileScheduler) runReconciliation() {
	report, err := s.reconcileSvc.ReconcileAll(context.Background())
	if err != nil {
		logger.Error("scheduled reconciliation failed: ", err)
		return
	}
	if report.Repaired > 0 || report.Failed > 0 {
		logger.WithFields(map[string]interface{}{
			"scanned":  report.Scanned,
			"repaired": report.Repaired,
			"failed":   report.Failed,
		}).Warn("scheduled reconciliation found drift")
	}
}

// TriggerManual runs one reconciliation pass outside the schedule, for the
// admin endpoint.
func (s *ReconcileScheduler) TriggerManual(ctx context.Context) (*service.ReconcileReport, error) {
	return s.reconcileSvc.ReconcileAll(ctx)
}
