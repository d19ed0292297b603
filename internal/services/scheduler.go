package services

import (
	"context"
	"sync"
	"time"

	"tronik-dashboard/internal/logger"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// AlertRunner is what the scheduler triggers; *AlertProcessor satisfies it.
type AlertRunner interface {
	Process(ctx context.Context) (AlertStats, error)
}

// SchedulerStatus is the response of GET /api/alertas/agendamento.
type SchedulerStatus struct {
	Ativo            bool    `json:"ativo"`
	Mensagem         string  `json:"mensagem,omitempty"`
	ProximaExecucao  *string `json:"proxima_execucao"`
	UltimaExecucao   *string `json:"ultima_execucao"`
	IntervaloMinutos int     `json:"intervalo_minutos"`
}

// AlertScheduler runs the alert processor periodically. A trigger that fires
// while the previous run is still going is skipped, not queued.
type AlertScheduler struct {
	runner   AlertRunner
	interval time.Duration
	cron     *cron.Cron
	job      cron.Job
	entryID  cron.EntryID

	mu      sync.Mutex
	running bool
	lastRun *time.Time
	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewAlertScheduler builds a stopped scheduler. Intervals under one minute
// fall back to 60 minutes.
func NewAlertScheduler(runner AlertRunner, interval time.Duration) *AlertScheduler {
	if interval < time.Minute {
		logger.Warn("Invalid scheduler interval, using 60 minutes", zap.Duration("interval", interval))
		interval = 60 * time.Minute
	}

	s := &AlertScheduler{
		runner:   runner,
		interval: interval,
		cron:     cron.New(cron.WithLogger(cronLogger{})),
	}
	s.job = cron.NewChain(cron.SkipIfStillRunning(cronLogger{})).Then(cron.FuncJob(s.run))
	return s
}

// Start schedules the job. Calling it twice is a no-op.
func (s *AlertScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	s.baseCtx, s.cancel = context.WithCancel(context.Background())
	s.entryID = s.cron.Schedule(cron.Every(s.interval), s.job)
	s.cron.Start()
	s.running = true

	logger.Info("✅ Alert scheduler started",
		zap.Duration("interval", s.interval),
		zap.Time("next_run", s.cron.Entry(s.entryID).Next))
}

// Stop halts scheduling and waits for an in-flight run to end or ctx to expire.
func (s *AlertScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		cancel()
		logger.Info("Alert scheduler stopped")
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

// Status reports whether the scheduler runs and when it fires next.
func (s *AlertScheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := SchedulerStatus{
		Ativo:            s.running,
		IntervaloMinutos: int(s.interval / time.Minute),
	}
	if !s.running {
		status.Mensagem = "Sistema de agendamento não está ativo"
		return status
	}

	if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
		iso := next.Format(time.RFC3339)
		status.ProximaExecucao = &iso
	}
	if s.lastRun != nil {
		iso := s.lastRun.Format(time.RFC3339)
		status.UltimaExecucao = &iso
	}
	return status
}

// Trigger runs the job through the same no-overlap guard the timer uses.
func (s *AlertScheduler) Trigger() {
	s.job.Run()
}

func (s *AlertScheduler) run() {
	s.mu.Lock()
	ctx := s.baseCtx
	now := time.Now()
	s.lastRun = &now
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	logger.Info("🔄 Running scheduled alert processing")
	stats, err := s.runner.Process(ctx)
	if errors.Is(err, ErrAlertsRunning) {
		logger.Warn("⏭️ Alert processing already running, skipping scheduled run")
		return
	}
	if err != nil {
		logger.Error("❌ Scheduled alert processing failed", zap.Error(err))
		return
	}
	if stats.Erros > 0 {
		logger.Warn("⚠️ Scheduled alert processing finished with errors", zap.Int("errors", stats.Erros))
		return
	}
	logger.Info("✅ Scheduled alert processing finished",
		zap.Int("bins_alerted", stats.LixeirasAlertadas),
		zap.Int("sensors_alerted", stats.SensoresAlertados),
		zap.Int("emails_sent", stats.EmailsEnviados))
}

// cronLogger routes cron's own messages through zap.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Logger.Sugar().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
