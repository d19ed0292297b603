package services

import (
	"context"
	"fmt"
	"html"
	"sync"
	"time"

	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/helpers"
	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	BinAlertLevel      = 80.0
	BatteryAlertLevel  = 20.0
	AlertDedupWindow   = 24 * time.Hour
	emailFooter        = "Dashboard-TRONIK - Sistema de Monitoramento"
	unknownBinLocation = "N/A"
)

// ErrAlertsRunning is returned by Process when another run is in progress.
var ErrAlertsRunning = errors.New("alert processing already running")

// AlertStats is the result of one processing run.
type AlertStats struct {
	LixeirasAlertadas int `json:"lixeiras_alertadas"`
	SensoresAlertados int `json:"sensores_alertados"`
	EmailsEnviados    int `json:"emails_enviados"`
	Erros             int `json:"erros"`
}

// AlertNotifier receives every notification the processor creates. Delivery
// is best effort; errors are logged and do not count against the run.
type AlertNotifier interface {
	NotifyAlert(ctx context.Context, n *models.Notification) error
}

// AlertProcessor turns threshold breaches into deduplicated notifications.
type AlertProcessor struct {
	running   sync.Mutex
	db        *sqlx.DB
	mailer    EmailSender
	notifiers []AlertNotifier
	now       func() time.Time
}

func NewAlertProcessor(db *sqlx.DB, mailer EmailSender, notifiers ...AlertNotifier) *AlertProcessor {
	return &AlertProcessor{
		db:        db,
		mailer:    mailer,
		notifiers: notifiers,
		now:       time.Now,
	}
}

// SetClock replaces the time source used for the dedup window.
func (p *AlertProcessor) SetClock(now func() time.Time) {
	p.now = now
}

// AddNotifier registers another delivery channel.
func (p *AlertProcessor) AddNotifier(n AlertNotifier) {
	p.notifiers = append(p.notifiers, n)
}

// Process scans bins and sensors once. An error is returned only when a scan
// query itself fails or another run holds the processor (ErrAlertsRunning);
// per-alert failures are counted in Erros. Overlapping callers are skipped,
// not queued.
func (p *AlertProcessor) Process(ctx context.Context) (AlertStats, error) {
	var stats AlertStats
	if !p.running.TryLock() {
		return stats, ErrAlertsRunning
	}
	defer p.running.Unlock()

	since := p.now().Add(-AlertDedupWindow).Unix()

	bins, err := database.BinsInAlert(ctx, p.db, BinAlertLevel, models.BinStatusBroken)
	if err != nil {
		return stats, err
	}
	for i := range bins {
		if err := p.processBin(ctx, &bins[i], since, &stats); err != nil {
			logger.Error("❌ Failed to process bin alert", zap.String("bin_id", bins[i].ID), zap.Error(err))
			stats.Erros++
		}
	}

	sensors, err := database.SensorsWithLowBattery(ctx, p.db, BatteryAlertLevel)
	if err != nil {
		return stats, err
	}
	for i := range sensors {
		if err := p.processSensor(ctx, &sensors[i], since, &stats); err != nil {
			logger.Error("❌ Failed to process sensor alert", zap.String("sensor_id", sensors[i].ID), zap.Error(err))
			stats.Erros++
		}
	}

	logger.Info("🔔 Alert processing finished",
		zap.Int("bins_alerted", stats.LixeirasAlertadas),
		zap.Int("sensors_alerted", stats.SensoresAlertados),
		zap.Int("emails_sent", stats.EmailsEnviados),
		zap.Int("errors", stats.Erros))

	return stats, nil
}

func (p *AlertProcessor) processBin(ctx context.Context, bin *models.Bin, since int64, stats *AlertStats) error {
	recent, err := database.HasRecentNotification(ctx, p.db, models.NotificationBinFull, &bin.ID, nil, since)
	if err != nil {
		return err
	}
	if recent {
		return nil
	}

	binID := bin.ID
	n := &models.Notification{
		Type:      models.NotificationBinFull,
		Title:     fmt.Sprintf("Lixeira %s - Nível Alto", bin.Location),
		Message:   fmt.Sprintf("A lixeira em %s está com %.1f%% de preenchimento.", bin.Location, bin.FillLevel),
		BinID:     &binID,
		CreatedAt: p.now().Unix(),
	}
	body := fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<h2 style="color: #27ae60;">⚠️ Alerta: Lixeira com Nível Alto</h2>
<p><strong>Lixeira:</strong> %s</p>
<p><strong>Nível de Preenchimento:</strong> %.1f%%</p>
<p><strong>Status:</strong> %s</p>
<p style="margin-top: 20px; color: #666; font-size: 12px;">%s</p>
</body>
</html>`, html.EscapeString(bin.Location), bin.FillLevel, html.EscapeString(bin.Status), emailFooter)

	if err := p.emit(ctx, n, body, stats); err != nil {
		return err
	}
	stats.LixeirasAlertadas++
	return nil
}

func (p *AlertProcessor) processSensor(ctx context.Context, sensor *models.Sensor, since int64, stats *AlertStats) error {
	recent, err := database.HasRecentNotification(ctx, p.db, models.NotificationLowBattery, nil, &sensor.ID, since)
	if err != nil {
		return err
	}
	if recent {
		return nil
	}

	location := unknownBinLocation
	if sensor.BinLocation != nil {
		location = *sensor.BinLocation
	}

	sensorID, binID := sensor.ID, sensor.BinID
	n := &models.Notification{
		Type:      models.NotificationLowBattery,
		Title:     fmt.Sprintf("Sensor %s - Bateria Baixa", helpers.ShortID(sensor.ID)),
		Message:   fmt.Sprintf("O sensor da lixeira em %s está com %.1f%% de bateria.", location, sensor.Battery),
		BinID:     &binID,
		SensorID:  &sensorID,
		CreatedAt: p.now().Unix(),
	}
	body := fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<h2 style="color: #f39c12;">🔋 Alerta: Bateria Baixa</h2>
<p><strong>Sensor:</strong> %s</p>
<p><strong>Lixeira:</strong> %s</p>
<p><strong>Nível de Bateria:</strong> %.1f%%</p>
<p style="margin-top: 20px; color: #666; font-size: 12px;">%s</p>
</body>
</html>`, html.EscapeString(sensor.ID), html.EscapeString(location), sensor.Battery, emailFooter)

	if err := p.emit(ctx, n, body, stats); err != nil {
		return err
	}
	stats.SensoresAlertados++
	return nil
}

// emit stores the notification, emails the admins and fans it out to the
// other channels. The insert commits on its own before anything is sent.
func (p *AlertProcessor) emit(ctx context.Context, n *models.Notification, htmlBody string, stats *AlertStats) error {
	if err := database.CreateNotification(ctx, p.db, n); err != nil {
		return err
	}
	logger.Info("Notification created", zap.String("type", n.Type), zap.String("title", n.Title))

	emails, err := database.ActiveAdminEmails(ctx, p.db)
	if err != nil {
		return err
	}
	if len(emails) > 0 && p.mailer != nil && p.mailer.Send(emails, n.Title, htmlBody) {
		sentAt := p.now().Unix()
		if err := database.MarkNotificationSent(ctx, p.db, n.ID, sentAt); err != nil {
			return err
		}
		n.Sent = true
		n.SentAt = &sentAt
		stats.EmailsEnviados += len(emails)
	}

	for _, notifier := range p.notifiers {
		if err := notifier.NotifyAlert(ctx, n); err != nil {
			logger.Warn("Alert channel delivery failed", zap.String("notification_id", n.ID), zap.Error(err))
		}
	}
	return nil
}
