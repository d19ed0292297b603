package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	ok       bool
	subjects []string
	to       [][]string
}

func (m *recordingMailer) Send(to []string, subject, _ string) bool {
	m.to = append(m.to, to)
	m.subjects = append(m.subjects, subject)
	return m.ok
}

type recordingNotifier struct {
	mu    sync.Mutex
	err   error
	types []string
}

func (n *recordingNotifier) NotifyAlert(_ context.Context, notif *models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.types = append(n.types, notif.Type)
	return n.err
}

// gateNotifier blocks the first delivery until release is closed.
type gateNotifier struct {
	recordingNotifier
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (n *gateNotifier) NotifyAlert(ctx context.Context, notif *models.Notification) error {
	n.once.Do(func() {
		close(n.entered)
		<-n.release
	})
	return n.recordingNotifier.NotifyAlert(ctx, notif)
}

func TestAlertProcessor_OverlappingRunsAreSkipped(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	const bins = 200
	for i := 0; i < bins; i++ {
		createBin(t, db, &models.Bin{Location: fmt.Sprintf("Rua %d", i), FillLevel: 95})
	}

	notifier := &gateNotifier{entered: make(chan struct{}), release: make(chan struct{})}
	processor := NewAlertProcessor(db, &recordingMailer{ok: true}, notifier)
	scheduler := NewAlertScheduler(processor, time.Hour)

	done := make(chan struct{})
	go func() {
		defer close(done)
		scheduler.Trigger()
	}()
	<-notifier.entered

	// A manual run while the scheduled one is mid-flight must not start.
	stats, err := processor.Process(ctx)
	assert.ErrorIs(t, err, ErrAlertsRunning)
	assert.Equal(t, AlertStats{}, stats)

	close(notifier.release)
	<-done

	notifications, err := database.ListNotifications(ctx, db, false, 0)
	require.NoError(t, err)
	assert.Len(t, notifications, bins)
	perBin := map[string]int{}
	for _, n := range notifications {
		require.NotNil(t, n.BinID)
		perBin[*n.BinID]++
	}
	assert.Len(t, perBin, bins)
	for id, count := range perBin {
		assert.Equal(t, 1, count, "bin %s", id)
	}
	assert.Len(t, notifier.types, bins)

	// Once released the processor runs again and the dedup window holds.
	stats, err = processor.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.LixeirasAlertadas)
}

func TestAlertProcessor_CreatesAndDeduplicates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.CreateUser(ctx, db, &models.User{
		Username: "admin", Email: "admin@example.com", PasswordHash: "x", Active: true, Admin: true,
	}))

	full := createBin(t, db, &models.Bin{Location: "Praça Central", FillLevel: 85})
	createBin(t, db, &models.Bin{Location: "Vazia", FillLevel: 30})
	createBin(t, db, &models.Bin{Location: "Quebrada", FillLevel: 99, Status: models.BinStatusBroken})
	createBin(t, db, &models.Bin{Location: "Limite", FillLevel: 80})

	sensor := &models.Sensor{BinID: full.ID, Battery: 12}
	require.NoError(t, database.CreateSensor(ctx, db, sensor))

	mailer := &recordingMailer{ok: true}
	notifier := &recordingNotifier{}
	processor := NewAlertProcessor(db, mailer, notifier)

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	processor.SetClock(func() time.Time { return now })

	stats, err := processor.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, AlertStats{LixeirasAlertadas: 1, SensoresAlertados: 1, EmailsEnviados: 2}, stats)
	assert.Equal(t, []string{models.NotificationBinFull, models.NotificationLowBattery}, notifier.types)
	assert.Equal(t, []string{"Lixeira Praça Central - Nível Alto", "Sensor " + sensor.ID[:8] + " - Bateria Baixa"}, mailer.subjects)
	assert.Equal(t, []string{"admin@example.com"}, mailer.to[0])

	notifications, err := database.ListNotifications(ctx, db, false, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	for _, n := range notifications {
		assert.True(t, n.Sent)
		assert.NotNil(t, n.SentAt)
	}

	// Within the window nothing new is created.
	now = now.Add(23 * time.Hour)
	stats, err = processor.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, AlertStats{}, stats)

	now = now.Add(2 * time.Hour)
	stats, err = processor.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.LixeirasAlertadas)
	assert.Equal(t, 1, stats.SensoresAlertados)
}

func TestAlertProcessor_MailFailureStillStoresNotification(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.CreateUser(ctx, db, &models.User{
		Username: "admin", Email: "admin@example.com", PasswordHash: "x", Active: true, Admin: true,
	}))
	createBin(t, db, &models.Bin{Location: "Cheia", FillLevel: 97})

	notifier := &recordingNotifier{err: errors.New("channel down")}
	processor := NewAlertProcessor(db, &recordingMailer{ok: false}, notifier)

	stats, err := processor.Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.LixeirasAlertadas)
	assert.Zero(t, stats.EmailsEnviados)
	assert.Zero(t, stats.Erros)

	notifications, err := database.ListNotifications(ctx, db, false, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.False(t, notifications[0].Sent)
}

func TestAlertProcessor_NoAdminsSkipsEmail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createBin(t, db, &models.Bin{Location: "Cheia", FillLevel: 97})

	mailer := &recordingMailer{ok: true}
	stats, err := NewAlertProcessor(db, mailer).Process(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.LixeirasAlertadas)
	assert.Zero(t, stats.EmailsEnviados)
	assert.Empty(t, mailer.subjects)
}

func TestFormatAlertText(t *testing.T) {
	text := FormatAlertText(&models.Notification{Type: models.NotificationLowBattery, Title: "T", Message: "M"})
	assert.Equal(t, "🔋 T\nM", text)
}
