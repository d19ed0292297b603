package ingestion

import (
	"context"
	"time"

	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Publisher receives every applied reading; the WebSocket hub satisfies it.
type Publisher interface {
	Broadcast(eventType string, data interface{})
}

// ReadingEvent is what gets published after a reading is stored.
type ReadingEvent struct {
	LixeiraID          string   `json:"lixeira_id"`
	NivelPreenchimento float64  `json:"nivel_preenchimento"`
	Status             string   `json:"status"`
	SensorID           string   `json:"sensor_id,omitempty"`
	Bateria            *float64 `json:"bateria,omitempty"`
}

// Processor applies sensor readings to bins and sensors.
type Processor struct {
	db        *sqlx.DB
	publisher Publisher
	eventType string
	now       func() time.Time
}

func NewProcessor(db *sqlx.DB, publisher Publisher, eventType string) *Processor {
	return &Processor{
		db:        db,
		publisher: publisher,
		eventType: eventType,
		now:       time.Now,
	}
}

// Apply stores one reading. The bin and sensor updates share a transaction.
func (p *Processor) Apply(ctx context.Context, binID string, reading *Reading) (*ReadingEvent, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	bin, err := database.GetBin(ctx, tx, binID)
	if err != nil {
		return nil, err
	}

	level := *reading.NivelPreenchimento
	status := models.StatusForLevel(bin.Status, level)
	if err := database.UpdateBinReading(ctx, tx, bin.ID, level, status); err != nil {
		return nil, err
	}

	if reading.SensorID != "" {
		at := p.now().Unix()
		if reading.Timestamp != nil {
			at = *reading.Timestamp
		}
		battery := 0.0
		if reading.Bateria != nil {
			battery = *reading.Bateria
		} else if sensor, err := database.GetSensor(ctx, tx, reading.SensorID); err == nil {
			battery = sensor.Battery
		} else {
			return nil, err
		}
		if err := database.UpdateSensorReading(ctx, tx, reading.SensorID, bin.ID, battery, at); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	event := &ReadingEvent{
		LixeiraID:          bin.ID,
		NivelPreenchimento: level,
		Status:             status,
		SensorID:           reading.SensorID,
		Bateria:            reading.Bateria,
	}
	if p.publisher != nil {
		p.publisher.Broadcast(p.eventType, event)
	}
	return event, nil
}

// HandleMessage is the MQTT callback: invalid payloads are logged and dropped.
func (p *Processor) HandleMessage(ctx context.Context, binID string, payload []byte) {
	if binID == "" {
		logger.Warn("Reading on unexpected topic dropped")
		return
	}

	reading, err := ParseReading(payload)
	if err != nil {
		logger.Warn("Invalid sensor payload", zap.String("bin_id", binID), zap.Error(err))
		return
	}

	if _, err := p.Apply(ctx, binID, reading); err != nil {
		if database.IsNotFound(err) {
			logger.Warn("Reading for unknown bin or sensor dropped",
				zap.String("bin_id", binID),
				zap.String("sensor_id", reading.SensorID))
			return
		}
		logger.Error("❌ Failed to store sensor reading", zap.String("bin_id", binID), zap.Error(err))
		return
	}

	logger.Debug("📡 Sensor reading applied",
		zap.String("bin_id", binID),
		zap.Float64("level", *reading.NivelPreenchimento))
}
