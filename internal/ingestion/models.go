package ingestion

import (
	"encoding/json"
	"fmt"
	"strings"

	"tronik-dashboard/internal/helpers"
)

// Reading is the JSON payload a bin sensor publishes.
type Reading struct {
	SensorID           string   `json:"sensor_id"`
	NivelPreenchimento *float64 `json:"nivel_preenchimento" validate:"required,gte=0,lte=100"`
	Bateria            *float64 `json:"bateria" validate:"omitempty,gte=0,lte=100"`
	Timestamp          *int64   `json:"timestamp"`
}

// ParseReading decodes and validates a payload.
func ParseReading(payload []byte) (*Reading, error) {
	var reading Reading
	if err := json.Unmarshal(payload, &reading); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if err := helpers.ValidateStruct(&reading); err != nil {
		return nil, err
	}
	if reading.Bateria != nil && reading.SensorID == "" {
		return nil, fmt.Errorf("bateria requires sensor_id")
	}
	return &reading, nil
}

// BinIDFromTopic extracts the segment that matched the single-level wildcard
// in pattern. Topics that do not fit the pattern yield "".
func BinIDFromTopic(pattern, topic string) string {
	patternParts := strings.Split(pattern, "/")
	topicParts := strings.Split(topic, "/")
	if len(patternParts) != len(topicParts) {
		return ""
	}

	binID := ""
	for i, part := range patternParts {
		switch part {
		case "+":
			if binID == "" {
				binID = topicParts[i]
			}
		default:
			if part != topicParts[i] {
				return ""
			}
		}
	}
	return binID
}
