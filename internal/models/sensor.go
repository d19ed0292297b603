package models

type Sensor struct {
	ID           string  `json:"id" db:"id"`
	BinID        string  `json:"bin_id" db:"bin_id"`
	SensorTypeID *string `json:"sensor_type_id,omitempty" db:"sensor_type_id"`
	Battery      float64 `json:"battery" db:"battery"`
	LastPing     *int64  `json:"last_ping,omitempty" db:"last_ping"` // Unix timestamp
	CreatedAt    int64   `json:"created_at" db:"created_at"`

	// Filled by joined queries only
	SensorTypeName *string `json:"-" db:"sensor_type_name"`
	BinLocation    *string `json:"-" db:"bin_location"`
}

type SensorResponse struct {
	ID            string  `json:"id"`
	LixeiraID     string  `json:"lixeira_id"`
	Localizacao   *string `json:"localizacao,omitempty"`
	TipoSensorID  *string `json:"tipo_sensor_id"`
	TipoSensor    *string `json:"tipo_sensor"`
	Bateria       float64 `json:"bateria"`
	UltimoPingIso *string `json:"ultimo_ping"`
}

// CreateSensorRequest is the request body for POST /api/sensor
type CreateSensorRequest struct {
	LixeiraID    string   `json:"lixeira_id" validate:"required"`
	Bateria      *float64 `json:"bateria" validate:"required,gte=0,lte=100"`
	TipoSensorID *string  `json:"tipo_sensor_id"`
}

// UpdateSensorRequest is the request body for PUT /api/sensor/{id}
type UpdateSensorRequest struct {
	Bateria      *float64 `json:"bateria" validate:"omitempty,gte=0,lte=100"`
	TipoSensorID *string  `json:"tipo_sensor_id"`
}

func (s *Sensor) ToSensorResponse() SensorResponse {
	resp := SensorResponse{
		ID:           s.ID,
		LixeiraID:    s.BinID,
		Localizacao:  s.BinLocation,
		TipoSensorID: s.SensorTypeID,
		TipoSensor:   s.SensorTypeName,
		Bateria:      s.Battery,
	}
	if s.LastPing != nil {
		iso := isoTime(*s.LastPing)
		resp.UltimoPingIso = &iso
	}
	return resp
}
