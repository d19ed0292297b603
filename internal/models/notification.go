package models

const (
	NotificationBinFull    = "lixeira_cheia"
	NotificationLowBattery = "bateria_baixa"
)

type Notification struct {
	ID        string  `json:"id" db:"id"`
	Type      string  `json:"type" db:"type"`
	Title     string  `json:"title" db:"title"`
	Message   string  `json:"message" db:"message"`
	BinID     *string `json:"bin_id,omitempty" db:"bin_id"`
	SensorID  *string `json:"sensor_id,omitempty" db:"sensor_id"`
	Sent      bool    `json:"sent" db:"sent"`
	SentAt    *int64  `json:"sent_at,omitempty" db:"sent_at"`
	Read      bool    `json:"read" db:"is_read"`
	ReadAt    *int64  `json:"read_at,omitempty" db:"read_at"`
	CreatedAt int64   `json:"created_at" db:"created_at"`
}

type NotificationResponse struct {
	ID          string  `json:"id"`
	Tipo        string  `json:"tipo"`
	Titulo      string  `json:"titulo"`
	Mensagem    string  `json:"mensagem"`
	LixeiraID   *string `json:"lixeira_id"`
	SensorID    *string `json:"sensor_id"`
	Enviada     bool    `json:"enviada"`
	EnviadaEm   *string `json:"enviada_em"`
	Lida        bool    `json:"lida"`
	LidaEm      *string `json:"lida_em"`
	CriadaEmIso string  `json:"criada_em"`
}

func (n *Notification) ToNotificationResponse() NotificationResponse {
	resp := NotificationResponse{
		ID:          n.ID,
		Tipo:        n.Type,
		Titulo:      n.Title,
		Mensagem:    n.Message,
		LixeiraID:   n.BinID,
		SensorID:    n.SensorID,
		Enviada:     n.Sent,
		Lida:        n.Read,
		CriadaEmIso: isoTime(n.CreatedAt),
	}
	if n.SentAt != nil {
		iso := isoTime(*n.SentAt)
		resp.EnviadaEm = &iso
	}
	if n.ReadAt != nil {
		iso := isoTime(*n.ReadAt)
		resp.LidaEm = &iso
	}
	return resp
}
