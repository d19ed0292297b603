package models

// Normalized operation types; anything else is stored as typed.
const (
	OperationAvulsa   = "Avulsa"
	OperationCampanha = "Campanha"
)

type Collection struct {
	ID              string   `json:"id" db:"id"`
	BinID           string   `json:"bin_id" db:"bin_id"`
	CollectedAt     int64    `json:"collected_at" db:"collected_at"` // Unix timestamp
	WeightKg        *float64 `json:"weight_kg,omitempty" db:"weight_kg"`
	OperationType   *string  `json:"operation_type,omitempty" db:"operation_type"`
	KmTraveled      *float64 `json:"km_traveled,omitempty" db:"km_traveled"`
	FuelPrice       *float64 `json:"fuel_price,omitempty" db:"fuel_price"`
	ProfitPerKg     *float64 `json:"profit_per_kg,omitempty" db:"profit_per_kg"`
	MTREmitted      bool     `json:"mtr_emitted" db:"mtr_emitted"`
	PartnerID       *string  `json:"partner_id,omitempty" db:"partner_id"`
	CollectorTypeID *string  `json:"collector_type_id,omitempty" db:"collector_type_id"`
	CreatedAt       int64    `json:"created_at" db:"created_at"`

	// Filled by joined queries only
	BinLocation       *string `json:"-" db:"bin_location"`
	PartnerName       *string `json:"-" db:"partner_name"`
	CollectorTypeName *string `json:"-" db:"collector_type_name"`
}

// CollectionResponse is the detail form of a collection record.
type CollectionResponse struct {
	ID                 string   `json:"id"`
	LixeiraID          string   `json:"lixeira_id"`
	LixeiraLocalizacao *string  `json:"lixeira_localizacao"`
	DataHoraIso        string   `json:"data_hora"`
	VolumeEstimado     *float64 `json:"volume_estimado"`
	TipoOperacao       *string  `json:"tipo_operacao"`
	KmPercorrido       *float64 `json:"km_percorrido"`
	PrecoCombustivel   *float64 `json:"preco_combustivel"`
	LucroPorKg         *float64 `json:"lucro_por_kg"`
	EmissaoMTR         bool     `json:"emissao_mtr"`
	ParceiroID         *string  `json:"parceiro_id"`
	Parceiro           *string  `json:"parceiro"`
	TipoColetorID      *string  `json:"tipo_coletor_id"`
	TipoColetor        *string  `json:"tipo_coletor"`
}

// CreateCollectionRequest is the request body for POST /api/coleta.
// A provided weight must be strictly positive, the same rule the CSV import applies.
type CreateCollectionRequest struct {
	LixeiraID        string   `json:"lixeira_id" validate:"required"`
	DataHora         *string  `json:"data_hora"`
	VolumeEstimado   *float64 `json:"volume_estimado" validate:"omitempty,gt=0"`
	TipoOperacao     *string  `json:"tipo_operacao" validate:"omitempty,max=50"`
	KmPercorrido     *float64 `json:"km_percorrido" validate:"omitempty,gte=0"`
	PrecoCombustivel *float64 `json:"preco_combustivel" validate:"omitempty,gte=0"`
	LucroPorKg       *float64 `json:"lucro_por_kg"`
	EmissaoMTR       bool     `json:"emissao_mtr"`
	ParceiroID       *string  `json:"parceiro_id"`
	TipoColetorID    *string  `json:"tipo_coletor_id"`
}

func (c *Collection) ToCollectionResponse() CollectionResponse {
	return CollectionResponse{
		ID:                 c.ID,
		LixeiraID:          c.BinID,
		LixeiraLocalizacao: c.BinLocation,
		DataHoraIso:        isoTime(c.CollectedAt),
		VolumeEstimado:     c.WeightKg,
		TipoOperacao:       c.OperationType,
		KmPercorrido:       c.KmTraveled,
		PrecoCombustivel:   c.FuelPrice,
		LucroPorKg:         c.ProfitPerKg,
		EmissaoMTR:         c.MTREmitted,
		ParceiroID:         c.PartnerID,
		Parceiro:           c.PartnerName,
		TipoColetorID:      c.CollectorTypeID,
		TipoColetor:        c.CollectorTypeName,
	}
}
