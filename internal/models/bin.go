package models

import "time"

// Bin status values. Status is free text in storage; these are the ones the
// system itself assigns or reacts to.
const (
	BinStatusOK     = "OK"
	BinStatusAlert  = "ALERTA"
	BinStatusFull   = "CHEIA"
	BinStatusBroken = "QUEBRADA"
)

type Bin struct {
	ID             string   `json:"id" db:"id"`
	Location       string   `json:"location" db:"location"`
	FillLevel      float64  `json:"fill_level" db:"fill_level"`
	Status         string   `json:"status" db:"status"`
	Latitude       *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude      *float64 `json:"longitude,omitempty" db:"longitude"`
	PartnerID      *string  `json:"partner_id,omitempty" db:"partner_id"`
	MaterialTypeID *string  `json:"material_type_id,omitempty" db:"material_type_id"`
	LastCollection *int64   `json:"last_collection,omitempty" db:"last_collection"` // Unix timestamp
	CreatedAt      int64    `json:"created_at" db:"created_at"`                     // Unix timestamp
	UpdatedAt      int64    `json:"updated_at" db:"updated_at"`                     // Unix timestamp

	// Filled by joined queries only
	PartnerName  *string `json:"-" db:"partner_name"`
	MaterialName *string `json:"-" db:"material_name"`
}

// HasCoordinates reports whether both latitude and longitude are stored.
func (b *Bin) HasCoordinates() bool {
	return b.Latitude != nil && b.Longitude != nil
}

// BinResponse is what we send to the client with ISO timestamps
type BinResponse struct {
	ID                 string   `json:"id"`
	Localizacao        string   `json:"localizacao"`
	NivelPreenchimento float64  `json:"nivel_preenchimento"`
	Status             string   `json:"status"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	ParceiroID         *string  `json:"parceiro_id"`
	Parceiro           *string  `json:"parceiro"`
	TipoMaterialID     *string  `json:"tipo_material_id"`
	TipoMaterial       *string  `json:"tipo_material"`
	UltimaColetaIso    *string  `json:"ultima_coleta"`
	CriadoEmIso        string   `json:"criado_em"`
}

// CreateBinRequest is the request body for POST /api/lixeira
type CreateBinRequest struct {
	Localizacao        string   `json:"localizacao" validate:"required,max=200"`
	NivelPreenchimento *float64 `json:"nivel_preenchimento" validate:"omitempty,gte=0,lte=100"`
	Status             string   `json:"status" validate:"omitempty,max=20"`
	Latitude           *float64 `json:"latitude" validate:"omitempty,latitude_range"`
	Longitude          *float64 `json:"longitude" validate:"omitempty,longitude_range"`
	ParceiroID         *string  `json:"parceiro_id"`
	TipoMaterialID     *string  `json:"tipo_material_id"`
}

// UpdateBinRequest is the request body for PUT /api/lixeira/{id}.
// Every field is optional; absent fields keep their stored value.
type UpdateBinRequest struct {
	Localizacao        *string  `json:"localizacao" validate:"omitempty,min=1,max=200"`
	NivelPreenchimento *float64 `json:"nivel_preenchimento" validate:"omitempty,gte=0,lte=100"`
	Status             *string  `json:"status" validate:"omitempty,min=1,max=20"`
	Latitude           *float64 `json:"latitude" validate:"omitempty,latitude_range"`
	Longitude          *float64 `json:"longitude" validate:"omitempty,longitude_range"`
	ParceiroID         *string  `json:"parceiro_id"`
	TipoMaterialID     *string  `json:"tipo_material_id"`
}

// SimulateLevelsRequest is the request body for POST /api/lixeiras/simular-niveis
type SimulateLevelsRequest struct {
	DeltaMax   *float64 `json:"delta_max" validate:"omitempty,gte=0,lte=100"`
	ReduzirMax *float64 `json:"reduzir_max" validate:"omitempty,gte=0,lte=100"`
}

// ToBinResponse converts a Bin to BinResponse
func (b *Bin) ToBinResponse() BinResponse {
	resp := BinResponse{
		ID:                 b.ID,
		Localizacao:        b.Location,
		NivelPreenchimento: b.FillLevel,
		Status:             b.Status,
		Latitude:           b.Latitude,
		Longitude:          b.Longitude,
		ParceiroID:         b.PartnerID,
		Parceiro:           b.PartnerName,
		TipoMaterialID:     b.MaterialTypeID,
		TipoMaterial:       b.MaterialName,
		CriadoEmIso:        isoTime(b.CreatedAt),
	}

	if b.LastCollection != nil {
		iso := isoTime(*b.LastCollection)
		resp.UltimaColetaIso = &iso
	}

	return resp
}

// StatusForLevel derives the status a sensor reading implies. Broken bins
// keep their status until someone changes it by hand.
func StatusForLevel(current string, level float64) string {
	if current == BinStatusBroken {
		return current
	}
	switch {
	case level >= 95:
		return BinStatusFull
	case level > 80:
		return BinStatusAlert
	default:
		return BinStatusOK
	}
}

func isoTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}
