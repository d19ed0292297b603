package models

// Lookup is a named row of one of the type tables (material, sensor, collector).
type Lookup struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type LookupResponse struct {
	ID   string `json:"id"`
	Nome string `json:"nome"`
}

func (l *Lookup) ToLookupResponse() LookupResponse {
	return LookupResponse{ID: l.ID, Nome: l.Name}
}

type Partner struct {
	ID        string `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Active    bool   `json:"active" db:"active"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
}

type PartnerResponse struct {
	ID    string `json:"id"`
	Nome  string `json:"nome"`
	Ativo bool   `json:"ativo"`
}

func (p *Partner) ToPartnerResponse() PartnerResponse {
	return PartnerResponse{ID: p.ID, Nome: p.Name, Ativo: p.Active}
}

// NoPartnerName is the partner that collections without one are filed under.
const NoPartnerName = "COLETA SEM PARCEIRO"
