package models

// Report is the response of GET /api/relatorios.
type Report struct {
	Periodo  ReportPeriod         `json:"periodo"`
	Resumo   ReportSummary        `json:"resumo"`
	Detalhes []CollectionResponse `json:"detalhes"`
}

type ReportPeriod struct {
	DataInicio *string `json:"data_inicio"`
	DataFim    *string `json:"data_fim"`
}

type ReportSummary struct {
	TotalColetas          int                  `json:"total_coletas"`
	VolumeTotal           float64              `json:"volume_total"`
	KmTotal               float64              `json:"km_total"`
	CustoCombustivelTotal float64              `json:"custo_combustivel_total"`
	LucroTotal            float64              `json:"lucro_total"`
	LucroMedioPorColeta   float64              `json:"lucro_medio_por_coleta"`
	ColetasPorLixeira     []BinReportGroup     `json:"coletas_por_lixeira"`
	ColetasPorParceiro    []PartnerReportGroup `json:"coletas_por_parceiro"`
}

type BinReportGroup struct {
	LixeiraID    string  `json:"lixeira_id"`
	Localizacao  string  `json:"localizacao"`
	TotalColetas int     `json:"total_coletas"`
	VolumeTotal  float64 `json:"volume_total"`
	KmTotal      float64 `json:"km_total"`
	LucroTotal   float64 `json:"lucro_total"`
}

type PartnerReportGroup struct {
	ParceiroID   *string `json:"parceiro_id"`
	Parceiro     string  `json:"parceiro"`
	TotalColetas int     `json:"total_coletas"`
	VolumeTotal  float64 `json:"volume_total"`
	LucroTotal   float64 `json:"lucro_total"`
}

// DashboardStats is the response of GET /api/estatisticas.
type DashboardStats struct {
	TotalLixeiras  int     `json:"total_lixeiras"`
	LixeirasAlerta int     `json:"lixeiras_alerta"`
	NivelMedio     float64 `json:"nivel_medio"`
	ColetasHoje    int     `json:"coletas_hoje"`
}
