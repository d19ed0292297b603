package services

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/helpers"
	"tronik-dashboard/internal/models"

	"github.com/jmoiron/sqlx"
)

// FuelEfficiencyKmPerLiter is the fixed vehicle efficiency used for fuel cost.
const FuelEfficiencyKmPerLiter = 4.0

// NoPartnerLabel groups collections that have no partner in reports.
const NoPartnerLabel = "Sem parceiro"

// ReportFilter narrows the collections a report covers. Nil bounds are open.
type ReportFilter struct {
	Start         *time.Time
	End           *time.Time
	PartnerID     string
	OperationType string

	// Raw values echoed back in the report period.
	RawStart string
	RawEnd   string
}

// ParseReportFilter reads data_inicio, data_fim, parceiro_id and
// tipo_operacao. A date without time covers the whole day in loc.
func ParseReportFilter(values url.Values, loc *time.Location) (ReportFilter, error) {
	if loc == nil {
		loc = time.UTC
	}
	filter := ReportFilter{
		PartnerID:     strings.TrimSpace(values.Get("parceiro_id")),
		OperationType: strings.TrimSpace(values.Get("tipo_operacao")),
		RawStart:      strings.TrimSpace(values.Get("data_inicio")),
		RawEnd:        strings.TrimSpace(values.Get("data_fim")),
	}

	var errs helpers.ValidationErrors
	if filter.RawStart != "" {
		t, dateOnly, err := helpers.ParseTimestamp(filter.RawStart, loc)
		if err != nil {
			errs = append(errs, "data_inicio deve estar no formato YYYY-MM-DD")
		} else {
			if dateOnly {
				t, _ = helpers.DayBounds(t)
			}
			filter.Start = &t
		}
	}
	if filter.RawEnd != "" {
		t, dateOnly, err := helpers.ParseTimestamp(filter.RawEnd, loc)
		if err != nil {
			errs = append(errs, "data_fim deve estar no formato YYYY-MM-DD")
		} else {
			if dateOnly {
				_, t = helpers.DayBounds(t)
			}
			filter.End = &t
		}
	}
	if len(errs) > 0 {
		return filter, errs
	}
	return filter, nil
}

// ReportService aggregates collection records into financial summaries.
type ReportService struct {
	db *sqlx.DB
}

func NewReportService(db *sqlx.DB) *ReportService {
	return &ReportService{db: db}
}

type binAccumulator struct {
	id       string
	location string
	count    int
	weight   float64
	km       float64
	profit   float64
}

type partnerAccumulator struct {
	id     *string
	name   string
	count  int
	weight float64
	profit float64
}

// Build runs the report. Sums accumulate at full precision; only the
// returned figures are rounded to two decimals.
func (s *ReportService) Build(ctx context.Context, filter ReportFilter) (*models.Report, error) {
	dbFilter := database.CollectionFilter{
		PartnerID:     filter.PartnerID,
		OperationType: filter.OperationType,
	}
	if filter.Start != nil {
		v := filter.Start.Unix()
		dbFilter.Start = &v
	}
	if filter.End != nil {
		v := filter.End.Unix()
		dbFilter.End = &v
	}

	collections, err := database.ListCollections(ctx, s.db, dbFilter)
	if err != nil {
		return nil, err
	}
	return Summarize(collections, filter), nil
}

// Summarize computes the report over already loaded collections, which are
// expected newest first.
func Summarize(collections []models.Collection, filter ReportFilter) *models.Report {
	var volume, km, fuelCost, profit float64
	bins := map[string]*binAccumulator{}
	partners := map[string]*partnerAccumulator{}
	details := make([]models.CollectionResponse, 0, len(collections))

	for i := range collections {
		c := &collections[i]
		details = append(details, c.ToCollectionResponse())

		weight := deref(c.WeightKg)
		distance := deref(c.KmTraveled)
		cProfit := 0.0
		if c.WeightKg != nil && c.ProfitPerKg != nil {
			cProfit = *c.WeightKg * *c.ProfitPerKg
		}

		volume += weight
		km += distance
		profit += cProfit
		if c.KmTraveled != nil && c.FuelPrice != nil {
			fuelCost += (*c.KmTraveled / FuelEfficiencyKmPerLiter) * *c.FuelPrice
		}

		b, ok := bins[c.BinID]
		if !ok {
			b = &binAccumulator{id: c.BinID}
			if c.BinLocation != nil {
				b.location = *c.BinLocation
			}
			bins[c.BinID] = b
		}
		b.count++
		b.weight += weight
		b.km += distance
		b.profit += cProfit

		key := ""
		name := NoPartnerLabel
		if c.PartnerID != nil {
			key = *c.PartnerID
			if c.PartnerName != nil {
				name = *c.PartnerName
			}
		}
		p, ok := partners[key]
		if !ok {
			p = &partnerAccumulator{id: c.PartnerID, name: name}
			partners[key] = p
		}
		p.count++
		p.weight += weight
		p.profit += cProfit
	}

	avg := 0.0
	if len(collections) > 0 {
		avg = profit / float64(len(collections))
	}

	report := &models.Report{
		Periodo: models.ReportPeriod{
			DataInicio: optionalString(filter.RawStart),
			DataFim:    optionalString(filter.RawEnd),
		},
		Resumo: models.ReportSummary{
			TotalColetas:          len(collections),
			VolumeTotal:           roundTo2(volume),
			KmTotal:               roundTo2(km),
			CustoCombustivelTotal: roundTo2(fuelCost),
			LucroTotal:            roundTo2(profit),
			LucroMedioPorColeta:   roundTo2(avg),
			ColetasPorLixeira:     binGroups(bins),
			ColetasPorParceiro:    partnerGroups(partners),
		},
		Detalhes: details,
	}
	return report
}

func binGroups(bins map[string]*binAccumulator) []models.BinReportGroup {
	groups := make([]models.BinReportGroup, 0, len(bins))
	for _, b := range bins {
		groups = append(groups, models.BinReportGroup{
			LixeiraID:    b.id,
			Localizacao:  b.location,
			TotalColetas: b.count,
			VolumeTotal:  roundTo2(b.weight),
			KmTotal:      roundTo2(b.km),
			LucroTotal:   roundTo2(b.profit),
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].TotalColetas != groups[j].TotalColetas {
			return groups[i].TotalColetas > groups[j].TotalColetas
		}
		if groups[i].Localizacao != groups[j].Localizacao {
			return groups[i].Localizacao < groups[j].Localizacao
		}
		return groups[i].LixeiraID < groups[j].LixeiraID
	})
	return groups
}

func partnerGroups(partners map[string]*partnerAccumulator) []models.PartnerReportGroup {
	groups := make([]models.PartnerReportGroup, 0, len(partners))
	for _, p := range partners {
		groups = append(groups, models.PartnerReportGroup{
			ParceiroID:   p.id,
			Parceiro:     p.name,
			TotalColetas: p.count,
			VolumeTotal:  roundTo2(p.weight),
			LucroTotal:   roundTo2(p.profit),
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].TotalColetas != groups[j].TotalColetas {
			return groups[i].TotalColetas > groups[j].TotalColetas
		}
		return groups[i].Parceiro < groups[j].Parceiro
	})
	return groups
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// formatMoney renders a value the way reports show currency, e.g. "R$ 1.234,50".
func formatMoney(v float64) string {
	return "R$ " + formatDecimal(v)
}

func formatDecimal(v float64) string {
	s := fmt.Sprintf("%.2f", roundTo2(v))
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac := s[:len(s)-3], s[len(s)-2:]
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := b.String() + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}
