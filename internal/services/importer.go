package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/helpers"
	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// CSV column headers, upper-cased.
const (
	colCompany       = "EMPRESAS"
	colDate          = "DATA DA COLETA"
	colWeight        = "QUANTIDADE(KG)"
	colKm            = "KM"
	colFuelPrice     = "PREÇO CONBUSTÍVEL(POR LITRO)"
	colFuelPriceAlt  = "PREÇO COMBUSTÍVEL(POR LITRO)"
	colProfitPerKg   = "LUCRO POR KG(EM REAIS)"
	colMTR           = "EMISSÃO DE MTR"
	colOperationType = "TIPO DE COLETA"
	colCollectorType = "TIPO DE COLETOR"
	colPartner       = "PARCEIRO"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ImportRowError describes a rejected CSV line. Linha is the 1-based file
// line, the header being line 1.
type ImportRowError struct {
	Linha int               `json:"linha"`
	Erros []string          `json:"erros"`
	Dados map[string]string `json:"dados,omitempty"`
}

// ImportStats summarizes an import run.
type ImportStats struct {
	TotalLinhas        int              `json:"total_linhas"`
	LinhasValidas      int              `json:"linhas_validas"`
	LinhasInvalidas    int              `json:"linhas_invalidas"`
	ColetasCriadas     int              `json:"coletas_criadas"`
	ColetasAtualizadas int              `json:"coletas_atualizadas"`
	ColetasDuplicadas  int              `json:"coletas_duplicadas"`
	Erros              []ImportRowError `json:"erros"`
}

// Importer loads collection spreadsheets exported as CSV.
type Importer struct {
	db  *sqlx.DB
	loc *time.Location
}

func NewImporter(db *sqlx.DB, loc *time.Location) *Importer {
	if loc == nil {
		loc = time.UTC
	}
	return &Importer{db: db, loc: loc}
}

func (im *Importer) ImportFile(ctx context.Context, path string, update bool) (*ImportStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "arquivo CSV não encontrado: %s", path)
	}
	defer f.Close()
	return im.Import(ctx, f, update)
}

// Import reads every row of r inside one transaction. Rows that fail
// validation or persistence are reported in the stats; an error is returned
// only when the file cannot be read or the transaction cannot commit.
func (im *Importer) Import(ctx context.Context, r io.Reader, update bool) (*ImportStats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read csv")
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read csv header")
	}
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	if idx, ok := columns[colFuelPriceAlt]; ok {
		if _, exists := columns[colFuelPrice]; !exists {
			columns[colFuelPrice] = idx
		}
	}
	for _, required := range []string{colCompany, colDate, colWeight} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("coluna obrigatória ausente: %s", required)
		}
	}

	stats := &ImportStats{Erros: []ImportRowError{}}
	logger.Info("📥 Starting CSV import", zap.Bool("update", update), zap.String("delimiter", string(reader.Comma)))

	tx, err := im.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			stats.TotalLinhas++
			stats.LinhasInvalidas++
			stats.Erros = append(stats.Erros, ImportRowError{Linha: line, Erros: []string{err.Error()}})
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stats.TotalLinhas++
		row := rowValues(columns, record)
		if isBlankRow(record) {
			continue
		}

		parsed, problems := im.parseRow(row)
		if len(problems) > 0 {
			stats.LinhasInvalidas++
			stats.Erros = append(stats.Erros, ImportRowError{Linha: line, Erros: problems, Dados: rawRow(header, record)})
			logger.Warn("Invalid CSV line", zap.Int("line", line), zap.Strings("errors", problems))
			continue
		}
		stats.LinhasValidas++

		outcome, err := im.saveRow(ctx, tx, parsed, update)
		if err != nil {
			stats.LinhasValidas--
			stats.LinhasInvalidas++
			stats.Erros = append(stats.Erros, ImportRowError{Linha: line, Erros: []string{err.Error()}, Dados: rawRow(header, record)})
			logger.Error("Failed to import CSV line", zap.Int("line", line), zap.Error(err))
			continue
		}
		switch outcome {
		case rowCreated:
			stats.ColetasCriadas++
		case rowUpdated:
			stats.ColetasAtualizadas++
		case rowDuplicate:
			stats.ColetasDuplicadas++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit import")
	}

	logger.Info("✅ CSV import finished",
		zap.Int("total_lines", stats.TotalLinhas),
		zap.Int("valid", stats.LinhasValidas),
		zap.Int("invalid", stats.LinhasInvalidas),
		zap.Int("created", stats.ColetasCriadas),
		zap.Int("updated", stats.ColetasAtualizadas),
		zap.Int("duplicates", stats.ColetasDuplicadas))
	return stats, nil
}

type importRow struct {
	company       string
	collectedAt   time.Time
	weight        float64
	km            *float64
	fuelPrice     *float64
	profitPerKg   *float64
	mtr           bool
	operationType *string
	collectorType string
	partner       string
}

func (im *Importer) parseRow(row map[string]string) (*importRow, []string) {
	var problems []string
	parsed := &importRow{
		company:       row[colCompany],
		collectorType: row[colCollectorType],
		partner:       row[colPartner],
		mtr:           strings.ToUpper(row[colMTR]) == "SIM",
	}

	if parsed.company == "" {
		problems = append(problems, "Empresa vazia")
	}

	if raw := row[colDate]; raw == "" {
		problems = append(problems, "Data da coleta vazia")
	} else if t, err := helpers.ParseBRDate(raw, im.loc); err != nil {
		problems = append(problems, fmt.Sprintf("Data inválida: %s", raw))
	} else {
		parsed.collectedAt = t
	}

	weight, err := helpers.ParseDecimal(row[colWeight])
	if err != nil || weight == nil || *weight <= 0 {
		problems = append(problems, fmt.Sprintf("Quantidade inválida: %s", row[colWeight]))
	} else {
		parsed.weight = *weight
	}

	parsed.km = optionalNonNegative(row[colKm], colKm)
	parsed.fuelPrice = optionalNonNegative(row[colFuelPrice], colFuelPrice)
	parsed.profitPerKg = optionalNonNegative(row[colProfitPerKg], colProfitPerKg)
	parsed.operationType = NormalizeOperationType(row[colOperationType])

	return parsed, problems
}

type rowOutcome int

const (
	rowCreated rowOutcome = iota
	rowUpdated
	rowDuplicate
)

// saveRow persists one row under a savepoint so a failed row leaves the
// surrounding transaction usable.
func (im *Importer) saveRow(ctx context.Context, tx *sqlx.Tx, row *importRow, update bool) (rowOutcome, error) {
	if _, err := tx.ExecContext(ctx, "SAVEPOINT import_row"); err != nil {
		return 0, errors.Wrap(err, "failed to create savepoint")
	}

	outcome, err := im.writeRow(ctx, tx, row, update)
	if err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT import_row"); rbErr != nil {
			return 0, errors.Wrap(rbErr, "failed to roll back row")
		}
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT import_row"); err != nil {
		return 0, errors.Wrap(err, "failed to release savepoint")
	}
	return outcome, nil
}

func (im *Importer) writeRow(ctx context.Context, tx *sqlx.Tx, row *importRow, update bool) (rowOutcome, error) {
	var partnerID, collectorTypeID *string
	if row.partner != "" {
		id, err := database.FindOrCreatePartner(ctx, tx, row.partner)
		if err != nil {
			return 0, err
		}
		partnerID = &id
	}
	if row.collectorType != "" {
		id, err := database.FindOrCreateLookup(ctx, tx, database.CollectorTypes, row.collectorType)
		if err != nil {
			return 0, err
		}
		collectorTypeID = &id
	}

	binID, err := im.findOrCreateBin(ctx, tx, row.company, partnerID)
	if err != nil {
		return 0, err
	}

	collectedAt := row.collectedAt.Unix()
	weight := row.weight
	existing, err := database.FindCollectionByKey(ctx, tx, binID, collectedAt, &weight)
	if err != nil && !database.IsNotFound(err) {
		return 0, err
	}

	if existing != nil {
		if !update {
			return rowDuplicate, nil
		}
		existing.OperationType = row.operationType
		existing.KmTraveled = row.km
		existing.FuelPrice = row.fuelPrice
		existing.ProfitPerKg = row.profitPerKg
		existing.MTREmitted = row.mtr
		existing.CollectorTypeID = collectorTypeID
		existing.PartnerID = partnerID
		if err := database.UpdateCollection(ctx, tx, existing); err != nil {
			return 0, err
		}
		return rowUpdated, nil
	}

	c := &models.Collection{
		BinID:           binID,
		CollectedAt:     collectedAt,
		WeightKg:        &weight,
		OperationType:   row.operationType,
		KmTraveled:      row.km,
		FuelPrice:       row.fuelPrice,
		ProfitPerKg:     row.profitPerKg,
		MTREmitted:      row.mtr,
		PartnerID:       partnerID,
		CollectorTypeID: collectorTypeID,
	}
	if err := database.CreateCollection(ctx, tx, c); err != nil {
		return 0, err
	}
	return rowCreated, nil
}

func (im *Importer) findOrCreateBin(ctx context.Context, tx *sqlx.Tx, location string, partnerID *string) (string, error) {
	bin, err := database.FindBinByLocation(ctx, tx, location)
	if err == nil {
		if partnerID != nil && bin.PartnerID == nil {
			if err := database.SetBinPartnerIfMissing(ctx, tx, bin.ID, *partnerID); err != nil {
				return "", err
			}
		}
		return bin.ID, nil
	}
	if !database.IsNotFound(err) {
		return "", err
	}

	bin = &models.Bin{
		Location:  location,
		FillLevel: 0,
		Status:    models.BinStatusOK,
		PartnerID: partnerID,
	}
	if err := database.CreateBin(ctx, tx, bin); err != nil {
		return "", err
	}
	logger.Debug("Bin created from import", zap.String("location", location))
	return bin.ID, nil
}

// detectDelimiter picks ';' when the header line has more semicolons than commas.
func detectDelimiter(data []byte) rune {
	first := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		first = data[:i]
	}
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		return ';'
	}
	return ','
}

func rowValues(columns map[string]int, record []string) map[string]string {
	row := make(map[string]string, len(columns))
	for name, idx := range columns {
		if idx < len(record) {
			row[name] = strings.TrimSpace(record[idx])
		}
	}
	return row
}

func rawRow(header, record []string) map[string]string {
	raw := make(map[string]string, len(header))
	for i, h := range header {
		if i < len(record) {
			raw[strings.TrimSpace(h)] = record[i]
		}
	}
	return raw
}

func isBlankRow(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// optionalNonNegative parses an optional numeric column. Unparseable or
// negative values become null and are logged.
func optionalNonNegative(raw, column string) *float64 {
	v, err := helpers.ParseDecimal(raw)
	if err != nil {
		logger.Warn("Ignoring invalid numeric value", zap.String("column", column), zap.String("value", raw))
		return nil
	}
	if v != nil && *v < 0 {
		logger.Warn("Ignoring negative value", zap.String("column", column), zap.Float64("value", *v))
		return nil
	}
	return v
}

// NormalizeOperationType maps free text containing Avulsa or Campanha to
// the canonical value and keeps anything else as typed.
func NormalizeOperationType(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	op := raw
	switch {
	case strings.Contains(raw, models.OperationAvulsa):
		op = models.OperationAvulsa
	case strings.Contains(raw, models.OperationCampanha):
		op = models.OperationCampanha
	}
	return &op
}
