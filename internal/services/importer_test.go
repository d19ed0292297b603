package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importHeader = "EMPRESAS;DATA DA COLETA;QUANTIDADE(KG);KM;PREÇO CONBUSTÍVEL(POR LITRO);LUCRO POR KG(EM REAIS);EMISSÃO DE MTR;TIPO DE COLETA;TIPO DE COLETOR;PARCEIRO\n"

func TestImporter_Import(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	loc := time.FixedZone("BRT", -3*3600)

	csv := "\xEF\xBB\xBF" + importHeader +
		"Hotel Central;05/03/2024;12,5;10;5,89;1,2;SIM;Coleta Avulsa;SEM COLETOR;ECOGRANA\n" +
		"Hotel Central;06/03/2024;3;;;;NÃO;Campanha Verão;;\n" +
		";07/03/2024;3;;;;;;;\n" +
		"Escola;32/13/2024;0;;;;;;;\n" +
		";;;;;;;;;\n" +
		"Escola;08/03/2024;4;-3;abc;;;Outro;;\n"

	stats, err := NewImporter(db, loc).Import(ctx, strings.NewReader(csv), false)
	require.NoError(t, err)

	assert.Equal(t, 6, stats.TotalLinhas)
	assert.Equal(t, 3, stats.LinhasValidas)
	assert.Equal(t, 2, stats.LinhasInvalidas)
	assert.Equal(t, 3, stats.ColetasCriadas)
	assert.Zero(t, stats.ColetasDuplicadas)

	require.Len(t, stats.Erros, 2)
	assert.Equal(t, 4, stats.Erros[0].Linha)
	assert.Equal(t, []string{"Empresa vazia"}, stats.Erros[0].Erros)
	assert.Equal(t, 5, stats.Erros[1].Linha)
	assert.Len(t, stats.Erros[1].Erros, 2)

	bins, err := database.ListBins(ctx, db, database.BinFilter{})
	require.NoError(t, err)
	require.Len(t, bins, 2)
	assert.Equal(t, "Escola", bins[0].Location)
	assert.Nil(t, bins[0].PartnerID)
	require.NotNil(t, bins[1].PartnerName)
	assert.Equal(t, "ECOGRANA", *bins[1].PartnerName)

	collections, err := database.ListCollections(ctx, db, database.CollectionFilter{BinID: bins[1].ID})
	require.NoError(t, err)
	require.Len(t, collections, 2)

	first := collections[1]
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, loc).Unix(), first.CollectedAt)
	require.NotNil(t, first.WeightKg)
	assert.Equal(t, 12.5, *first.WeightKg)
	require.NotNil(t, first.FuelPrice)
	assert.InDelta(t, 5.89, *first.FuelPrice, 1e-9)
	assert.True(t, first.MTREmitted)
	require.NotNil(t, first.OperationType)
	assert.Equal(t, models.OperationAvulsa, *first.OperationType)
	require.NotNil(t, first.CollectorTypeName)
	assert.Equal(t, "SEM COLETOR", *first.CollectorTypeName)

	second := collections[0]
	assert.False(t, second.MTREmitted)
	assert.Nil(t, second.PartnerID)
	require.NotNil(t, second.OperationType)
	assert.Equal(t, models.OperationCampanha, *second.OperationType)

	school, err := database.ListCollections(ctx, db, database.CollectionFilter{BinID: bins[0].ID})
	require.NoError(t, err)
	require.Len(t, school, 1)
	assert.Nil(t, school[0].KmTraveled)
	assert.Nil(t, school[0].FuelPrice)
	require.NotNil(t, school[0].OperationType)
	assert.Equal(t, "Outro", *school[0].OperationType)

	require.NotNil(t, bins[1].LastCollection)
	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, loc).Unix(), *bins[1].LastCollection)
}

func TestImporter_DuplicatesAndUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	im := NewImporter(db, time.UTC)

	csv := importHeader + "Shopping;01/02/2024;10;5;;;NÃO;Avulsa;;\n"
	stats, err := im.Import(ctx, strings.NewReader(csv), false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ColetasCriadas)

	stats, err = im.Import(ctx, strings.NewReader(csv), false)
	require.NoError(t, err)
	assert.Zero(t, stats.ColetasCriadas)
	assert.Equal(t, 1, stats.ColetasDuplicadas)

	changed := importHeader + "Shopping;01/02/2024;10;7;;;SIM;Campanha;;NEOENERGIA\n"
	stats, err = im.Import(ctx, strings.NewReader(changed), true)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ColetasAtualizadas)

	collections, err := database.ListCollections(ctx, db, database.CollectionFilter{})
	require.NoError(t, err)
	require.Len(t, collections, 1)
	require.NotNil(t, collections[0].KmTraveled)
	assert.Equal(t, 7.0, *collections[0].KmTraveled)
	assert.True(t, collections[0].MTREmitted)
	require.NotNil(t, collections[0].PartnerName)
	assert.Equal(t, "NEOENERGIA", *collections[0].PartnerName)

	bins, err := database.ListBins(ctx, db, database.BinFilter{})
	require.NoError(t, err)
	require.Len(t, bins, 1)
	require.NotNil(t, bins[0].PartnerName)
	assert.Equal(t, "NEOENERGIA", *bins[0].PartnerName)
}

func TestImporter_CommaDelimitedWithAltFuelHeader(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	csv := "EMPRESAS,DATA DA COLETA,QUANTIDADE(KG),PREÇO COMBUSTÍVEL(POR LITRO)\n" +
		"Igreja,10/01/2024,2.5,6.1\n"
	stats, err := NewImporter(db, time.UTC).Import(ctx, strings.NewReader(csv), false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ColetasCriadas)

	collections, err := database.ListCollections(ctx, db, database.CollectionFilter{})
	require.NoError(t, err)
	require.Len(t, collections, 1)
	require.NotNil(t, collections[0].FuelPrice)
	assert.InDelta(t, 6.1, *collections[0].FuelPrice, 1e-9)
}

func TestImporter_MissingRequiredColumn(t *testing.T) {
	db := newTestDB(t)
	_, err := NewImporter(db, time.UTC).Import(context.Background(), strings.NewReader("EMPRESAS;KM\nX;1\n"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATA DA COLETA")
}

func TestImporter_ImportFile(t *testing.T) {
	db := newTestDB(t)
	path := filepath.Join(t.TempDir(), "coletas.csv")
	require.NoError(t, os.WriteFile(path, []byte(importHeader+"Praça;01/01/2024;1;;;;;;;\n"), 0o600))

	stats, err := NewImporter(db, time.UTC).ImportFile(context.Background(), path, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ColetasCriadas)

	_, err = NewImporter(db, time.UTC).ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), false)
	assert.Error(t, err)
}

func TestNormalizeOperationType(t *testing.T) {
	assert.Nil(t, NormalizeOperationType("  "))
	assert.Equal(t, models.OperationAvulsa, *NormalizeOperationType("Coleta Avulsa"))
	assert.Equal(t, models.OperationCampanha, *NormalizeOperationType("Campanha de Natal"))
	assert.Equal(t, "Rota fixa", *NormalizeOperationType(" Rota fixa "))
}
