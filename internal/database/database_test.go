package database

import (
	"context"
	"testing"
	"time"

	"tronik-dashboard/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func createBin(t *testing.T, db *sqlx.DB, location string, level float64) *models.Bin {
	t.Helper()
	bin := &models.Bin{Location: location, FillLevel: level}
	require.NoError(t, CreateBin(context.Background(), db, bin))
	return bin
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Migrate(db))
}

func TestSeedLookups_RunsTwice(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, SeedLookups(ctx, db))
	first, err := TableCounts(ctx, db)
	require.NoError(t, err)

	require.NoError(t, SeedLookups(ctx, db))
	second, err := TableCounts(ctx, db)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, len(seedPartners), second["partners"])
	assert.Equal(t, len(seedMaterialTypes), second["material_types"])
	assert.Equal(t, 0, second["bins"])
}

func TestBins_CRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	bin := createBin(t, db, "Praça Central", 10)
	assert.NotEmpty(t, bin.ID)
	assert.Equal(t, models.BinStatusOK, bin.Status)

	got, err := GetBin(ctx, db, bin.ID)
	require.NoError(t, err)
	assert.Equal(t, "Praça Central", got.Location)
	assert.Nil(t, got.PartnerName)

	got.FillLevel = 55
	got.Status = models.BinStatusAlert
	require.NoError(t, UpdateBin(ctx, db, got))

	got, err = GetBin(ctx, db, bin.ID)
	require.NoError(t, err)
	assert.Equal(t, 55.0, got.FillLevel)
	assert.Equal(t, models.BinStatusAlert, got.Status)

	_, err = GetBin(ctx, db, "missing")
	assert.True(t, IsNotFound(err))

	err = UpdateBin(ctx, db, &models.Bin{ID: "missing", Location: "x"})
	assert.True(t, IsNotFound(err))
}

func TestListBins_Filters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	partnerID, err := FindOrCreatePartner(ctx, db, "ECOGRANA")
	require.NoError(t, err)

	a := createBin(t, db, "B", 10)
	b := &models.Bin{Location: "A", FillLevel: 90, Status: models.BinStatusAlert, PartnerID: &partnerID}
	require.NoError(t, CreateBin(ctx, db, b))

	all, err := ListBins(ctx, db, BinFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].Location)
	require.NotNil(t, all[0].PartnerName)
	assert.Equal(t, "ECOGRANA", *all[0].PartnerName)

	alerts, err := ListBins(ctx, db, BinFilter{Status: models.BinStatusAlert})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, b.ID, alerts[0].ID)

	byPartner, err := ListBins(ctx, db, BinFilter{PartnerID: partnerID})
	require.NoError(t, err)
	require.Len(t, byPartner, 1)
	assert.NotEqual(t, a.ID, byPartner[0].ID)
}

func TestDeleteBin_RemovesDependents(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	bin := createBin(t, db, "Escola", 95)
	sensor := &models.Sensor{BinID: bin.ID, Battery: 10}
	require.NoError(t, CreateSensor(ctx, db, sensor))
	require.NoError(t, CreateCollection(ctx, db, &models.Collection{BinID: bin.ID, CollectedAt: time.Now().Unix()}))
	binID, sensorID := bin.ID, sensor.ID
	require.NoError(t, CreateNotification(ctx, db, &models.Notification{Type: models.NotificationBinFull, Title: "t", Message: "m", BinID: &binID}))
	require.NoError(t, CreateNotification(ctx, db, &models.Notification{Type: models.NotificationLowBattery, Title: "t", Message: "m", SensorID: &sensorID}))

	require.NoError(t, DeleteBin(ctx, db, bin.ID))

	counts, err := TableCounts(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 0, counts["bins"])
	assert.Equal(t, 0, counts["sensors"])
	assert.Equal(t, 0, counts["collections"])
	assert.Equal(t, 0, counts["notifications"])

	assert.True(t, IsNotFound(DeleteBin(ctx, db, bin.ID)))
}

func TestBinsInAlert_ExcludesBrokenAndThreshold(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createBin(t, db, "exactly 80", 80)
	full := createBin(t, db, "full", 92)
	broken := &models.Bin{Location: "broken", FillLevel: 99, Status: models.BinStatusBroken}
	require.NoError(t, CreateBin(ctx, db, broken))

	bins, err := BinsInAlert(ctx, db, 80, models.BinStatusBroken)
	require.NoError(t, err)
	require.Len(t, bins, 1)
	assert.Equal(t, full.ID, bins[0].ID)
}

func TestBinsForGeocoding(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	lat, lon := -22.9, -43.2
	located := &models.Bin{Location: "with coords", Latitude: &lat, Longitude: &lon}
	require.NoError(t, CreateBin(ctx, db, located))
	createBin(t, db, "no coords", 0)

	pending, err := BinsForGeocoding(ctx, db, false, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "no coords", pending[0].Location)

	all, err := BinsForGeocoding(ctx, db, true, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	limited, err := BinsForGeocoding(ctx, db, true, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, UpdateBinCoordinates(ctx, db, pending[0].ID, 1, 2))
	pending, err = BinsForGeocoding(ctx, db, false, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestBinStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	total, inAlert, avg, err := BinStats(ctx, db, 80)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, inAlert)
	assert.Zero(t, avg)

	createBin(t, db, "a", 20)
	createBin(t, db, "b", 90)

	total, inAlert, avg, err = BinStats(ctx, db, 80)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, inAlert)
	assert.InDelta(t, 55.0, avg, 0.001)
}

func TestTouchLastCollection_OnlyMovesForward(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	bin := createBin(t, db, "a", 0)

	require.NoError(t, TouchLastCollection(ctx, db, bin.ID, 2000))
	require.NoError(t, TouchLastCollection(ctx, db, bin.ID, 1000))

	got, err := GetBin(ctx, db, bin.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastCollection)
	assert.Equal(t, int64(2000), *got.LastCollection)
}

func TestSensors_ReadingAndLowBattery(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	bin := createBin(t, db, "Rua A", 0)

	low := &models.Sensor{BinID: bin.ID, Battery: 15}
	ok := &models.Sensor{BinID: bin.ID, Battery: 80}
	require.NoError(t, CreateSensor(ctx, db, low))
	require.NoError(t, CreateSensor(ctx, db, ok))

	sensors, err := SensorsWithLowBattery(ctx, db, 20)
	require.NoError(t, err)
	require.Len(t, sensors, 1)
	assert.Equal(t, low.ID, sensors[0].ID)
	require.NotNil(t, sensors[0].BinLocation)
	assert.Equal(t, "Rua A", *sensors[0].BinLocation)

	require.NoError(t, UpdateSensorReading(ctx, db, low.ID, bin.ID, 60, 1234))
	got, err := GetSensor(ctx, db, low.ID)
	require.NoError(t, err)
	assert.Equal(t, 60.0, got.Battery)
	require.NotNil(t, got.LastPing)
	assert.Equal(t, int64(1234), *got.LastPing)

	err = UpdateSensorReading(ctx, db, low.ID, "other-bin", 50, 1)
	assert.True(t, IsNotFound(err))

	min := 70.0
	filtered, err := ListSensors(ctx, db, SensorFilter{BinID: bin.ID, MinBattery: &min})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, ok.ID, filtered[0].ID)

	require.NoError(t, DeleteSensor(ctx, db, ok.ID))
	assert.True(t, IsNotFound(DeleteSensor(ctx, db, ok.ID)))
}

func TestCollections_ListAndKey(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	bin := createBin(t, db, "Shopping", 0)

	weight := 12.5
	first := &models.Collection{BinID: bin.ID, CollectedAt: 1000, WeightKg: &weight}
	second := &models.Collection{BinID: bin.ID, CollectedAt: 3000}
	require.NoError(t, CreateCollection(ctx, db, first))
	require.NoError(t, CreateCollection(ctx, db, second))

	all, err := ListCollections(ctx, db, CollectionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	start, end := int64(500), int64(1500)
	ranged, err := ListCollections(ctx, db, CollectionFilter{Start: &start, End: &end})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, first.ID, ranged[0].ID)

	found, err := FindCollectionByKey(ctx, db, bin.ID, 1000, &weight)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	found, err = FindCollectionByKey(ctx, db, bin.ID, 3000, nil)
	require.NoError(t, err)
	assert.Equal(t, second.ID, found.ID)

	_, err = FindCollectionByKey(ctx, db, bin.ID, 1000, nil)
	assert.True(t, IsNotFound(err))

	count, err := CountCollectionsBetween(ctx, db, 0, 5000)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := GetBin(ctx, db, bin.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastCollection)
	assert.Equal(t, int64(3000), *got.LastCollection)
}

func TestFindOrCreateLookup_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	id1, err := FindOrCreateLookup(ctx, db, MaterialTypes, " Plástico ")
	require.NoError(t, err)
	id2, err := FindOrCreateLookup(ctx, db, MaterialTypes, "Plástico")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	_, err = FindOrCreateLookup(ctx, db, MaterialTypes, "  ")
	assert.Error(t, err)

	_, err = FindOrCreateLookup(ctx, db, LookupTable("users"), "x")
	assert.Error(t, err)

	exists, err := LookupExists(ctx, db, MaterialTypes, id1)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = LookupExists(ctx, db, MaterialTypes, "nope")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFindOrCreatePartner_BlankUsesPlaceholder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	id, err := FindOrCreatePartner(ctx, db, "")
	require.NoError(t, err)

	partners, err := ListPartners(ctx, db, true)
	require.NoError(t, err)
	require.Len(t, partners, 1)
	assert.Equal(t, id, partners[0].ID)
	assert.Equal(t, models.NoPartnerName, partners[0].Name)
}

func TestParseLookupTable(t *testing.T) {
	table, ok := ParseLookupTable("coletor")
	assert.True(t, ok)
	assert.Equal(t, CollectorTypes, table)

	_, ok = ParseLookupTable("parceiro")
	assert.False(t, ok)
}

func TestNotifications_RecentAndRead(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	bin := createBin(t, db, "x", 0)
	binID := bin.ID

	n := &models.Notification{Type: models.NotificationBinFull, Title: "t", Message: "m", BinID: &binID, CreatedAt: 5000}
	require.NoError(t, CreateNotification(ctx, db, n))

	recent, err := HasRecentNotification(ctx, db, models.NotificationBinFull, &binID, nil, 4000)
	require.NoError(t, err)
	assert.True(t, recent)

	recent, err = HasRecentNotification(ctx, db, models.NotificationBinFull, &binID, nil, 6000)
	require.NoError(t, err)
	assert.False(t, recent)

	recent, err = HasRecentNotification(ctx, db, models.NotificationLowBattery, &binID, nil, 0)
	require.NoError(t, err)
	assert.False(t, recent)

	unread, err := ListNotifications(ctx, db, true, 10)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	require.NoError(t, MarkNotificationRead(ctx, db, n.ID))
	unread, err = ListNotifications(ctx, db, true, 10)
	require.NoError(t, err)
	assert.Empty(t, unread)

	got, err := GetNotification(ctx, db, n.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)
	assert.NotNil(t, got.ReadAt)

	assert.True(t, IsNotFound(MarkNotificationRead(ctx, db, "missing")))
}

func TestUsers_CreateConflictAndAdmins(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	admin := &models.User{Username: "admin", Email: "admin@example.com", PasswordHash: "x", Active: true, Admin: true}
	require.NoError(t, CreateUser(ctx, db, admin))

	dup := &models.User{Username: "other", Email: "admin@example.com", PasswordHash: "x", Active: true}
	assert.ErrorIs(t, CreateUser(ctx, db, dup), ErrConflict)

	byEmail, err := GetUserByLogin(ctx, db, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, byEmail.ID)

	inactive := &models.User{Username: "old", Email: "old@example.com", PasswordHash: "x", Active: false, Admin: true}
	require.NoError(t, CreateUser(ctx, db, inactive))

	emails, err := ActiveAdminEmails(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin@example.com"}, emails)

	require.NoError(t, SetFCMToken(ctx, db, admin.ID, "device-token"))
	tokens, err := AdminFCMTokens(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"device-token"}, tokens)

	require.NoError(t, PromoteUser(ctx, db, inactive.ID, "y"))
	emails, err = ActiveAdminEmails(ctx, db)
	require.NoError(t, err)
	assert.Len(t, emails, 2)

	_, err = GetUserByID(ctx, db, "missing")
	assert.True(t, IsNotFound(err))
}
