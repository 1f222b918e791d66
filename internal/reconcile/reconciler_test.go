package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/lidercheck/apiserver/internal/db"
	"github.com/lidercheck/apiserver/internal/store"
	"github.com/lidercheck/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newLegacySource(t *testing.T, statements ...string) *Source {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy.db")

	handle, err := db.OpenSQLite(ctx, path)
	require.NoError(t, err)
	for _, stmt := range statements {
		_, err := handle.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}
	require.NoError(t, handle.Close())

	source, err := OpenSource(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = source.Close() })
	return source
}

type mergedUser struct {
	Matricula string
	Patch     types.UserPatch
}

type fakeUsers struct {
	saved  []mergedUser
	failOn string
}

func (f *fakeUsers) Merge(_ context.Context, matricula string, patch types.UserPatch) error {
	if matricula == f.failOn {
		return errors.New("constraint failed")
	}
	f.saved = append(f.saved, mergedUser{Matricula: matricula, Patch: patch})
	return nil
}

type fakeSettings struct {
	saved map[types.SettingList][]string
}

func (f *fakeSettings) AddSetting(_ context.Context, list types.SettingList, name string) error {
	if f.saved == nil {
		f.saved = map[types.SettingList][]string{}
	}
	f.saved[list] = append(f.saved[list], name)
	return nil
}

type fakeScraps struct {
	saved []types.Scrap
}

func (f *fakeScraps) Create(_ context.Context, scrap types.Scrap) (int64, error) {
	f.saved = append(f.saved, scrap)
	return int64(len(f.saved)), nil
}

func TestOpenSource_MissingFile(t *testing.T) {
	_, err := OpenSource(context.Background(), filepath.Join(t.TempDir(), "absent.db"))
	assert.Error(t, err)
}

func TestRun_RowFailureDoesNotBlockBatch(t *testing.T) {
	source := newLegacySource(t,
		`CREATE TABLE users (id INTEGER PRIMARY KEY, matricula TEXT, name TEXT, shift TEXT)`,
		`INSERT INTO users (id, matricula, name, shift) VALUES (1, '100', 'Ana', '2'), (2, '200', 'Bruno', NULL), (3, '300', 'Caio', '3'), (4, NULL, 'Sem', '1')`,
	)
	users := &fakeUsers{failOn: "200"}

	report, err := New(source, Targets{Users: users}, zaptest.NewLogger(t)).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Tables, 1)
	assert.Equal(t, TableReport{Entity: "users", Table: "users", Found: 4, Migrated: 3, Failed: 1}, report.Tables[0])

	require.Len(t, users.saved, 3)
	assert.Equal(t, "100", users.saved[0].Matricula)
	assert.Equal(t, "300", users.saved[1].Matricula)
	// matricula falls back to the legacy id
	assert.Equal(t, "4", users.saved[2].Matricula)
	require.NotNil(t, users.saved[0].Patch.Shift)
	assert.Equal(t, "2", *users.saved[0].Patch.Shift)
	assert.Nil(t, users.saved[0].Patch.Email)
	assert.Nil(t, users.saved[0].Patch.PasswordHash)
}

func TestRun_CandidateTablesAndSkipped(t *testing.T) {
	source := newLegacySource(t,
		`CREATE TABLE scraps (id TEXT, user_id TEXT, qty TEXT, unit_value REAL, root_cause TEXT)`,
		`INSERT INTO scraps VALUES ('a', '100', '4', 2.5, 'solda fria')`,
		`CREATE TABLE config_lines (name TEXT)`,
		`CREATE TABLE lines (id INTEGER, name TEXT)`,
		`INSERT INTO config_lines VALUES ('L1')`,
		`INSERT INTO lines VALUES (1, 'L2'), (2, '')`,
	)
	scraps := &fakeScraps{}
	settings := &fakeSettings{}

	report, err := New(source, Targets{Scraps: scraps, Settings: settings}, zaptest.NewLogger(t)).Run(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{"users", "roles", "models", "stations", "production_logs", "maintenance_logs", "meetings", "materials"},
		report.Skipped,
	)

	require.Len(t, scraps.saved, 1)
	assert.Equal(t, "100", scraps.saved[0].UserID)
	assert.Equal(t, 4, scraps.saved[0].Qty)
	assert.Equal(t, 2.5, scraps.saved[0].UnitValue)
	assert.Equal(t, "solda fria", scraps.saved[0].RootCause)

	// every existing config candidate is read; the second lines row falls
	// back to its id
	assert.Equal(t, []string{"L1", "L2", "2"}, settings.saved[types.SettingLines])

	found, migrated, failed := report.Totals()
	assert.Equal(t, 4, found)
	assert.Equal(t, 4, migrated)
	assert.Equal(t, 0, failed)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	source := newLegacySource(t,
		`CREATE TABLE users (matricula TEXT, name TEXT)`,
		`INSERT INTO users VALUES ('100', 'Ana'), (NULL, 'Sem matricula')`,
	)
	users := &fakeUsers{}

	report, err := New(source, Targets{Users: users}, zaptest.NewLogger(t), WithDryRun(true)).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Empty(t, users.saved)
	require.Len(t, report.Tables, 1)
	assert.Equal(t, 1, report.Tables[0].Migrated)
	assert.Equal(t, 1, report.Tables[0].Failed)
}

func TestRun_CancelledContext(t *testing.T) {
	source := newLegacySource(t,
		`CREATE TABLE users (matricula TEXT)`,
		`INSERT INTO users VALUES ('100')`,
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(source, Targets{Users: &fakeUsers{}}, zaptest.NewLogger(t)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func newLiveDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "live.db")

	handle, err := db.OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })
	require.NoError(t, db.NewManager(handle, db.SQLite, "sqlite://"+path, "admin", zaptest.NewLogger(t)).EnsureSchema(ctx))
	return handle
}

func TestRun_IntoLiveStore(t *testing.T) {
	source := newLegacySource(t,
		`CREATE TABLE users (matricula INTEGER, name TEXT, role TEXT, password TEXT, isAdmin INTEGER)`,
		`INSERT INTO users VALUES (1001, 'Ana', 'Líder', 'hash', 0)`,
		`CREATE TABLE logs_lider (id INTEGER, user_id TEXT, line TEXT, date TEXT, items_count INTEGER, data TEXT, items_snapshot TEXT)`,
		`INSERT INTO logs_lider VALUES (1, '1001', 'L1', '2024-01-03T08:00:00.000Z', 2, '{"1":"OK","2":"NG"}', '[{"id":"1"}]')`,
		`CREATE TABLE logs_manutencao (id INTEGER, userId TEXT, date TEXT, data TEXT, maintenance_target TEXT)`,
		`INSERT INTO logs_manutencao VALUES (1, '1001', '2024-01-04', '{"answers":{"1":"OK"},"type":"MAINTENANCE"}', 'Forno 3')`,
		`CREATE TABLE meetings (id TEXT, title TEXT, start_time TEXT, participants TEXT)`,
		`INSERT INTO meetings VALUES ('m1', 'DDS', '07:00', '["Ana","Bruno"]')`,
		`CREATE TABLE materials (code TEXT, model TEXT, unit_value REAL)`,
		`INSERT INTO materials VALUES ('A1', 'X1', 3.75)`,
	)
	live := newLiveDB(t)
	targets := Targets{
		Users:     store.NewUserRepository(live),
		Settings:  store.NewConfigRepository(live),
		Scraps:    store.NewScrapRepository(live),
		Logs:      store.NewChecklistLogRepository(live),
		Meetings:  store.NewMeetingRepository(live),
		Materials: store.NewMaterialRepository(live),
	}
	ctx := context.Background()

	for range 2 {
		report, err := New(source, targets, zaptest.NewLogger(t)).Run(ctx)
		require.NoError(t, err)
		_, _, failed := report.Totals()
		require.Zero(t, failed)
	}

	user, err := store.NewUserRepository(live).Get(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, "1", user.Shift)
	assert.Equal(t, "hash", user.PasswordHash)

	users, err := store.NewUserRepository(live).List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	production, err := store.NewChecklistLogRepository(live).ListRecent(ctx, types.LogTypeProduction, 500)
	require.NoError(t, err)
	// logs are inserted, so a second run duplicates them
	require.Len(t, production, 2)
	assert.Equal(t, map[string]any{"1": "OK", "2": "NG"}, production[0].Data)
	assert.Equal(t, 2, production[0].ItemsCount)
	assert.Len(t, production[0].ItemsSnapshot, 1)

	maintenance, err := store.NewChecklistLogRepository(live).ListRecent(ctx, types.LogTypeMaintenance, 500)
	require.NoError(t, err)
	require.Len(t, maintenance, 2)
	assert.Equal(t, "Forno 3", maintenance[0].MaintenanceTarget)
	assert.Equal(t, map[string]any{"1": "OK"}, maintenance[0].Data)

	meetings, err := store.NewMeetingRepository(live).List(ctx)
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "07:00", meetings[0].StartTime)
	assert.Equal(t, []string{"Ana", "Bruno"}, meetings[0].Participants)

	materials, err := store.NewMaterialRepository(live).List(ctx)
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, 3.75, materials[0].Price)
}

func TestRun_SparseRowsKeepLiveValues(t *testing.T) {
	live := newLiveDB(t)
	ctx := context.Background()
	users := store.NewUserRepository(live)
	meetings := store.NewMeetingRepository(live)
	materials := store.NewMaterialRepository(live)

	require.NoError(t, users.Create(ctx, types.User{
		Matricula: "1001", Name: "Ana", Role: "Líder", Shift: "2", Email: "ana@x", PasswordHash: "$2a$hash",
	}))
	require.NoError(t, meetings.Upsert(ctx, types.Meeting{
		ID: "m1", Title: "DDS", Date: "2024-01-03", Topics: "Segurança", Participants: []string{"Ana"},
	}))
	require.NoError(t, materials.UpsertMany(ctx, []types.Material{{Code: "A1", Model: "X1", Description: "Capacitor", Price: 3.75}}))

	source := newLegacySource(t,
		`CREATE TABLE users (matricula TEXT, name TEXT)`,
		`INSERT INTO users VALUES ('1001', 'Ana Souza')`,
		`CREATE TABLE meetings (id TEXT, title TEXT)`,
		`INSERT INTO meetings VALUES ('m1', 'DDS semanal')`,
		`CREATE TABLE materials (code TEXT, model TEXT)`,
		`INSERT INTO materials VALUES ('A1', 'X2')`,
	)
	targets := Targets{Users: users, Meetings: meetings, Materials: materials}
	report, err := New(source, targets, zaptest.NewLogger(t)).Run(ctx)
	require.NoError(t, err)
	_, migrated, failed := report.Totals()
	assert.Equal(t, 3, migrated)
	assert.Zero(t, failed)

	user, err := users.Get(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", user.Name)
	assert.Equal(t, "Líder", user.Role)
	assert.Equal(t, "2", user.Shift)
	assert.Equal(t, "ana@x", user.Email)
	assert.Equal(t, "$2a$hash", user.PasswordHash)

	stored, err := meetings.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "DDS semanal", stored[0].Title)
	assert.Equal(t, "2024-01-03", stored[0].Date)
	assert.Equal(t, "Segurança", stored[0].Topics)
	assert.Equal(t, []string{"Ana"}, stored[0].Participants)

	parts, err := materials.List(ctx)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "X2", parts[0].Model)
	assert.Equal(t, "Capacitor", parts[0].Description)
	assert.Equal(t, 3.75, parts[0].Price)
}
