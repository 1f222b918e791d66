package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/lidercheck/apiserver/internal/db"
	"github.com/lidercheck/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	handle, err := db.OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })

	require.NoError(t, db.NewManager(handle, db.SQLite, "sqlite://"+path, "admin", zap.NewNop()).EnsureSchema(ctx))
	return handle
}

func TestUserRepository_CreateGetUpdateDelete(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := types.User{Matricula: "1001", Name: "Ana", Role: "Líder", Shift: "2", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.ErrorIs(t, repo.Create(ctx, user), ErrAlreadyExists)

	got, err := repo.Get(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.False(t, got.IsAdmin)

	user.Matricula = "1002"
	user.PasswordHash = ""
	user.IsAdmin = true
	require.NoError(t, repo.Update(ctx, "1001", user))

	_, err = repo.Get(ctx, "1001")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err = repo.Get(ctx, "1002")
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)
	assert.Equal(t, "hash", got.PasswordHash)

	require.NoError(t, repo.Delete(ctx, "1002"))
	assert.ErrorIs(t, repo.Delete(ctx, "1002"), ErrNotFound)
}

func TestUserRepository_ListIncludesSeededAdmin(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Matricula)
	assert.True(t, users[0].IsAdmin)
}

func TestChecklistLogRepository_PartitionsAndDefaults(t *testing.T) {
	repo := NewChecklistLogRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, types.ChecklistLog{
		UserID: "1001", Line: "L1", Date: "2024-01-03T08:00:00.000Z",
		Data: map[string]any{"1": "OK"},
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, types.ChecklistLog{
		UserID: "1001", Line: "L1", Date: "2024-01-04T08:00:00.000Z",
		Type: types.LogTypeMaintenance, MaintenanceTarget: "Forno 3",
		Data: map[string]any{"1": "NG"}, ItemsSnapshot: []any{map[string]any{"id": "1"}},
	})
	require.NoError(t, err)

	production, err := repo.ListRecent(ctx, types.LogTypeProduction, 500)
	require.NoError(t, err)
	require.Len(t, production, 1)
	assert.Equal(t, types.LogTypeProduction, production[0].Type)
	assert.Equal(t, map[string]any{"1": "OK"}, production[0].Data)
	assert.Equal(t, []any{}, production[0].ItemsSnapshot)
	assert.Equal(t, map[string]any{}, production[0].EvidenceData)

	maintenance, err := repo.ListRecent(ctx, types.LogTypeMaintenance, 500)
	require.NoError(t, err)
	require.Len(t, maintenance, 1)
	assert.Equal(t, types.LogTypeMaintenance, maintenance[0].Type)
	assert.Equal(t, "Forno 3", maintenance[0].MaintenanceTarget)
	assert.Len(t, maintenance[0].ItemsSnapshot, 1)
}

func TestChecklistLogRepository_CorruptBlobDoesNotFailListing(t *testing.T) {
	handle := newTestDB(t)
	repo := NewChecklistLogRepository(handle)
	ctx := context.Background()

	_, err := handle.Exec(`INSERT INTO checklist_logs (user_id, date, data, items_snapshot) VALUES ('1', '2024-01-01', '{broken', 'nope')`)
	require.NoError(t, err)
	_, err = handle.Exec(`INSERT INTO checklist_logs (user_id, date, data) VALUES ('2', '2024-01-02', '{"1":"OK"}')`)
	require.NoError(t, err)

	logs, err := repo.ListRecent(ctx, types.LogTypeProduction, 500)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "2", logs[0].UserID)
	assert.Equal(t, map[string]any{"1": "OK"}, logs[0].Data)
	assert.Equal(t, map[string]any{}, logs[1].Data)
	assert.Equal(t, []any{}, logs[1].ItemsSnapshot)
}

func TestLineStopRepository_CreateUpdate(t *testing.T) {
	repo := NewLineStopRepository(newTestDB(t))
	ctx := context.Background()

	stop := types.LineStop{
		ID: "stop-1", UserID: "1001", Line: "L1", Date: "2024-01-03",
		Status: types.LineStopWaitingJustification, Data: map[string]any{"model": "X1"},
	}
	require.NoError(t, repo.Create(ctx, stop))

	doc := "https://docs/1.jpg"
	stop.Status = types.LineStopCompleted
	stop.SignedDocURL = &doc
	stop.Line = "L2"
	require.NoError(t, repo.Update(ctx, stop))

	got, err := repo.Get(ctx, "stop-1")
	require.NoError(t, err)
	assert.Equal(t, types.LineStopCompleted, got.Status)
	assert.Equal(t, "L2", got.Line)
	require.NotNil(t, got.SignedDocURL)
	assert.Equal(t, doc, *got.SignedDocURL)
	assert.Equal(t, "X1", got.Data["model"])

	assert.ErrorIs(t, repo.Update(ctx, types.LineStop{ID: "missing"}), ErrNotFound)
	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLineStopRepository_ListKeepsRowsWithoutID(t *testing.T) {
	handle := newTestDB(t)
	repo := NewLineStopRepository(handle)

	_, err := handle.Exec(`INSERT INTO line_stops (id, line, date, data) VALUES (NULL, 'L1', '2024-01-02', 'garbage'), ('a', 'L2', '2024-01-03', '{}')`)
	require.NoError(t, err)

	stops, err := repo.ListRecent(context.Background(), 500)
	require.NoError(t, err)
	require.Len(t, stops, 2)
	assert.Equal(t, "a", stops[0].ID)
	assert.Equal(t, "", stops[1].ID)
	assert.Equal(t, map[string]any{}, stops[1].Data)
}

func TestMeetingRepository_Upsert(t *testing.T) {
	repo := NewMeetingRepository(newTestDB(t))
	ctx := context.Background()

	meeting := types.Meeting{ID: "m1", Title: "DDS", Date: "2024-01-03", Participants: []string{"Ana"}}
	require.NoError(t, repo.Upsert(ctx, meeting))
	meeting.Title = "DDS turno 2"
	meeting.Participants = append(meeting.Participants, "Bruno")
	require.NoError(t, repo.Upsert(ctx, meeting))

	meetings, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "DDS turno 2", meetings[0].Title)
	assert.Equal(t, []string{"Ana", "Bruno"}, meetings[0].Participants)
}

func TestMeetingRepository_MergeKeepsUnsetFields(t *testing.T) {
	repo := NewMeetingRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, types.Meeting{
		ID: "m1", Title: "DDS", Topics: "Segurança", Participants: []string{"Ana"},
	}))
	title := "DDS turno 2"
	require.NoError(t, repo.Merge(ctx, "m1", types.MeetingPatch{Title: &title}))

	startTime := "07:00"
	require.NoError(t, repo.Merge(ctx, "m2", types.MeetingPatch{StartTime: &startTime}))

	meetings, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, meetings, 2)
	byID := map[string]types.Meeting{}
	for _, m := range meetings {
		byID[m.ID] = m
	}
	assert.Equal(t, "DDS turno 2", byID["m1"].Title)
	assert.Equal(t, "Segurança", byID["m1"].Topics)
	assert.Equal(t, []string{"Ana"}, byID["m1"].Participants)
	assert.Equal(t, "07:00", byID["m2"].StartTime)
	assert.Equal(t, []string{}, byID["m2"].Participants)
}

// rejectInserts makes any insert into table whose column equals value fail
// inside the running statement.
func rejectInserts(t *testing.T, handle *sql.DB, table, column, value string) {
	t.Helper()
	_, err := handle.Exec(`CREATE TRIGGER reject_` + table + ` BEFORE INSERT ON ` + table +
		` WHEN NEW.` + column + ` = '` + value + `' BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)
}

func TestConfigRepository_ReplacePermissionsRollsBack(t *testing.T) {
	handle := newTestDB(t)
	repo := NewConfigRepository(handle)
	ctx := context.Background()

	old := []types.Permission{
		{Role: "Líder", Module: "scrap", Allowed: true},
		{Role: "Operador", Module: "checklist", Allowed: true},
	}
	require.NoError(t, repo.ReplacePermissions(ctx, old))

	rejectInserts(t, handle, "config_permissions", "module", "blocked")
	err := repo.ReplacePermissions(ctx, []types.Permission{
		{Role: "Líder", Module: "reports", Allowed: true},
		{Role: "Líder", Module: "blocked", Allowed: true},
	})
	require.Error(t, err)

	perms, err := repo.ListPermissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Permission{
		{Role: "Líder", Module: "scrap", Allowed: true},
		{Role: "Operador", Module: "checklist", Allowed: true},
	}, perms)
}

func TestConfigRepository_ReplaceItemsRollsBack(t *testing.T) {
	handle := newTestDB(t)
	repo := NewConfigRepository(handle)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceItems(ctx, []types.ChecklistItem{{Category: "5S", Text: "Bancada limpa"}}))

	rejectInserts(t, handle, "checklist_items", "category", "blocked")
	err := repo.ReplaceItems(ctx, []types.ChecklistItem{
		{Category: "EPI", Text: "Luvas"},
		{Category: "blocked", Text: "x"},
	})
	require.Error(t, err)

	items, err := repo.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Bancada limpa", items[0].Text)
}

func TestConfigRepository_ReplaceItems(t *testing.T) {
	repo := NewConfigRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.ReplaceItems(ctx, []types.ChecklistItem{
		{Category: "5S", Text: "Bancada limpa"},
		{Category: "Forno", Text: "Temperatura", Type: types.ItemTypeMaintenance},
	}))
	require.NoError(t, repo.ReplaceItems(ctx, []types.ChecklistItem{
		{Category: "EPI", Text: "Luvas", Type: "whatever"},
	}))

	items, err := repo.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Luvas", items[0].Text)
	assert.Equal(t, types.ItemTypeLeader, items[0].Type)
}

func TestConfigRepository_Settings(t *testing.T) {
	repo := NewConfigRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.AddSetting(ctx, types.SettingLines, "L1"))
	require.NoError(t, repo.AddSetting(ctx, types.SettingLines, "L1"))
	require.NoError(t, repo.AddSetting(ctx, types.SettingLines, "L2"))

	names, err := repo.ListSetting(ctx, types.SettingLines)
	require.NoError(t, err)
	assert.Equal(t, []string{"L1", "L2"}, names)

	require.NoError(t, repo.DeleteSetting(ctx, types.SettingLines, "L1"))
	assert.ErrorIs(t, repo.DeleteSetting(ctx, types.SettingLines, "L1"), ErrNotFound)

	require.NoError(t, repo.ReplaceSetting(ctx, types.SettingModels, []string{"X1", "X2"}))
	require.NoError(t, repo.ReplaceSetting(ctx, types.SettingModels, []string{"X3"}))
	names, err = repo.ListSetting(ctx, types.SettingModels)
	require.NoError(t, err)
	assert.Equal(t, []string{"X3"}, names)

	_, err = repo.ListSetting(ctx, types.SettingList("users"))
	assert.Error(t, err)
}

func TestConfigRepository_Permissions(t *testing.T) {
	repo := NewConfigRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.ReplacePermissions(ctx, []types.Permission{
		{Role: "Líder", Module: "scrap", Allowed: true},
		{Role: "Operador", Module: "scrap", Allowed: false},
		{Role: "Líder", Module: "scrap", Allowed: false},
	}))

	perms, err := repo.ListPermissions(ctx)
	require.NoError(t, err)
	require.Len(t, perms, 2)
	assert.Equal(t, types.Permission{Role: "Líder", Module: "scrap", Allowed: false}, perms[0])
}

func TestScrapRepository_CreatePatch(t *testing.T) {
	repo := NewScrapRepository(newTestDB(t))
	ctx := context.Background()

	week := 3
	id, err := repo.Create(ctx, types.Scrap{Date: "2024-01-17", Time: "10:00", Week: &week, Qty: 2, Model: "X1"})
	require.NoError(t, err)

	qty := 5
	status := "CLOSED"
	require.NoError(t, repo.Patch(ctx, id, types.ScrapPatch{Qty: &qty, Status: &status}))
	assert.ErrorIs(t, repo.Patch(ctx, id+100, types.ScrapPatch{Qty: &qty}), ErrNotFound)
	assert.NoError(t, repo.Patch(ctx, id+100, types.ScrapPatch{}))

	scraps, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, scraps, 1)
	assert.Equal(t, 5, scraps[0].Qty)
	assert.Equal(t, "CLOSED", scraps[0].Status)
	assert.Equal(t, "X1", scraps[0].Model)
	require.NotNil(t, scraps[0].Week)
	assert.Equal(t, 3, *scraps[0].Week)
}

func TestMaterialRepository_UpsertMany(t *testing.T) {
	repo := NewMaterialRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.UpsertMany(ctx, []types.Material{
		{Code: "A1", Model: "X2", Price: 1.5},
		{Code: "B1", Model: "X1", Price: 2},
	}))
	price := 3.0
	require.NoError(t, repo.Merge(ctx, "A1", types.MaterialPatch{Price: &price}))

	materials, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, materials, 2)
	assert.Equal(t, "B1", materials[0].Code)
	assert.Equal(t, 3.0, materials[1].Price)
	assert.Equal(t, "X2", materials[1].Model)
}

func TestMaterialRepository_MergeKeepsUnsetFields(t *testing.T) {
	repo := NewMaterialRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.UpsertMany(ctx, []types.Material{
		{Code: "A1", Model: "X2", Description: "Capacitor", Price: 1.5},
	}))
	model := "X3"
	require.NoError(t, repo.Merge(ctx, "A1", types.MaterialPatch{Model: &model}))
	require.NoError(t, repo.Merge(ctx, "A1", types.MaterialPatch{}))

	materials, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, "X3", materials[0].Model)
	assert.Equal(t, "Capacitor", materials[0].Description)
	assert.Equal(t, 1.5, materials[0].Price)
}

func TestUserRepository_Merge(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, types.User{
		Matricula: "1001", Name: "Ana", Role: "Líder", Shift: "2", Email: "ana@x", PasswordHash: "hash", IsAdmin: true,
	}))

	name := "Ana Souza"
	require.NoError(t, repo.Merge(ctx, "1001", types.UserPatch{Name: &name}))
	got, err := repo.Get(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", got.Name)
	assert.Equal(t, "Líder", got.Role)
	assert.Equal(t, "2", got.Shift)
	assert.Equal(t, "ana@x", got.Email)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.True(t, got.IsAdmin)

	// a new user without a shift lands on shift 1
	require.NoError(t, repo.Merge(ctx, "1002", types.UserPatch{Name: &name}))
	got, err = repo.Get(ctx, "1002")
	require.NoError(t, err)
	assert.Equal(t, "1", got.Shift)
	assert.False(t, got.IsAdmin)

	notAdmin := false
	require.NoError(t, repo.Merge(ctx, "1001", types.UserPatch{IsAdmin: &notAdmin}))
	got, err = repo.Get(ctx, "1001")
	require.NoError(t, err)
	assert.False(t, got.IsAdmin)
	assert.Equal(t, "Ana Souza", got.Name)
}
