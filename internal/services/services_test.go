package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"io"
	"path/filepath"
	"testing"

	"github.com/lidercheck/apiserver/internal/db"
	"github.com/lidercheck/apiserver/internal/storage"
	"github.com/lidercheck/apiserver/internal/store"
	"github.com/lidercheck/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lidercheck.db")

	handle, err := db.OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })

	manager := db.NewManager(handle, db.SQLite, "sqlite://"+path, "admin", zaptest.NewLogger(t))
	require.NoError(t, manager.EnsureSchema(ctx))
	return handle
}

func TestUserService_Lifecycle(t *testing.T) {
	handle := newTestDB(t)
	svc := NewUserService(store.NewUserRepository(handle))
	ctx := context.Background()

	_, err := svc.Register(ctx, types.User{Matricula: " 1001 ", Name: "Ana", Email: "ana@plant.com", IsAdmin: true}, "pw")
	require.NoError(t, err)

	_, err = svc.Register(ctx, types.User{Matricula: "1001"}, "other")
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
	_, err = svc.Register(ctx, types.User{Matricula: "1002"}, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	user, err := svc.Authenticate(ctx, "1001", "pw")
	require.NoError(t, err)
	assert.False(t, user.IsAdmin)
	_, err = svc.Authenticate(ctx, "1001", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "404", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.ErrorIs(t, svc.Recover(ctx, "1001", "x@plant.com", "Ana", "new"), ErrInvalidCredentials)
	require.NoError(t, svc.Recover(ctx, "1001", " ANA@plant.com", "ana ", "new"))
	_, err = svc.Authenticate(ctx, "1001", "new")
	require.NoError(t, err)

	user.Name = "Ana Maria"
	require.NoError(t, svc.Update(ctx, "", user, MaskedPassword))
	user, err = svc.Authenticate(ctx, "1001", "new")
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", user.Name)

	user.Matricula = "2002"
	require.NoError(t, svc.Update(ctx, "1001", user, "changed"))
	_, err = svc.Get(ctx, "1001")
	assert.ErrorIs(t, err, store.ErrNotFound)
	stored, err := svc.Get(ctx, "2002")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("changed")))

	require.NoError(t, svc.Delete(ctx, "2002"))
}

func TestConfigService_Settings(t *testing.T) {
	handle := newTestDB(t)
	svc := NewConfigService(store.NewConfigRepository(handle))
	ctx := context.Background()

	require.NoError(t, svc.ReplaceSetting(ctx, types.SettingLines, []string{"L2", " ", "L1", "L2"}))
	assert.ErrorIs(t, svc.AddSetting(ctx, types.SettingLines, " "), ErrInvalidInput)
	require.NoError(t, svc.AddSetting(ctx, types.SettingLines, "L3"))

	lines, err := svc.ListSetting(ctx, types.SettingLines)
	require.NoError(t, err)
	assert.Equal(t, []types.NamedSetting{{ID: 1, Name: "L1"}, {ID: 2, Name: "L2"}, {ID: 3, Name: "L3"}}, lines)

	assert.ErrorIs(t, svc.ReplacePermissions(ctx, []types.Permission{{Role: "", Module: "audit"}}), ErrInvalidInput)
}

func TestMeetingService_SaveGeneratesID(t *testing.T) {
	handle := newTestDB(t)
	svc := NewMeetingService(store.NewMeetingRepository(handle))
	ctx := context.Background()

	saved, err := svc.Save(ctx, types.Meeting{Title: "DDS"})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, []string{}, saved.Participants)

	saved.Topics = "segurança"
	_, err = svc.Save(ctx, saved)
	require.NoError(t, err)

	meetings, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "segurança", meetings[0].Topics)
}

func TestScrapService(t *testing.T) {
	handle := newTestDB(t)
	svc := NewScrapService(store.NewScrapRepository(handle), store.NewMaterialRepository(handle))
	ctx := context.Background()

	scrap, err := svc.Create(ctx, types.Scrap{UserID: "1001", Qty: 2, Date: "2024-01-03"})
	require.NoError(t, err)
	assert.NotZero(t, scrap.ID)

	applied, err := svc.Patch(ctx, scrap.ID, types.ScrapPatch{})
	require.NoError(t, err)
	assert.False(t, applied)

	status := "CLOSED"
	applied, err = svc.Patch(ctx, scrap.ID, types.ScrapPatch{Status: &status})
	require.NoError(t, err)
	assert.True(t, applied)

	_, err = svc.Patch(ctx, scrap.ID+100, types.ScrapPatch{Status: &status})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.ImportMaterials(ctx, []types.Material{{Code: "A1"}, {Code: ""}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	n, err := svc.ImportMaterials(ctx, []types.Material{{Code: "A1", Price: 1.5}, {Code: "B2"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBackupService(t *testing.T) {
	handle := newTestDB(t)
	disk, err := storage.NewLocalDisk(t.TempDir())
	require.NoError(t, err)
	objects := storage.NewStorage(disk)
	require.NoError(t, objects.EnsureBucket(context.Background()))

	svc := NewBackupService(handle, db.SQLite, objects, zaptest.NewLogger(t))
	ctx := context.Background()

	payload := "data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte(`{"logs":[]}`))
	key, err := svc.Save(ctx, "../../etc/export.json", payload)
	require.NoError(t, err)
	assert.Equal(t, "backups/export.json", key)

	_, err = svc.Save(ctx, "x.json", "%%%")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Save(ctx, "", "e30=")
	assert.ErrorIs(t, err, ErrInvalidInput)

	r, err := svc.Open(ctx, "export.json")
	require.NoError(t, err)
	body, err := io.ReadAll(r)
	require.NoError(t, r.Close())
	require.NoError(t, err)
	assert.Equal(t, `{"logs":[]}`, string(body))

	snapshot, size, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	head := make([]byte, 15)
	_, err = io.ReadFull(snapshot, head)
	require.NoError(t, err)
	require.NoError(t, snapshot.Close())
	assert.Equal(t, "SQLite format 3", string(head))
	assert.Positive(t, size)

	archived, err := svc.Archive(ctx)
	require.NoError(t, err)

	stored, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	keys := []string{stored[0].Key, stored[1].Key}
	assert.Contains(t, keys, archived)

	require.NoError(t, svc.Delete(ctx, "export.json"))
	_, err = svc.Open(ctx, "export.json")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)

	_, _, err = NewBackupService(handle, db.Postgres, objects, nil).Snapshot(ctx)
	assert.ErrorIs(t, err, ErrSnapshotUnsupported)
}
