package reconcile

import (
	"context"
	"errors"

	"github.com/lidercheck/apiserver/internal/codec"
	"github.com/lidercheck/apiserver/types"
)

var errMissingKey = errors.New("missing key")

// UserWriter merges migrated users into the live table. Fields the patch
// leaves nil keep their stored value.
type UserWriter interface {
	Merge(ctx context.Context, matricula string, patch types.UserPatch) error
}

// SettingWriter stores migrated configuration list entries.
type SettingWriter interface {
	AddSetting(ctx context.Context, list types.SettingList, name string) error
}

// ScrapWriter stores migrated scraps.
type ScrapWriter interface {
	Create(ctx context.Context, scrap types.Scrap) (int64, error)
}

// LogWriter stores migrated checklist logs.
type LogWriter interface {
	Create(ctx context.Context, log types.ChecklistLog) (int64, error)
}

// MeetingWriter merges migrated meetings.
type MeetingWriter interface {
	Merge(ctx context.Context, id string, patch types.MeetingPatch) error
}

// MaterialWriter merges migrated materials.
type MaterialWriter interface {
	Merge(ctx context.Context, code string, patch types.MaterialPatch) error
}

// Targets are the current-schema stores a reconciliation writes to.
type Targets struct {
	Users     UserWriter
	Settings  SettingWriter
	Scraps    ScrapWriter
	Logs      LogWriter
	Meetings  MeetingWriter
	Materials MaterialWriter
}

// Entity describes how one kind of legacy record is found and written.
type Entity struct {
	Name string

	// Tables are candidate legacy table names in order of preference.
	Tables []string

	// EveryTable reads all existing candidates instead of only the first.
	EveryTable bool

	Fields []Field

	// write stores one resolved record. It must not write when dryRun is
	// set but must still reject records it could not store.
	write func(ctx context.Context, t Targets, rec Record, dryRun bool) error
}

var userFields = []Field{
	{Dest: "matricula", Aliases: []string{"matricula", "id"}},
	{Dest: "name", Aliases: []string{"name"}},
	{Dest: "role", Aliases: []string{"role"}},
	{Dest: "shift", Aliases: []string{"shift"}},
	{Dest: "email", Aliases: []string{"email"}},
	{Dest: "password", Aliases: []string{"password", "password_hash"}},
	{Dest: "isAdmin", Aliases: []string{"isAdmin", "is_admin"}, Coerce: AsBool},
}

var settingFields = []Field{
	{Dest: "name", Aliases: []string{"name", "id"}},
}

var scrapFields = []Field{
	{Dest: "userId", Aliases: []string{"userId", "user_id"}},
	{Dest: "date", Aliases: []string{"date"}},
	{Dest: "time", Aliases: []string{"time"}},
	{Dest: "week", Aliases: []string{"week"}, Coerce: AsInt},
	{Dest: "shift", Aliases: []string{"shift"}},
	{Dest: "leaderName", Aliases: []string{"leaderName", "leader_name"}},
	{Dest: "pqc", Aliases: []string{"pqc"}},
	{Dest: "model", Aliases: []string{"model"}},
	{Dest: "qty", Aliases: []string{"qty"}, Coerce: AsInt},
	{Dest: "item", Aliases: []string{"item"}},
	{Dest: "status", Aliases: []string{"status"}},
	{Dest: "code", Aliases: []string{"code"}},
	{Dest: "description", Aliases: []string{"description"}},
	{Dest: "unitValue", Aliases: []string{"unitValue", "unit_value"}, Coerce: AsFloat},
	{Dest: "totalValue", Aliases: []string{"totalValue", "total_value"}, Coerce: AsFloat},
	{Dest: "usedModel", Aliases: []string{"usedModel", "used_model"}},
	{Dest: "responsible", Aliases: []string{"responsible"}},
	{Dest: "station", Aliases: []string{"station"}},
	{Dest: "reason", Aliases: []string{"reason"}},
	{Dest: "rootCause", Aliases: []string{"rootCause", "root_cause", "rootcause"}},
	{Dest: "countermeasure", Aliases: []string{"countermeasure"}},
	{Dest: "line", Aliases: []string{"line"}},
}

var logFields = []Field{
	{Dest: "userId", Aliases: []string{"userId", "user_id"}},
	{Dest: "userName", Aliases: []string{"userName", "user_name"}},
	{Dest: "userRole", Aliases: []string{"userRole", "user_role"}},
	{Dest: "line", Aliases: []string{"line"}},
	{Dest: "date", Aliases: []string{"date"}},
	{Dest: "itemsCount", Aliases: []string{"itemsCount", "items_count"}, Coerce: AsInt},
	{Dest: "ngCount", Aliases: []string{"ngCount", "ng_count"}, Coerce: AsInt},
	{Dest: "observation", Aliases: []string{"observation"}},
	{Dest: "data", Aliases: []string{"data"}, Coerce: AsJSONText},
	{Dest: "itemsSnapshot", Aliases: []string{"itemsSnapshot", "items_snapshot"}, Coerce: AsJSONText},
}

var maintenanceLogFields = append(append([]Field{}, logFields...),
	Field{Dest: "maintenanceTarget", Aliases: []string{"maintenanceTarget", "maintenance_target"}},
)

var meetingFields = []Field{
	{Dest: "id", Aliases: []string{"id"}},
	{Dest: "title", Aliases: []string{"title"}},
	{Dest: "date", Aliases: []string{"date"}},
	{Dest: "startTime", Aliases: []string{"startTime", "start_time"}},
	{Dest: "endTime", Aliases: []string{"endTime", "end_time"}},
	{Dest: "photoUrl", Aliases: []string{"photoUrl", "photo_url"}},
	{Dest: "participants", Aliases: []string{"participants"}, Coerce: AsJSONText},
	{Dest: "topics", Aliases: []string{"topics"}},
	{Dest: "createdBy", Aliases: []string{"createdBy", "created_by"}},
}

var materialFields = []Field{
	{Dest: "code", Aliases: []string{"code"}},
	{Dest: "model", Aliases: []string{"model"}},
	{Dest: "description", Aliases: []string{"description"}},
	{Dest: "item", Aliases: []string{"item"}},
	{Dest: "plant", Aliases: []string{"plant"}},
	{Dest: "price", Aliases: []string{"price", "unit_value", "unitValue"}, Coerce: AsFloat},
}

// Entities returns the migration plan in the order it runs. Users come first
// so that later records can be attributed.
func Entities() []Entity {
	return []Entity{
		{Name: "users", Tables: []string{"users", "user"}, Fields: userFields, write: writeUser},
		settingEntity(types.SettingLines, "config_lines", "lines"),
		settingEntity(types.SettingRoles, "config_roles", "roles"),
		settingEntity(types.SettingModels, "config_models", "models"),
		settingEntity(types.SettingStations, "config_stations", "stations"),
		{Name: "scraps", Tables: []string{"scrap_data", "scraps"}, Fields: scrapFields, write: writeScrap},
		{Name: "production_logs", Tables: []string{"logs_lider", "logs"}, Fields: logFields, write: logWriter(types.LogTypeProduction)},
		{Name: "maintenance_logs", Tables: []string{"logs_manutencao", "maintenance_logs"}, Fields: maintenanceLogFields, write: logWriter(types.LogTypeMaintenance)},
		{Name: "meetings", Tables: []string{"meetings", "meeting"}, Fields: meetingFields, write: writeMeeting},
		{Name: "materials", Tables: []string{"materials", "material"}, Fields: materialFields, write: writeMaterial},
	}
}

func writeUser(ctx context.Context, t Targets, rec Record, dryRun bool) error {
	if rec.String("matricula") == "" {
		return errMissingKey
	}
	if dryRun {
		return nil
	}
	return t.Users.Merge(ctx, rec.String("matricula"), types.UserPatch{
		Name:         rec.StringPtr("name"),
		Role:         rec.StringPtr("role"),
		Shift:        rec.StringPtr("shift"),
		Email:        rec.StringPtr("email"),
		PasswordHash: rec.StringPtr("password"),
		IsAdmin:      rec.BoolPtr("isAdmin"),
	})
}

func settingEntity(list types.SettingList, tables ...string) Entity {
	return Entity{
		Name:       string(list),
		Tables:     tables,
		EveryTable: true,
		Fields:     settingFields,
		write: func(ctx context.Context, t Targets, rec Record, dryRun bool) error {
			if rec.String("name") == "" {
				return errMissingKey
			}
			if dryRun {
				return nil
			}
			return t.Settings.AddSetting(ctx, list, rec.String("name"))
		},
	}
}

func writeScrap(ctx context.Context, t Targets, rec Record, dryRun bool) error {
	if dryRun {
		return nil
	}
	_, err := t.Scraps.Create(ctx, types.Scrap{
		UserID:         rec.String("userId"),
		Date:           rec.String("date"),
		Time:           rec.String("time"),
		Week:           rec.IntPtr("week"),
		Shift:          rec.String("shift"),
		LeaderName:     rec.String("leaderName"),
		PQC:            rec.String("pqc"),
		Model:          rec.String("model"),
		Qty:            rec.Int("qty"),
		Item:           rec.String("item"),
		Status:         rec.String("status"),
		Code:           rec.String("code"),
		Description:    rec.String("description"),
		UnitValue:      rec.Float("unitValue"),
		TotalValue:     rec.Float("totalValue"),
		UsedModel:      rec.String("usedModel"),
		Responsible:    rec.String("responsible"),
		Station:        rec.String("station"),
		Reason:         rec.String("reason"),
		RootCause:      rec.String("rootCause"),
		Countermeasure: rec.String("countermeasure"),
		Line:           rec.String("line"),
	})
	return err
}

// logWriter normalizes the legacy data blob, bare answers or envelope, into
// the current envelope before storing.
func logWriter(logType types.LogType) func(context.Context, Targets, Record, bool) error {
	return func(ctx context.Context, t Targets, rec Record, dryRun bool) error {
		env := codec.DecodeEnvelope(rec.String("data"))
		target := rec.String("maintenanceTarget")
		if target == "" {
			target = env.MaintenanceTarget
		}

		log := types.ChecklistLog{
			UserID:            rec.String("userId"),
			UserName:          rec.String("userName"),
			UserRole:          rec.String("userRole"),
			Line:              rec.String("line"),
			Date:              rec.String("date"),
			ItemsCount:        rec.Int("itemsCount"),
			NgCount:           rec.Int("ngCount"),
			Observation:       rec.String("observation"),
			Data:              env.Answers,
			EvidenceData:      env.Evidence,
			Type:              logType,
			MaintenanceTarget: target,
		}
		if rec.Has("itemsSnapshot") {
			log.ItemsSnapshot = codec.DecodeArray(rec.String("itemsSnapshot"))
		}
		if dryRun {
			return nil
		}
		_, err := t.Logs.Create(ctx, log)
		return err
	}
}

func writeMeeting(ctx context.Context, t Targets, rec Record, dryRun bool) error {
	if rec.String("id") == "" {
		return errMissingKey
	}
	if dryRun {
		return nil
	}
	patch := types.MeetingPatch{
		Title:     rec.StringPtr("title"),
		Date:      rec.StringPtr("date"),
		StartTime: rec.StringPtr("startTime"),
		EndTime:   rec.StringPtr("endTime"),
		PhotoURL:  rec.StringPtr("photoUrl"),
		Topics:    rec.StringPtr("topics"),
		CreatedBy: rec.StringPtr("createdBy"),
	}
	if rec.Has("participants") {
		participants := codec.DecodeStrings(rec.String("participants"))
		patch.Participants = &participants
	}
	return t.Meetings.Merge(ctx, rec.String("id"), patch)
}

func writeMaterial(ctx context.Context, t Targets, rec Record, dryRun bool) error {
	if rec.String("code") == "" {
		return errMissingKey
	}
	if dryRun {
		return nil
	}
	return t.Materials.Merge(ctx, rec.String("code"), types.MaterialPatch{
		Model:       rec.StringPtr("model"),
		Description: rec.StringPtr("description"),
		Item:        rec.StringPtr("item"),
		Plant:       rec.StringPtr("plant"),
		Price:       rec.FloatPtr("price"),
	})
}
