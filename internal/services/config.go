package services

import (
	"context"
	"strings"

	"github.com/lidercheck/apiserver/types"
)

// ConfigRepository defines persistence operations for the checklist and
// plant configuration.
type ConfigRepository interface {
	ListItems(ctx context.Context) ([]types.ChecklistItem, error)
	ReplaceItems(ctx context.Context, items []types.ChecklistItem) error
	ListSetting(ctx context.Context, list types.SettingList) ([]string, error)
	AddSetting(ctx context.Context, list types.SettingList, name string) error
	DeleteSetting(ctx context.Context, list types.SettingList, name string) error
	ReplaceSetting(ctx context.Context, list types.SettingList, names []string) error
	ListPermissions(ctx context.Context) ([]types.Permission, error)
	ReplacePermissions(ctx context.Context, perms []types.Permission) error
}

// ConfigService encapsulates configuration use-cases.
type ConfigService struct {
	repo ConfigRepository
}

func NewConfigService(repo ConfigRepository) *ConfigService {
	return &ConfigService{repo: repo}
}

func (s *ConfigService) ListItems(ctx context.Context) ([]types.ChecklistItem, error) {
	return s.repo.ListItems(ctx)
}

// ReplaceItems swaps the whole checklist. Either every item is stored or
// none is.
func (s *ConfigService) ReplaceItems(ctx context.Context, items []types.ChecklistItem) error {
	return s.repo.ReplaceItems(ctx, items)
}

// ListSetting returns a configuration list with positional display ids.
func (s *ConfigService) ListSetting(ctx context.Context, list types.SettingList) ([]types.NamedSetting, error) {
	names, err := s.repo.ListSetting(ctx, list)
	if err != nil {
		return nil, err
	}
	out := make([]types.NamedSetting, 0, len(names))
	for i, name := range names {
		out = append(out, types.NamedSetting{ID: i + 1, Name: name})
	}
	return out, nil
}

func (s *ConfigService) AddSetting(ctx context.Context, list types.SettingList, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidInput
	}
	return s.repo.AddSetting(ctx, list, name)
}

func (s *ConfigService) DeleteSetting(ctx context.Context, list types.SettingList, name string) error {
	return s.repo.DeleteSetting(ctx, list, name)
}

// ReplaceSetting swaps a whole list. Blank and repeated names are dropped.
func (s *ConfigService) ReplaceSetting(ctx context.Context, list types.SettingList, names []string) error {
	seen := make(map[string]struct{}, len(names))
	clean := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		clean = append(clean, name)
	}
	return s.repo.ReplaceSetting(ctx, list, clean)
}

func (s *ConfigService) ListPermissions(ctx context.Context) ([]types.Permission, error) {
	return s.repo.ListPermissions(ctx)
}

func (s *ConfigService) ReplacePermissions(ctx context.Context, perms []types.Permission) error {
	for _, perm := range perms {
		if strings.TrimSpace(perm.Role) == "" || strings.TrimSpace(perm.Module) == "" {
			return ErrInvalidInput
		}
	}
	return s.repo.ReplacePermissions(ctx, perms)
}
