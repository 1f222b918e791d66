package services

import (
	"context"

	"github.com/lidercheck/apiserver/types"
)

// ScrapRepository defines persistence operations for scraps.
type ScrapRepository interface {
	List(ctx context.Context) ([]types.Scrap, error)
	Create(ctx context.Context, scrap types.Scrap) (int64, error)
	Patch(ctx context.Context, id int64, patch types.ScrapPatch) error
}

// MaterialRepository defines persistence operations for materials.
type MaterialRepository interface {
	List(ctx context.Context) ([]types.Material, error)
	UpsertMany(ctx context.Context, materials []types.Material) error
}

// ScrapService encapsulates scrap and material catalog use-cases.
type ScrapService struct {
	scraps    ScrapRepository
	materials MaterialRepository
}

func NewScrapService(scraps ScrapRepository, materials MaterialRepository) *ScrapService {
	return &ScrapService{scraps: scraps, materials: materials}
}

func (s *ScrapService) List(ctx context.Context) ([]types.Scrap, error) {
	return s.scraps.List(ctx)
}

func (s *ScrapService) Create(ctx context.Context, scrap types.Scrap) (types.Scrap, error) {
	id, err := s.scraps.Create(ctx, scrap)
	if err != nil {
		return types.Scrap{}, err
	}
	scrap.ID = id
	return scrap, nil
}

// Patch applies the correctable fields of patch. It reports false when the
// patch is empty and nothing was attempted.
func (s *ScrapService) Patch(ctx context.Context, id int64, patch types.ScrapPatch) (bool, error) {
	if patch.Empty() {
		return false, nil
	}
	if err := s.scraps.Patch(ctx, id, patch); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ScrapService) ListMaterials(ctx context.Context) ([]types.Material, error) {
	return s.materials.List(ctx)
}

// ImportMaterials upserts the catalog by code in one transaction.
func (s *ScrapService) ImportMaterials(ctx context.Context, materials []types.Material) (int, error) {
	for _, m := range materials {
		if m.Code == "" {
			return 0, ErrInvalidInput
		}
	}
	if err := s.materials.UpsertMany(ctx, materials); err != nil {
		return 0, err
	}
	return len(materials), nil
}
