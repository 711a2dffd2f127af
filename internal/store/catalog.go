package store

import (
	"context"

	"parkspot-backend/internal/model"
)

func (s *gormStore) ListRegions(ctx context.Context) ([]model.Region, error) {
	var regions []model.Region
	err := s.db.WithContext(ctx).Order("name ASC").Find(&regions).Error
	return regions, err
}

func (s *gormStore) ListAreas(ctx context.Context, regionID int64) ([]model.Area, error) {
	var areas []model.Area
	err := s.db.WithContext(ctx).Where("region_id = ?", regionID).Order("name ASC").Find(&areas).Error
	return areas, err
}

func (s *gormStore) ListSpots(ctx context.Context, areaID int64) ([]model.Spot, error) {
	var spots []model.Spot
	err := s.db.WithContext(ctx).Where("area_id = ?", areaID).Order("name ASC").Find(&spots).Error
	return spots, err
}

// ListSubSpots returns a spot's sub-spots in their stable seq order.
func (s *gormStore) ListSubSpots(ctx context.Context, spotID int64) ([]model.SubSpot, error) {
	var subSpots []model.SubSpot
	err := s.db.WithContext(ctx).Where("spot_id = ?", spotID).Order("seq ASC").Find(&subSpots).Error
	return subSpots, err
}

func (s *gormStore) GetSubSpot(ctx context.Context, subSpotID int64) (*model.SubSpot, error) {
	var ss model.SubSpot
	if err := s.db.WithContext(ctx).First(&ss, subSpotID).Error; err != nil {
		return nil, err
	}
	return &ss, nil
}
