package service

import (
	"context"

	"github.com/padala-next/internal/geo"
	"github.com/padala-next/internal/models"
	"github.com/padala-next/internal/repository"
)

// DriverPool 候选骑手查询
type DriverPool struct {
	driverRepo repository.DriverRepository
}

// NewDriverPool 创建候选骑手池
func NewDriverPool(driverRepo repository.DriverRepository) *DriverPool {
	return &DriverPool{driverRepo: driverRepo}
}

// FindAvailableDrivers 查询同城空闲在线且在半径内的骑手，无人可派时返回空切片
func (p *DriverPool) FindAvailableDrivers(ctx context.Context, city string, origin geo.Point, maxRadiusKm float64, exclude ...uint) ([]models.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := p.driverRepo.ListAvailable(repository.DriverAvailabilityFilter{
		City:       city,
		ExcludeIDs: exclude,
	})
	if err != nil {
		return nil, err
	}
	candidates := make([]models.Driver, 0, len(rows))
	for _, driver := range rows {
		if !driver.IsAvailable || !driver.IsOnline || !driver.HasLocation() {
			continue
		}
		distance := geo.Distance(origin, geo.Point{Lat: *driver.CurrentLat, Lng: *driver.CurrentLng})
		if distance <= maxRadiusKm {
			candidates = append(candidates, driver)
		}
	}
	return candidates, nil
}
