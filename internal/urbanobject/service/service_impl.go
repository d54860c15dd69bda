package service

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	"github.com/urbanatlas/urban-api/internal/config"
	obsmetrics "github.com/urbanatlas/urban-api/internal/observability/metrics"
	territorydomain "github.com/urbanatlas/urban-api/internal/territory/domain"
	"github.com/urbanatlas/urban-api/internal/urbanobject/domain"
	"github.com/urbanatlas/urban-api/pkg/geojson"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Repo        domain.Repository
	Territories territorydomain.Repository
	Spatial     *config.SpatialConfigHolder
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	repo        domain.Repository
	territories territorydomain.Repository
	spatial     *config.SpatialConfigHolder
	metrics     *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("urbanobject.service"),
		repo:        p.Repo,
		territories: p.Territories,
		spatial:     p.Spatial,
		metrics:     p.Metrics,
	}
}

// ListServices deliberately skips the territory existence check its sibling
// queries perform. An unknown territory yields an empty list, not a 404.
func (s *Service) ListServices(ctx context.Context, req domain.ListServicesRequest) ([]domain.ServiceObject, error) {
	return s.repo.ListServices(ctx, s.db, req.TerritoryID, req.ServiceTypeID)
}

func (s *Service) ListServicesWithGeometry(ctx context.Context, req domain.ListServicesRequest) ([]domain.ServiceWithGeometry, error) {
	if err := s.requireTerritory(ctx, req.TerritoryID); err != nil {
		return nil, err
	}
	return s.repo.ListServicesWithGeometry(ctx, s.db, req.TerritoryID, req.ServiceTypeID)
}

func (s *Service) ListServicesGeoJSON(ctx context.Context, req domain.ListServicesRequest) (*geojson.FeatureCollection, error) {
	services, err := s.ListServicesWithGeometry(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.featureCollection(ctx, "service", services)
}

func (s *Service) ServicesCapacity(ctx context.Context, req domain.ServicesCapacityRequest) (float64, error) {
	if req.ServiceTypeID == nil {
		return 0, domain.ErrServiceTypeRequired
	}
	if err := s.requireTerritory(ctx, req.TerritoryID); err != nil {
		return 0, err
	}
	return s.repo.SumServicesCapacity(ctx, s.db, req.TerritoryID, *req.ServiceTypeID)
}

func (s *Service) ListPhysicalObjects(ctx context.Context, req domain.ListPhysicalObjectsRequest) ([]domain.PhysicalObject, error) {
	if err := s.requireTerritory(ctx, req.TerritoryID); err != nil {
		return nil, err
	}
	return s.repo.ListPhysicalObjects(ctx, s.db, req.TerritoryID, req.PhysicalObjectTypeID)
}

func (s *Service) ListPhysicalObjectsWithGeometry(ctx context.Context, req domain.ListPhysicalObjectsRequest) ([]domain.PhysicalObjectWithGeometry, error) {
	if err := s.requireTerritory(ctx, req.TerritoryID); err != nil {
		return nil, err
	}
	return s.repo.ListPhysicalObjectsWithGeometry(ctx, s.db, req.TerritoryID, req.PhysicalObjectTypeID)
}

func (s *Service) ListPhysicalObjectsGeoJSON(ctx context.Context, req domain.ListPhysicalObjectsRequest) (*geojson.FeatureCollection, error) {
	objects, err := s.ListPhysicalObjectsWithGeometry(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.featureCollection(ctx, "physical_object", objects)
}

func (s *Service) ListLivingBuildingsWithGeometry(ctx context.Context, territoryID snowflake.ID) ([]domain.LivingBuildingWithGeometry, error) {
	if err := s.requireTerritory(ctx, territoryID); err != nil {
		return nil, err
	}
	return s.repo.ListLivingBuildingsWithGeometry(ctx, s.db, territoryID)
}

func (s *Service) ListFunctionalZones(ctx context.Context, req domain.ListFunctionalZonesRequest) ([]domain.FunctionalZone, error) {
	if err := s.requireTerritory(ctx, req.TerritoryID); err != nil {
		return nil, err
	}
	return s.repo.ListFunctionalZones(ctx, s.db, req.TerritoryID, req.FunctionalZoneTypeID)
}

func (s *Service) ListIndicators(ctx context.Context, territoryID snowflake.ID) ([]domain.Indicator, error) {
	if err := s.requireTerritory(ctx, territoryID); err != nil {
		return nil, err
	}
	return s.repo.ListIndicators(ctx, s.db, territoryID)
}

func (s *Service) ListIndicatorValues(ctx context.Context, req domain.ListIndicatorValuesRequest) ([]domain.IndicatorValue, error) {
	if err := s.requireTerritory(ctx, req.TerritoryID); err != nil {
		return nil, err
	}
	return s.repo.ListIndicatorValues(ctx, s.db, req.TerritoryID, req.Filter)
}

func (s *Service) requireTerritory(ctx context.Context, territoryID snowflake.ID) error {
	exists, err := s.territories.Exists(ctx, s.db, territoryID)
	if err != nil {
		return err
	}
	if !exists {
		return territorydomain.ErrTerritoryNotFound
	}
	return nil
}

// featureCollection flattens rows with a geometry field into features. Rows
// without a geometry are skipped rather than failing the collection.
func (s *Service) featureCollection(ctx context.Context, entity string, rows any) (*geojson.FeatureCollection, error) {
	encoded, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	var decoded []map[string]any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return nil, err
	}

	withGeometry := make([]map[string]any, 0, len(decoded))
	for _, row := range decoded {
		if row["geometry"] == nil {
			continue
		}
		withGeometry = append(withGeometry, row)
	}

	collection, err := geojson.NewFeatureCollection(withGeometry, "geometry", geojson.NamedCRS(s.spatial.Get().CRSCode), true)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordFeaturesBuilt(ctx, entity, len(collection.Features))
	return collection, nil
}
