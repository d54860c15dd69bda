package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/urbanatlas/urban-api/internal/config"
	obsmetrics "github.com/urbanatlas/urban-api/internal/observability/metrics"
	"github.com/urbanatlas/urban-api/internal/territory/domain"
	pkgdb "github.com/urbanatlas/urban-api/pkg/db"
	"github.com/urbanatlas/urban-api/pkg/geojson"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Spatial *config.SpatialConfigHolder
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	spatial *config.SpatialConfigHolder
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("territory.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		spatial: p.Spatial,
		metrics: p.Metrics,
	}
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Territory, error) {
	territory, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Territory{}, err
	}
	if territory == nil {
		return domain.Territory{}, domain.ErrTerritoryNotFound
	}
	return *territory, nil
}

// Create inserts the territory first and only then checks the parent: the row
// has to be observable before the check in the two-phase flow this mirrors.
// A failed check is compensated by deleting the fresh row.
func (s *Service) Create(ctx context.Context, req domain.CreateTerritoryRequest) (domain.Territory, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Territory{}, domain.ErrInvalidName
	}
	if req.Geometry == nil || req.CentrePoint == nil {
		return domain.Territory{}, domain.ErrInvalidGeometry
	}

	territory := domain.Territory{
		TerritoryID:     s.genID.Generate(),
		TerritoryTypeID: req.TerritoryTypeID,
		Name:            name,
		Geometry:        req.Geometry,
		CentrePoint:     req.CentrePoint,
		Level:           req.Level,
		Properties:      properties(req.Properties),
		AdminCenter:     req.AdminCenter,
		OkatoCode:       req.OkatoCode,
	}
	if req.ParentID != 0 {
		parentID := req.ParentID
		territory.ParentID = &parentID
	}

	if err := s.repo.Insert(ctx, s.db, &territory, s.spatial.Get().SRID); err != nil {
		return domain.Territory{}, err
	}

	if req.ParentID != 0 {
		exists, err := s.repo.Exists(ctx, s.db, req.ParentID)
		if err != nil {
			return domain.Territory{}, err
		}
		if !exists {
			if delErr := s.repo.Delete(ctx, s.db, territory.TerritoryID); delErr != nil {
				s.log.Error("compensating delete failed",
					zap.String("territory_id", territory.TerritoryID.String()),
					zap.Error(delErr),
				)
			}
			return domain.Territory{}, domain.ErrParentNotFound
		}
	}

	return s.GetByID(ctx, territory.TerritoryID)
}

func (s *Service) ListByParent(ctx context.Context, req domain.ListTerritoriesRequest) ([]domain.Territory, error) {
	filter, err := s.listFilter(ctx, req)
	if err != nil {
		return nil, err
	}
	if filter.AllLevels && req.ParentID != 0 {
		s.metrics.RecordTreeExpansion(ctx)
	}
	return s.repo.ListByParent(ctx, s.db, filter)
}

func (s *Service) ListByParentWithoutGeometry(ctx context.Context, req domain.ListTerritoriesRequest) ([]domain.TerritoryWithoutGeometry, error) {
	filter, err := s.listFilter(ctx, req)
	if err != nil {
		return nil, err
	}
	if filter.AllLevels && req.ParentID != 0 {
		s.metrics.RecordTreeExpansion(ctx)
	}
	return s.repo.ListByParentWithoutGeometry(ctx, s.db, filter)
}

func (s *Service) ListByParentGeoJSON(ctx context.Context, req domain.ListTerritoriesRequest) (*geojson.FeatureCollection, error) {
	territories, err := s.ListByParent(ctx, req)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(territories))
	for _, territory := range territories {
		if territory.Geometry == nil {
			continue
		}
		row, err := rowMap(territory)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	collection, err := geojson.NewFeatureCollection(rows, "geometry", geojson.NamedCRS(s.spatial.Get().CRSCode), true)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordFeaturesBuilt(ctx, "territory", len(collection.Features))
	return collection, nil
}

func (s *Service) ListTypes(ctx context.Context) ([]domain.TerritoryType, error) {
	return s.repo.ListTypes(ctx, s.db)
}

func (s *Service) CreateType(ctx context.Context, req domain.CreateTerritoryTypeRequest) (domain.TerritoryType, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.TerritoryType{}, domain.ErrInvalidName
	}

	existing, err := s.repo.FindTypeByName(ctx, s.db, name)
	if err != nil {
		return domain.TerritoryType{}, err
	}
	if existing != nil {
		return domain.TerritoryType{}, domain.ErrTerritoryTypeExists
	}

	territoryType := domain.TerritoryType{
		TerritoryTypeID: s.genID.Generate(),
		Name:            name,
	}
	if err := s.repo.InsertType(ctx, s.db, &territoryType); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return domain.TerritoryType{}, domain.ErrTerritoryTypeExists
		}
		return domain.TerritoryType{}, err
	}
	return territoryType, nil
}

func (s *Service) listFilter(ctx context.Context, req domain.ListTerritoriesRequest) (domain.ListFilter, error) {
	if req.ParentID != 0 {
		exists, err := s.repo.Exists(ctx, s.db, req.ParentID)
		if err != nil {
			return domain.ListFilter{}, err
		}
		if !exists {
			return domain.ListFilter{}, domain.ErrParentNotFound
		}
	}
	return domain.ListFilter{
		ParentID:        req.ParentID,
		AllLevels:       req.AllLevels,
		TerritoryTypeID: req.TerritoryTypeID,
		MaxDepth:        s.spatial.Get().MaxTreeDepth,
	}, nil
}

func properties(values map[string]any) datatypes.JSONMap {
	if values == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(values)
}

func rowMap(territory domain.Territory) (map[string]any, error) {
	encoded, err := json.Marshal(territory)
	if err != nil {
		return nil, err
	}
	var row map[string]any
	if err := json.Unmarshal(encoded, &row); err != nil {
		return nil, err
	}
	return row, nil
}
