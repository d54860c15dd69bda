package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/urbanatlas/urban-api/internal/config"
	obsmetrics "github.com/urbanatlas/urban-api/internal/observability/metrics"
	"github.com/urbanatlas/urban-api/internal/project/domain"
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
	now     func() time.Time
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("project.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		spatial: p.Spatial,
		metrics: p.Metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts the territory detail first, then the project referencing
// it. Both rows commit or neither does.
func (s *Service) Create(ctx context.Context, req domain.CreateProjectRequest) (domain.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Project{}, domain.ErrInvalidName
	}
	if req.Territory.Geometry == nil || req.Territory.CentrePoint == nil {
		return domain.Project{}, domain.ErrInvalidGeometry
	}

	detail := domain.TerritoryDetail{
		ProjectTerritoryID: s.genID.Generate(),
		ParentID:           req.Territory.ParentID,
		Geometry:           req.Territory.Geometry,
		CentrePoint:        req.Territory.CentrePoint,
		Properties:         properties(req.Territory.Properties),
	}
	now := s.now()
	project := domain.Project{
		ProjectID:          s.genID.Generate(),
		UserID:             req.UserID,
		Name:               name,
		ProjectTerritoryID: detail.ProjectTerritoryID,
		Description:        req.Description,
		Public:             req.Public,
		ImageURL:           req.ImageURL,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertDetail(ctx, tx, &detail, s.spatial.Get().SRID); err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, &project)
	})
	if err != nil {
		return domain.Project{}, err
	}
	s.metrics.RecordProjectWrite(ctx, "create")

	return s.GetByID(ctx, project.ProjectID)
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Project, error) {
	project, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Project{}, err
	}
	if project == nil {
		return domain.Project{}, domain.ErrProjectNotFound
	}
	return *project, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Project, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) GetTerritoryDetail(ctx context.Context, projectID snowflake.ID) (domain.TerritoryDetail, error) {
	project, err := s.repo.FindByID(ctx, s.db, projectID)
	if err != nil {
		return domain.TerritoryDetail{}, err
	}
	if project == nil {
		return domain.TerritoryDetail{}, domain.ErrProjectNotFound
	}

	detail, err := s.repo.FindDetailByID(ctx, s.db, project.ProjectTerritoryID)
	if err != nil {
		return domain.TerritoryDetail{}, err
	}
	if detail == nil {
		return domain.TerritoryDetail{}, domain.ErrTerritoryDetailNotFound
	}
	return *detail, nil
}

func (s *Service) Replace(ctx context.Context, id snowflake.ID, req domain.ReplaceProjectRequest) (domain.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Project{}, domain.ErrInvalidName
	}
	if req.Territory.Geometry == nil || req.Territory.CentrePoint == nil {
		return domain.Project{}, domain.ErrInvalidGeometry
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if project == nil {
			return domain.ErrProjectNotFound
		}

		detail := domain.TerritoryDetail{
			ProjectTerritoryID: project.ProjectTerritoryID,
			ParentID:           req.Territory.ParentID,
			Geometry:           req.Territory.Geometry,
			CentrePoint:        req.Territory.CentrePoint,
			Properties:         properties(req.Territory.Properties),
		}
		if err := s.repo.UpdateDetail(ctx, tx, &detail, s.spatial.Get().SRID); err != nil {
			return err
		}

		project.UserID = req.UserID
		project.Name = name
		project.Description = req.Description
		project.Public = req.Public
		project.ImageURL = req.ImageURL
		project.UpdatedAt = s.now()
		return s.repo.Update(ctx, tx, project)
	})
	if err != nil {
		return domain.Project{}, err
	}
	s.metrics.RecordProjectWrite(ctx, "replace")

	return s.GetByID(ctx, id)
}

// Patch updates only the fields present on each side. A side with no
// changes issues no UPDATE at all.
func (s *Service) Patch(ctx context.Context, id snowflake.ID, req domain.PatchProjectRequest) (domain.Project, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if project == nil {
			return domain.ErrProjectNotFound
		}

		projectValues := map[string]any{}
		if req.UserID != nil {
			projectValues["user_id"] = *req.UserID
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return domain.ErrInvalidName
			}
			projectValues["name"] = name
		}
		if req.Description != nil {
			projectValues["description"] = *req.Description
		}
		if req.Public != nil {
			projectValues["public"] = *req.Public
		}
		if req.ImageURL != nil {
			projectValues["image_url"] = *req.ImageURL
		}

		detailValues := map[string]any{}
		if req.Territory != nil {
			srid := s.spatial.Get().SRID
			if req.Territory.ParentID != nil {
				detailValues["parent_id"] = *req.Territory.ParentID
			}
			if req.Territory.Geometry != nil {
				detailValues["geometry"] = req.Territory.Geometry.GeomFromText(srid)
			}
			if req.Territory.CentrePoint != nil {
				detailValues["centre_point"] = req.Territory.CentrePoint.GeomFromText(srid)
			}
			if req.Territory.Properties != nil {
				detailValues["properties"] = properties(req.Territory.Properties)
			}
		}

		if len(projectValues) > 0 {
			projectValues["updated_at"] = s.now()
			if err := s.repo.UpdateFields(ctx, tx, id, projectValues); err != nil {
				return err
			}
		}
		if len(detailValues) > 0 {
			if err := s.repo.UpdateDetailFields(ctx, tx, project.ProjectTerritoryID, detailValues); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Project{}, err
	}
	s.metrics.RecordProjectWrite(ctx, "patch")

	return s.GetByID(ctx, id)
}

// Delete removes the project row first, then the detail it owned. The
// transaction keeps the orphaned intermediate state invisible.
func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if project == nil {
			return domain.ErrProjectNotFound
		}
		if err := s.repo.Delete(ctx, tx, id); err != nil {
			return err
		}
		return s.repo.DeleteDetail(ctx, tx, project.ProjectTerritoryID)
	})
	if err != nil {
		return err
	}
	s.metrics.RecordProjectWrite(ctx, "delete")
	return nil
}

func properties(values map[string]any) datatypes.JSONMap {
	if values == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(values)
}
