package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/urbanatlas/urban-api/internal/project/domain"
	"github.com/urbanatlas/urban-api/pkg/geojson"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const projectColumns = `project_id, user_id, name, project_territory_id, description, public, image_url, created_at, updated_at`

type detailRow struct {
	ProjectTerritoryID snowflake.ID
	ParentID           *snowflake.ID
	Geometry           *string
	CentrePoint        *string
	Properties         datatypes.JSONMap
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Project, error) {
	var project domain.Project
	err := db.WithContext(ctx).Raw(
		`SELECT `+projectColumns+` FROM projects_data WHERE project_id = ?`, id,
	).Scan(&project).Error
	if err != nil {
		return nil, err
	}
	if project.ProjectID == 0 {
		return nil, nil
	}
	return &project, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Project, error) {
	var projects []domain.Project
	err := db.WithContext(ctx).Raw(
		`SELECT ` + projectColumns + ` FROM projects_data ORDER BY project_id`,
	).Scan(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, project *domain.Project) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO projects_data
		 (project_id, user_id, name, project_territory_id, description, public, image_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ProjectID,
		project.UserID,
		project.Name,
		project.ProjectTerritoryID,
		project.Description,
		project.Public,
		project.ImageURL,
		project.CreatedAt,
		project.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, project *domain.Project) error {
	return db.WithContext(ctx).Exec(
		`UPDATE projects_data
		 SET user_id = ?, name = ?, description = ?, public = ?, image_url = ?, updated_at = ?
		 WHERE project_id = ?`,
		project.UserID,
		project.Name,
		project.Description,
		project.Public,
		project.ImageURL,
		project.UpdatedAt,
		project.ProjectID,
	).Error
}

func (r *repo) UpdateFields(ctx context.Context, db *gorm.DB, id snowflake.ID, values map[string]any) error {
	query, args := buildUpdate("projects_data", "project_id", id, values)
	return db.WithContext(ctx).Exec(query, args...).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM projects_data WHERE project_id = ?`, id,
	).Error
}

func (r *repo) FindDetailByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.TerritoryDetail, error) {
	var row detailRow
	err := db.WithContext(ctx).Raw(
		`SELECT project_territory_id, parent_id,
		 ST_AsGeoJSON(geometry) AS geometry,
		 ST_AsGeoJSON(centre_point) AS centre_point,
		 properties
		 FROM projects_territory_data WHERE project_territory_id = ?`, id,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ProjectTerritoryID == 0 {
		return nil, nil
	}

	detail := domain.TerritoryDetail{
		ProjectTerritoryID: row.ProjectTerritoryID,
		ParentID:           row.ParentID,
		Properties:         row.Properties,
	}
	if row.Geometry != nil {
		geometry, err := geojson.ParseString(*row.Geometry)
		if err != nil {
			return nil, err
		}
		detail.Geometry = geometry
	}
	if row.CentrePoint != nil {
		centre, err := geojson.ParseString(*row.CentrePoint)
		if err != nil {
			return nil, err
		}
		detail.CentrePoint = centre
	}
	return &detail, nil
}

func (r *repo) InsertDetail(ctx context.Context, db *gorm.DB, detail *domain.TerritoryDetail, srid int) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO projects_territory_data
		 (project_territory_id, parent_id, geometry, centre_point, properties)
		 VALUES (?, ?, ?, ?, ?)`,
		detail.ProjectTerritoryID,
		detail.ParentID,
		detail.Geometry.GeomFromText(srid),
		detail.CentrePoint.GeomFromText(srid),
		detail.Properties,
	).Error
}

func (r *repo) UpdateDetail(ctx context.Context, db *gorm.DB, detail *domain.TerritoryDetail, srid int) error {
	return db.WithContext(ctx).Exec(
		`UPDATE projects_territory_data
		 SET parent_id = ?, geometry = ?, centre_point = ?, properties = ?
		 WHERE project_territory_id = ?`,
		detail.ParentID,
		detail.Geometry.GeomFromText(srid),
		detail.CentrePoint.GeomFromText(srid),
		detail.Properties,
		detail.ProjectTerritoryID,
	).Error
}

func (r *repo) UpdateDetailFields(ctx context.Context, db *gorm.DB, id snowflake.ID, values map[string]any) error {
	query, args := buildUpdate("projects_territory_data", "project_territory_id", id, values)
	return db.WithContext(ctx).Exec(query, args...).Error
}

func (r *repo) DeleteDetail(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM projects_territory_data WHERE project_territory_id = ?`, id,
	).Error
}

// buildUpdate renders a partial UPDATE over internally produced column
// names. Keys are sorted so the statement is deterministic.
func buildUpdate(table, keyColumn string, id snowflake.ID, values map[string]any) (string, []any) {
	columns := make([]string, 0, len(values))
	for column := range values {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	var b strings.Builder
	b.WriteString("UPDATE " + table + " SET ")
	args := make([]any, 0, len(columns)+1)
	for i, column := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(column + " = ?")
		args = append(args, values[column])
	}
	b.WriteString(" WHERE " + keyColumn + " = ?")
	args = append(args, id)
	return b.String(), args
}
