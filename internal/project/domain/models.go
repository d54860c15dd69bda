package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/urbanatlas/urban-api/pkg/geojson"
	"gorm.io/datatypes"
)

// Project owns exactly one territory detail row. The detail is created
// before the project and removed after it.
type Project struct {
	ProjectID          snowflake.ID `json:"project_id"`
	UserID             snowflake.ID `json:"user_id"`
	Name               string       `json:"name"`
	ProjectTerritoryID snowflake.ID `json:"project_territory_id"`
	Description        *string      `json:"description"`
	Public             bool         `json:"public"`
	ImageURL           *string      `json:"image_url"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

type TerritoryDetail struct {
	ProjectTerritoryID snowflake.ID      `json:"project_territory_id"`
	ParentID           *snowflake.ID     `json:"parent_id,omitempty"`
	Geometry           *geojson.Geometry `json:"geometry"`
	CentrePoint        *geojson.Geometry `json:"centre_point"`
	Properties         datatypes.JSONMap `json:"properties"`
}
