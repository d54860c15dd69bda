package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	territorydomain "github.com/urbanatlas/urban-api/internal/territory/domain"
	"github.com/urbanatlas/urban-api/pkg/geojson"
)

type createTerritoryRequest struct {
	TerritoryTypeID *int64            `json:"territory_type_id"`
	ParentID        int64             `json:"parent_id"`
	Name            string            `json:"name"`
	Geometry        *geojson.Geometry `json:"geometry"`
	CentrePoint     *geojson.Geometry `json:"centre_point"`
	Level           int               `json:"level"`
	Properties      map[string]any    `json:"properties"`
	AdminCenter     *string           `json:"admin_center"`
	OkatoCode       *string           `json:"okato_code"`
}

func (s *Server) GetTerritory(c *gin.Context) {
	territoryID, err := parseSnowflakeParam(c.Param("territory_id"))
	if err != nil {
		AbortWithError(c, newValidationError("territory_id", "invalid_territory_id", "invalid territory id"))
		return
	}

	resp, err := s.territorySvc.GetByID(c.Request.Context(), territoryID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateTerritory(c *gin.Context) {
	var req createTerritoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, geojson.ErrGeometryFormat) {
			AbortWithError(c, err)
			return
		}
		AbortWithError(c, invalidRequestError())
		return
	}

	var typeID *snowflake.ID
	if req.TerritoryTypeID != nil {
		id := snowflake.ID(*req.TerritoryTypeID)
		typeID = &id
	}

	resp, err := s.territorySvc.Create(c.Request.Context(), territorydomain.CreateTerritoryRequest{
		TerritoryTypeID: typeID,
		ParentID:        snowflake.ID(req.ParentID),
		Name:            strings.TrimSpace(req.Name),
		Geometry:        req.Geometry,
		CentrePoint:     req.CentrePoint,
		Level:           req.Level,
		Properties:      req.Properties,
		AdminCenter:     req.AdminCenter,
		OkatoCode:       req.OkatoCode,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListTerritories(c *gin.Context) {
	req, err := territoryListRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if wantsGeoJSON(c) {
		collection, err := s.territorySvc.ListByParentGeoJSON(c.Request.Context(), req)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, collection)
		return
	}

	resp, err := s.territorySvc.ListByParent(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTerritoriesWithoutGeometry(c *gin.Context) {
	req, err := territoryListRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.territorySvc.ListByParentWithoutGeometry(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTerritoryTypes(c *gin.Context) {
	resp, err := s.territorySvc.ListTypes(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateTerritoryType(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.territorySvc.CreateType(c.Request.Context(), territorydomain.CreateTerritoryTypeRequest{
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func territoryListRequest(c *gin.Context) (territorydomain.ListTerritoriesRequest, error) {
	parentID, err := parseParentID(c.Query("parent_id"))
	if err != nil {
		return territorydomain.ListTerritoriesRequest{}, newValidationError("parent_id", "invalid_parent_id", "invalid parent id")
	}

	allLevels, err := parseOptionalBool(c.Query("get_all_levels"))
	if err != nil {
		return territorydomain.ListTerritoriesRequest{}, newValidationError("get_all_levels", "invalid_get_all_levels", "invalid get_all_levels")
	}

	typeID, err := parseOptionalSnowflakeID(c.Query("territory_type_id"))
	if err != nil {
		return territorydomain.ListTerritoriesRequest{}, newValidationError("territory_type_id", "invalid_territory_type_id", "invalid territory type id")
	}

	return territorydomain.ListTerritoriesRequest{
		ParentID:        parentID,
		AllLevels:       allLevels,
		TerritoryTypeID: typeID,
	}, nil
}
