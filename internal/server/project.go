package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	projectdomain "github.com/urbanatlas/urban-api/internal/project/domain"
	"github.com/urbanatlas/urban-api/pkg/geojson"
)

type projectTerritoryPayload struct {
	ParentID    *int64            `json:"parent_id"`
	Geometry    *geojson.Geometry `json:"geometry"`
	CentrePoint *geojson.Geometry `json:"centre_point"`
	Properties  map[string]any    `json:"properties"`
}

type projectPayload struct {
	UserID      int64                    `json:"user_id"`
	Name        string                   `json:"name"`
	Description *string                  `json:"description"`
	Public      bool                     `json:"public"`
	ImageURL    *string                  `json:"image_url"`
	Territory   *projectTerritoryPayload `json:"project_territory_info"`
}

type projectPatchPayload struct {
	UserID      *int64                   `json:"user_id"`
	Name        *string                  `json:"name"`
	Description *string                  `json:"description"`
	Public      *bool                    `json:"public"`
	ImageURL    *string                  `json:"image_url"`
	Territory   *projectTerritoryPayload `json:"project_territory_info"`
}

func (s *Server) CreateProject(c *gin.Context) {
	var req projectPayload
	if !bindProjectJSON(c, &req) {
		return
	}
	if req.Territory == nil {
		AbortWithError(c, newValidationError("project_territory_info", "invalid_request", "project territory is required"))
		return
	}

	resp, err := s.projectSvc.Create(c.Request.Context(), projectdomain.CreateProjectRequest{
		UserID:      snowflake.ID(req.UserID),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Public:      req.Public,
		ImageURL:    req.ImageURL,
		Territory:   territorySpec(req.Territory),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListProjects(c *gin.Context) {
	resp, err := s.projectSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProject(c *gin.Context) {
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}

	resp, err := s.projectSvc.GetByID(c.Request.Context(), projectID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PutProject(c *gin.Context) {
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}

	var req projectPayload
	if !bindProjectJSON(c, &req) {
		return
	}
	if req.Territory == nil {
		AbortWithError(c, newValidationError("project_territory_info", "invalid_request", "project territory is required"))
		return
	}

	resp, err := s.projectSvc.Replace(c.Request.Context(), projectID, projectdomain.ReplaceProjectRequest{
		UserID:      snowflake.ID(req.UserID),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Public:      req.Public,
		ImageURL:    req.ImageURL,
		Territory:   territorySpec(req.Territory),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PatchProject(c *gin.Context) {
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}

	var req projectPatchPayload
	if !bindProjectJSON(c, &req) {
		return
	}

	patch := projectdomain.PatchProjectRequest{
		Name:        req.Name,
		Description: req.Description,
		Public:      req.Public,
		ImageURL:    req.ImageURL,
	}
	if req.UserID != nil {
		userID := snowflake.ID(*req.UserID)
		patch.UserID = &userID
	}
	if req.Territory != nil {
		spec := territorySpec(req.Territory)
		patch.Territory = &projectdomain.PatchTerritoryDetailSpec{
			ParentID:    spec.ParentID,
			Geometry:    spec.Geometry,
			CentrePoint: spec.CentrePoint,
			Properties:  spec.Properties,
		}
	}

	resp, err := s.projectSvc.Patch(c.Request.Context(), projectID, patch)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteProject(c *gin.Context) {
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}

	if err := s.projectSvc.Delete(c.Request.Context(), projectID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) GetProjectTerritory(c *gin.Context) {
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}

	resp, err := s.projectSvc.GetTerritoryDetail(c.Request.Context(), projectID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func projectIDParam(c *gin.Context) (snowflake.ID, bool) {
	projectID, err := parseSnowflakeParam(c.Param("project_id"))
	if err != nil {
		AbortWithError(c, newValidationError("project_id", "invalid_project_id", "invalid project id"))
		return 0, false
	}
	return projectID, true
}

func bindProjectJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		if errors.Is(err, geojson.ErrGeometryFormat) {
			AbortWithError(c, err)
			return false
		}
		AbortWithError(c, invalidRequestError())
		return false
	}
	return true
}

func territorySpec(payload *projectTerritoryPayload) projectdomain.TerritoryDetailSpec {
	spec := projectdomain.TerritoryDetailSpec{
		Geometry:    payload.Geometry,
		CentrePoint: payload.CentrePoint,
		Properties:  payload.Properties,
	}
	if payload.ParentID != nil {
		parentID := snowflake.ID(*payload.ParentID)
		spec.ParentID = &parentID
	}
	return spec
}
