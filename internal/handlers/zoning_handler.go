package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/jpgoodman17/SPN-Site-Search/internal/errors"

	"github.com/jpgoodman17/SPN-Site-Search/internal/zoning"
)

// ZoningHandler serves zoning research links.
type ZoningHandler struct{}

// NewZoningHandler creates a new ZoningHandler instance.
func NewZoningHandler() *ZoningHandler {
	return &ZoningHandler{}
}

// ZoningLinksRequest represents the query parameters for the links endpoint.
type ZoningLinksRequest struct {
	Municipality string `form:"municipality" binding:"required"`
}

// ZoningLinksResponse lists links for one municipality.
type ZoningLinksResponse struct {
	Municipality string       `json:"municipality"`
	Links        zoning.Links `json:"links"`
}

// Links handles GET /api/v1/zoning/links.
func (h *ZoningHandler) Links(c *gin.Context) {
	var req ZoningLinksRequest
	if !bindQuery(c, &req) {
		return
	}

	c.JSON(http.StatusOK, ZoningLinksResponse{
		Municipality: req.Municipality,
		Links:        zoning.GuessLinks(req.Municipality),
	})
}

// ZoningSummaryRequest carries pasted zoning code text.
type ZoningSummaryRequest struct {
	Text string `json:"text" binding:"required"`
}

// ZoningSummaryResponse is the shortened excerpt.
type ZoningSummaryResponse struct {
	Summary   string `json:"summary"`
	Truncated bool   `json:"truncated"`
}

// Summarize handles POST /api/v1/zoning/summary.
func (h *ZoningHandler) Summarize(c *gin.Context) {
	var req ZoningSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid JSON body", nil)
		return
	}

	summary := zoning.SummarizeCodeText(req.Text)
	c.JSON(http.StatusOK, ZoningSummaryResponse{
		Summary:   summary,
		Truncated: summary != req.Text,
	})
}
