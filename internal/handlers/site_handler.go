package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/jpgoodman17/SPN-Site-Search/internal/errors"
	"github.com/jpgoodman17/SPN-Site-Search/internal/middleware"
	"github.com/jpgoodman17/SPN-Site-Search/internal/models"
	"github.com/jpgoodman17/SPN-Site-Search/internal/services"
)

// SiteHandler scores single sites on demand.
type SiteHandler struct {
	scorer     services.SiteScorer
	skipRemote bool
}

// NewSiteHandler creates a new SiteHandler instance.
func NewSiteHandler(scorer services.SiteScorer, skipRemote bool) *SiteHandler {
	return &SiteHandler{scorer: scorer, skipRemote: skipRemote}
}

// ParcelRequest is the JSON body of a single-site score request.
// Numeric fields are pointers so that a missing value is told apart from zero.
type ParcelRequest struct {
	Address     string   `json:"address" binding:"required"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	Zip         string   `json:"zip"`
	PriceUSD    *float64 `json:"price_usd" binding:"required"`
	Acres       *float64 `json:"acres" binding:"required,gt=0"`
	Lat         *float64 `json:"lat" binding:"required,gte=-90,lte=90"`
	Lon         *float64 `json:"lon" binding:"required,gte=-180,lte=180"`
	ClearedHint string   `json:"cleared_hint"`
	SkipRemote  *bool    `json:"skip_remote"`
}

func (r ParcelRequest) toParcel() models.ParcelInput {
	return models.ParcelInput{
		Address:     r.Address,
		City:        r.City,
		State:       r.State,
		Zip:         r.Zip,
		PriceUSD:    *r.PriceUSD,
		Acres:       *r.Acres,
		Lat:         *r.Lat,
		Lon:         *r.Lon,
		ClearedHint: r.ClearedHint,
	}
}

// Score handles POST /api/v1/sites/score.
func (h *SiteHandler) Score(c *gin.Context) {
	var req ParcelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid JSON body", nil)
		return
	}

	opts := models.RunOptions{SkipRemote: h.skipRemote}
	if req.SkipRemote != nil {
		opts.SkipRemote = *req.SkipRemote
	}

	parcel := req.toParcel()
	if log := middleware.GetLogger(c); log != nil {
		log.Info("Scoring site", map[string]interface{}{
			"address":     parcel.FullAddress(),
			"skip_remote": opts.SkipRemote,
		})
	}

	res := h.scorer.Score(c.Request.Context(), parcel, opts)
	c.JSON(http.StatusOK, models.RowOutcome{Index: 0, Result: &res})
}
