package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jpgoodman17/SPN-Site-Search/internal/csvio"
	apierrors "github.com/jpgoodman17/SPN-Site-Search/internal/errors"
	"github.com/jpgoodman17/SPN-Site-Search/internal/middleware"
	"github.com/jpgoodman17/SPN-Site-Search/internal/models"
	"github.com/jpgoodman17/SPN-Site-Search/internal/services"
)

// ScreeningHandler runs batch screenings of uploaded CSV files.
type ScreeningHandler struct {
	runner         services.PipelineRunner
	maxUploadBytes int64
	defaults       models.RunOptions
}

// NewScreeningHandler creates a new ScreeningHandler instance.
func NewScreeningHandler(runner services.PipelineRunner, maxUploadBytes int64, defaults models.RunOptions) *ScreeningHandler {
	return &ScreeningHandler{
		runner:         runner,
		maxUploadBytes: maxUploadBytes,
		defaults:       defaults,
	}
}

// ScreeningRequest represents the query parameters of a screening upload.
type ScreeningRequest struct {
	Format string `form:"format" binding:"omitempty,oneof=json csv"`
}

// ScreeningResponse is the JSON result of a screening run.
type ScreeningResponse struct {
	Run     models.RunSummary   `json:"run"`
	Results []models.RowOutcome `json:"results"`
}

// Create handles POST /api/v1/screenings. The CSV arrives in the multipart
// field "file"; an optional "skip_remote" form field overrides the server
// default for this run.
func (h *ScreeningHandler) Create(c *gin.Context) {
	var req ScreeningRequest
	if !bindQuery(c, &req) {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.PayloadTooLarge(c, h.maxUploadBytes)
			return
		}
		apierrors.BadRequest(c, `Missing CSV upload in form field "file"`, nil)
		return
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		apierrors.PayloadTooLarge(c, h.maxUploadBytes)
		return
	}

	opts := h.defaults
	if raw := c.PostForm("skip_remote"); raw != "" {
		skip, err := strconv.ParseBool(raw)
		if err != nil {
			apierrors.BadRequest(c, "skip_remote must be a boolean", map[string]interface{}{"skip_remote": raw})
			return
		}
		opts.SkipRemote = skip
	}

	file, err := fileHeader.Open()
	if err != nil {
		apierrors.InternalServerError(c, "Failed to read upload", err)
		return
	}
	defer file.Close()

	rows, err := csvio.ReadParcels(file)
	if err != nil {
		apierrors.BadRequest(c, "Invalid CSV", map[string]interface{}{"error": err.Error()})
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Processing screening upload", map[string]interface{}{
			"filename":    fileHeader.Filename,
			"rows":        len(rows),
			"skip_remote": opts.SkipRemote,
		})
	}

	outcomes, summary := h.runner.Run(c.Request.Context(), rows, opts)

	if req.Format == "csv" {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="screening-%s.csv"`, summary.RunID))
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := csvio.WriteOutcomes(c.Writer, outcomes); err != nil {
			_ = c.Error(err)
			if log := middleware.GetLogger(c); log != nil {
				log.Error("Failed to stream screening CSV", err, nil)
			}
		}
		return
	}

	c.JSON(http.StatusOK, ScreeningResponse{Run: summary, Results: outcomes})
}
