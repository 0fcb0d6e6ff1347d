package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jpgoodman17/SPN-Site-Search/internal/models"
)

// MockSiteScorer is a mock implementation of services.SiteScorer.
type MockSiteScorer struct {
	mock.Mock
}

func (m *MockSiteScorer) Score(ctx context.Context, parcel models.ParcelInput, opts models.RunOptions) models.SiteResult {
	args := m.Called(ctx, parcel, opts)
	return args.Get(0).(models.SiteResult)
}

// MockPipelineRunner is a mock implementation of services.PipelineRunner.
type MockPipelineRunner struct {
	mock.Mock
}

func (m *MockPipelineRunner) Run(ctx context.Context, rows []models.RawParcelRow, opts models.RunOptions) ([]models.RowOutcome, models.RunSummary) {
	args := m.Called(ctx, rows, opts)
	return args.Get(0).([]models.RowOutcome), args.Get(1).(models.RunSummary)
}

type errorEnvelope struct {
	Error struct {
		Code      string                 `json:"code"`
		Message   string                 `json:"message"`
		Details   map[string]interface{} `json:"details"`
		RequestID string                 `json:"request_id"`
	} `json:"error"`
}
