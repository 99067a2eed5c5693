package importer

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"prestashop-importer-service/internal/models"
	"prestashop-importer-service/internal/repository"
)

// Fetcher is the slice of the webservice client the importers need.
// Satisfied by *prestashop.Client.
type Fetcher interface {
	FetchList(ctx context.Context, resource string, params url.Values) ([]byte, error)
	FetchDetail(ctx context.Context, resource, id string) ([]byte, error)
	FetchAux(ctx context.Context, resource string, params url.Values) ([]byte, error)
	FetchAuxDetail(ctx context.Context, resource, id string) ([]byte, error)
	FetchImage(ctx context.Context, rawURL string, withAuth bool) ([]byte, string, error)
	DirectImageURL(imageID string) string
	APIImageURL(productID, imageID string) string
}

// Config tunes one importer instance
type Config struct {
	Governor   GovernorConfig
	GroupDelay time.Duration // pause between customer-group items
	ImageDelay time.Duration // pause between image downloads
}

// DefaultConfig returns the importer defaults
func DefaultConfig() Config {
	return Config{
		Governor:   DefaultGovernorConfig(),
		GroupDelay: 300 * time.Millisecond,
		ImageDelay: 500 * time.Millisecond,
	}
}

// Stores bundles the target-side repositories an importer writes to
type Stores struct {
	Partners   repository.PartnerRepositoryInterface
	Categories repository.CategoryRepositoryInterface
	Products   repository.ProductRepositoryInterface
	Pricelists repository.PricelistRepositoryInterface
	Runs       repository.RunRepositoryInterface
}

// Importer pulls one backend's data into the local schema. One instance
// serves one run; it is not safe for concurrent use.
type Importer struct {
	fetcher    Fetcher
	stores     Stores
	caps       Capabilities
	config     Config
	backend    *models.PrestashopBackend
	runID      uuid.UUID
	logger     *logrus.Entry
	runLog     *RunLogger
	categories *CategoryResolver
}

// New creates an importer bound to one backend and one run
func New(fetcher Fetcher, stores Stores, caps Capabilities, config Config, backend *models.PrestashopBackend, runID uuid.UUID, logger *logrus.Logger) *Importer {
	entry := logger.WithFields(logrus.Fields{
		"backend_id": backend.ID,
		"run_id":     runID,
	})
	runLog := NewRunLogger(stores.Runs, runID, entry)
	return &Importer{
		fetcher: fetcher,
		stores:  stores,
		caps:    caps,
		config:  config,
		backend: backend,
		runID:   runID,
		logger:  entry,
		runLog:  runLog,
		categories: NewCategoryResolver(fetcher, stores.Categories, backend, entry, runLog),
	}
}

func (i *Importer) provenance(foreignID string) string {
	return "Imported from Prestashop (ID: " + foreignID + ")"
}

// persistProgress writes the counter snapshot; best effort, a storage hiccup
// must not kill the batch.
func (i *Importer) persistProgress(ctx context.Context, gov *Governor) {
	if err := i.stores.Runs.UpdateRunCounters(ctx, i.runID, gov.Counters()); err != nil {
		i.logger.WithError(err).Warn("Failed to persist run counters")
	}
}

// RunLogger writes structured run log rows alongside service logs. Log
// persistence is best effort.
type RunLogger struct {
	runs   repository.RunRepositoryInterface
	runID  uuid.UUID
	logger *logrus.Entry
}

// NewRunLogger creates a run logger
func NewRunLogger(runs repository.RunRepositoryInterface, runID uuid.UUID, logger *logrus.Entry) *RunLogger {
	return &RunLogger{runs: runs, runID: runID, logger: logger}
}

func (l *RunLogger) Info(ctx context.Context, message string, data models.JSONB) {
	l.logger.WithField("data", data).Info(message)
	l.write(ctx, "info", message, data)
}

func (l *RunLogger) Warn(ctx context.Context, message string, data models.JSONB) {
	l.logger.WithField("data", data).Warn(message)
	l.write(ctx, "warning", message, data)
}

func (l *RunLogger) Error(ctx context.Context, message string, data models.JSONB) {
	l.logger.WithField("data", data).Error(message)
	l.write(ctx, "error", message, data)
}

func (l *RunLogger) write(ctx context.Context, level, message string, data models.JSONB) {
	if data == nil {
		data = models.JSONB{}
	}
	entry := &models.ImportRunLog{
		RunID:   l.runID,
		Level:   level,
		Message: message,
		Data:    data,
	}
	if err := l.runs.CreateLog(ctx, entry); err != nil {
		l.logger.WithError(err).Warn("Failed to write run log entry")
	}
}
