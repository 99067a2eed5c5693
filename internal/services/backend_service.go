package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"prestashop-importer-service/internal/clients/prestashop"
	"prestashop-importer-service/internal/models"
	"prestashop-importer-service/internal/repository"
)

// Prober is the slice of the webservice client connection diagnostics need
type Prober interface {
	FetchURL(ctx context.Context, rawURL string, withAuth bool) ([]byte, string, error)
	BaseURL() string
}

// ProberFactory builds a prober for one backend
type ProberFactory func(backend *models.PrestashopBackend) Prober

// BackendService handles PrestaShop backend configuration and diagnostics
type BackendService struct {
	backends  repository.BackendRepositoryInterface
	proberFor ProberFactory
	logger    *logrus.Logger
}

// NewBackendService creates a new backend service
func NewBackendService(backends repository.BackendRepositoryInterface, proberFor ProberFactory, logger *logrus.Logger) *BackendService {
	return &BackendService{
		backends:  backends,
		proberFor: proberFor,
		logger:    logger,
	}
}

// DefaultProberFactory builds a real webservice client per backend
func DefaultProberFactory(logger *logrus.Logger) ProberFactory {
	return func(backend *models.PrestashopBackend) Prober {
		return prestashop.NewClient(&prestashop.Config{
			BaseURL: backend.APIBaseURL(),
			WSKey:   backend.APIKey,
		}, logger)
	}
}

// CreateBackendRequest contains the data for registering a store
type CreateBackendRequest struct {
	TenantID   string `json:"tenantId"`
	Name       string `json:"name" binding:"required"`
	StoreURL   string `json:"storeUrl" binding:"required"`
	APIKey     string `json:"apiKey" binding:"required"`
	LanguageID string `json:"languageId"`
	CompanyRef string `json:"companyRef"`
	CreatedBy  string `json:"createdBy"`
}

// UpdateBackendRequest contains the mutable backend fields
type UpdateBackendRequest struct {
	Name       *string `json:"name"`
	StoreURL   *string `json:"storeUrl"`
	APIKey     *string `json:"apiKey"`
	LanguageID *string `json:"languageId"`
	CompanyRef *string `json:"companyRef"`
	IsEnabled  *bool   `json:"isEnabled"`
}

// Create registers a new backend
func (s *BackendService) Create(ctx context.Context, req *CreateBackendRequest) (*models.PrestashopBackend, error) {
	backend := &models.PrestashopBackend{
		ID:         uuid.New(),
		TenantID:   req.TenantID,
		Name:       req.Name,
		StoreURL:   strings.TrimSpace(req.StoreURL),
		APIKey:     strings.TrimSpace(req.APIKey),
		LanguageID: req.LanguageID,
		CompanyRef: req.CompanyRef,
		Status:     models.BackendPending,
		IsEnabled:  true,
		CreatedBy:  req.CreatedBy,
	}
	if backend.LanguageID == "" {
		backend.LanguageID = "1"
	}
	if err := backend.Validate(); err != nil {
		return nil, err
	}
	if err := s.backends.Create(ctx, backend); err != nil {
		return nil, fmt.Errorf("failed to create backend: %w", err)
	}
	return backend, nil
}

// GetByID retrieves a backend by ID
func (s *BackendService) GetByID(ctx context.Context, id uuid.UUID) (*models.PrestashopBackend, error) {
	return s.backends.GetByID(ctx, id)
}

// List retrieves backends for a tenant
func (s *BackendService) List(ctx context.Context, tenantID string, opts *repository.BackendListOptions) ([]models.PrestashopBackend, int64, error) {
	if opts == nil {
		opts = &repository.BackendListOptions{}
	}
	opts.TenantID = tenantID
	return s.backends.List(ctx, *opts)
}

// Update applies a partial update to a backend
func (s *BackendService) Update(ctx context.Context, id uuid.UUID, req *UpdateBackendRequest) (*models.PrestashopBackend, error) {
	backend, err := s.backends.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		backend.Name = *req.Name
	}
	if req.StoreURL != nil {
		backend.StoreURL = strings.TrimSpace(*req.StoreURL)
	}
	if req.APIKey != nil {
		backend.APIKey = strings.TrimSpace(*req.APIKey)
	}
	if req.LanguageID != nil {
		backend.LanguageID = *req.LanguageID
	}
	if req.CompanyRef != nil {
		backend.CompanyRef = *req.CompanyRef
	}
	if req.IsEnabled != nil {
		backend.IsEnabled = *req.IsEnabled
	}
	if err := backend.Validate(); err != nil {
		return nil, err
	}
	if err := s.backends.Update(ctx, backend); err != nil {
		return nil, fmt.Errorf("failed to update backend: %w", err)
	}
	return backend, nil
}

// Delete removes a backend
func (s *BackendService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.backends.Delete(ctx, id)
}

// ProbeStep is one stage of the connection diagnostics
type ProbeStep struct {
	Name        string `json:"name"`
	Passed      bool   `json:"passed"`
	Detail      string `json:"detail,omitempty"`
	Remediation string `json:"remediation,omitempty"`
}

// ConnectionDiagnostics is the full three-step probe result
type ConnectionDiagnostics struct {
	Success bool        `json:"success"`
	Steps   []ProbeStep `json:"steps"`
}

// TestConnection probes a backend in three stages: reachability, credential
// acceptance, and webservice permissions. Each stage carries remediation
// text; later stages are skipped once one fails.
func (s *BackendService) TestConnection(ctx context.Context, id uuid.UUID) (*ConnectionDiagnostics, error) {
	backend, err := s.backends.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := backend.Validate(); err != nil {
		return nil, err
	}

	prober := s.proberFor(backend)
	diag := &ConnectionDiagnostics{}

	steps := []func(context.Context, Prober) ProbeStep{
		s.probeReachability,
		s.probeCredentials,
		s.probePermissions,
	}
	diag.Success = true
	for _, probe := range steps {
		step := probe(ctx, prober)
		diag.Steps = append(diag.Steps, step)
		if !step.Passed {
			diag.Success = false
			break
		}
	}

	status := models.BackendConnected
	lastError := ""
	if !diag.Success {
		status = models.BackendError
		last := diag.Steps[len(diag.Steps)-1]
		lastError = last.Name + ": " + last.Detail
	}
	if uerr := s.backends.UpdateStatus(ctx, backend.ID, status, lastError); uerr != nil {
		s.logger.WithError(uerr).Warn("Failed to persist backend status")
	}

	return diag, nil
}

func (s *BackendService) probeReachability(ctx context.Context, prober Prober) ProbeStep {
	step := ProbeStep{Name: "reachability"}
	body, _, err := prober.FetchURL(ctx, prober.BaseURL(), false)

	var statusErr *prestashop.HTTPStatusError
	switch {
	case err == nil && looksLikeXML(body):
		step.Passed = true
		step.Detail = "store answered with XML"
	case errors.As(err, &statusErr):
		// The webservice answers unauthenticated calls with an XML error
		// document; any HTTP answer proves the host is reachable.
		step.Passed = true
		step.Detail = fmt.Sprintf("store reachable (HTTP %d)", statusErr.Code)
	case err != nil:
		step.Detail = err.Error()
		step.Remediation = "Check the store URL and that the shop is online and reachable from this host."
	default:
		step.Detail = "store answered but not with XML"
		step.Remediation = "The URL does not point at a PrestaShop webservice. It should look like https://shop.example.com (the /api suffix is added automatically)."
	}
	return step
}

func (s *BackendService) probeCredentials(ctx context.Context, prober Prober) ProbeStep {
	step := ProbeStep{Name: "credentials"}
	_, _, err := prober.FetchURL(ctx, prober.BaseURL(), true)

	var statusErr *prestashop.HTTPStatusError
	switch {
	case err == nil:
		step.Passed = true
		step.Detail = "webservice key accepted"
	case errors.As(err, &statusErr) && (statusErr.Code == 401 || statusErr.Code == 403):
		step.Detail = fmt.Sprintf("webservice rejected the key (HTTP %d)", statusErr.Code)
		step.Remediation = "Check the webservice key under Advanced Parameters > Webservice in the PrestaShop back office, and that the key is active."
	case errors.As(err, &statusErr) && statusErr.Code == 404:
		step.Detail = "webservice endpoint not found"
		step.Remediation = "Enable the webservice feature in the PrestaShop back office (Advanced Parameters > Webservice)."
	case err != nil:
		step.Detail = err.Error()
		step.Remediation = "The store stopped answering between probes; check its availability."
	}
	return step
}

func (s *BackendService) probePermissions(ctx context.Context, prober Prober) ProbeStep {
	step := ProbeStep{Name: "permissions"}
	body, _, err := prober.FetchURL(ctx, prober.BaseURL()+"/languages?limit=1", true)
	if err != nil {
		step.Detail = err.Error()
		step.Remediation = "Grant the webservice key GET permission on the resources to import (customers, addresses, categories, products, images, stock_availables, groups, languages)."
		return step
	}
	if _, perr := prestashop.ParseIDList(body, "language"); perr != nil {
		step.Detail = "languages listing is not valid XML"
		step.Remediation = "The webservice answered with an unexpected document; check for server-side errors or intercepting proxies."
		return step
	}
	step.Passed = true
	step.Detail = "webservice key can list resources"
	return step
}

func looksLikeXML(body []byte) bool {
	return strings.HasPrefix(strings.TrimSpace(string(body)), "<")
}
