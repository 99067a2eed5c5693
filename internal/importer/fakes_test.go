package importer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"prestashop-importer-service/internal/models"
	"prestashop-importer-service/internal/repository"
)

// fakeFetcher serves canned webservice bodies from maps
type fakeFetcher struct {
	mu      sync.Mutex
	lists   map[string]string            // resource -> body
	details map[string]string            // "resource/id" -> body
	aux     map[string]string            // "resource?query" or "resource/id" -> body
	images  map[string]fakeImage         // url -> payload
	errs    map[string]error             // any key -> forced error
	calls   []string
}

type fakeImage struct {
	data        []byte
	contentType string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		lists:   make(map[string]string),
		details: make(map[string]string),
		aux:     make(map[string]string),
		images:  make(map[string]fakeImage),
		errs:    make(map[string]error),
	}
}

func (f *fakeFetcher) record(key string) {
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()
}

func (f *fakeFetcher) FetchList(ctx context.Context, resource string, params url.Values) ([]byte, error) {
	f.record("list:" + resource)
	if err := f.errs["list:"+resource]; err != nil {
		return nil, err
	}
	return []byte(f.lists[resource]), nil
}

func (f *fakeFetcher) FetchDetail(ctx context.Context, resource, id string) ([]byte, error) {
	key := resource + "/" + id
	f.record("detail:" + key)
	if err := f.errs["detail:"+key]; err != nil {
		return nil, err
	}
	body, ok := f.details[key]
	if !ok {
		return nil, fmt.Errorf("no canned detail for %s", key)
	}
	return []byte(body), nil
}

func (f *fakeFetcher) FetchAux(ctx context.Context, resource string, params url.Values) ([]byte, error) {
	key := resource + "?" + params.Encode()
	f.record("aux:" + key)
	if err := f.errs["aux:"+key]; err != nil {
		return nil, err
	}
	return []byte(f.aux[key]), nil
}

func (f *fakeFetcher) FetchAuxDetail(ctx context.Context, resource, id string) ([]byte, error) {
	key := resource + "/" + id
	f.record("auxdetail:" + key)
	if err := f.errs["auxdetail:"+key]; err != nil {
		return nil, err
	}
	body, ok := f.aux[key]
	if !ok {
		return nil, fmt.Errorf("no canned aux detail for %s", key)
	}
	return []byte(body), nil
}

func (f *fakeFetcher) FetchImage(ctx context.Context, rawURL string, withAuth bool) ([]byte, string, error) {
	f.record("image:" + rawURL)
	if err := f.errs["image:"+rawURL]; err != nil {
		return nil, "", err
	}
	img, ok := f.images[rawURL]
	if !ok {
		return nil, "", fmt.Errorf("no canned image for %s", rawURL)
	}
	return img.data, img.contentType, nil
}

func (f *fakeFetcher) DirectImageURL(imageID string) string {
	return "direct/" + imageID
}

func (f *fakeFetcher) APIImageURL(productID, imageID string) string {
	return "api/" + productID + "/" + imageID
}

// memStores is an in-memory implementation of the target repositories
type memStores struct {
	mu sync.Mutex

	partners   []*models.Partner
	categories []*models.ProductCategory
	products   []*models.Product
	imagesRows []*models.ProductImage
	stock      map[uuid.UUID]float64
	pricelists []*models.Pricelist
	rules      []*models.PricelistRule

	runLogs  []*models.ImportRunLog
	counters models.Counters

	partnerCreateErr  error
	productCreateErr  error
	categoryCreateErr error
}

func newMemStores() *memStores {
	return &memStores{stock: make(map[uuid.UUID]float64)}
}

func (m *memStores) stores() Stores {
	return Stores{
		Partners:   (*memPartners)(m),
		Categories: (*memCategories)(m),
		Products:   (*memProducts)(m),
		Pricelists: (*memPricelists)(m),
		Runs:       (*memRuns)(m),
	}
}

func (m *memStores) logsWithLevel(level string) []*models.ImportRunLog {
	var out []*models.ImportRunLog
	for _, l := range m.runLogs {
		if l.Level == level {
			out = append(out, l)
		}
	}
	return out
}

func (m *memStores) hasLogContaining(substr string) bool {
	for _, l := range m.runLogs {
		if strings.Contains(l.Message, substr) {
			return true
		}
	}
	return false
}

type memPartners memStores

var _ repository.PartnerRepositoryInterface = (*memPartners)(nil)

func (m *memPartners) Create(ctx context.Context, partner *models.Partner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.partnerCreateErr != nil {
		return m.partnerCreateErr
	}
	if partner.ID == uuid.Nil {
		partner.ID = uuid.New()
	}
	m.partners = append(m.partners, partner)
	return nil
}

func (m *memPartners) GetByEmail(ctx context.Context, tenantID, email string) (*models.Partner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.partners {
		if p.ParentID == nil && p.TenantID == tenantID && p.Email == email {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memPartners) FindChildAddress(ctx context.Context, parentID uuid.UUID, street, zip, city string) (*models.Partner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.partners {
		if p.ParentID != nil && *p.ParentID == parentID && p.Street == street && p.Zip == zip && p.City == city {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memPartners) GetChildrenByTypes(ctx context.Context, parentID uuid.UUID, types []models.AddressType) ([]models.Partner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Partner
	for _, p := range m.partners {
		if p.ParentID == nil || *p.ParentID != parentID {
			continue
		}
		for _, t := range types {
			if p.AddressType == t {
				out = append(out, *p)
				break
			}
		}
	}
	return out, nil
}

type memCategories memStores

var _ repository.CategoryRepositoryInterface = (*memCategories)(nil)

func (m *memCategories) Create(ctx context.Context, category *models.ProductCategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.categoryCreateErr != nil {
		return m.categoryCreateErr
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	m.categories = append(m.categories, category)
	return nil
}

func (m *memCategories) GetByPrestashopID(ctx context.Context, tenantID, prestashopID string) (*models.ProductCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.TenantID == tenantID && c.PrestashopID == prestashopID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCategories) GetByName(ctx context.Context, tenantID, name string) (*models.ProductCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.TenantID == tenantID && c.Name == name {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCategories) Update(ctx context.Context, category *models.ProductCategory) error {
	return nil
}

type memProducts memStores

var _ repository.ProductRepositoryInterface = (*memProducts)(nil)

func (m *memProducts) Create(ctx context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.productCreateErr != nil {
		return m.productCreateErr
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	m.products = append(m.products, product)
	return nil
}

func (m *memProducts) GetByPrestashopID(ctx context.Context, tenantID, prestashopID string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.TenantID == tenantID && p.PrestashopID == prestashopID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memProducts) GetBySKU(ctx context.Context, tenantID, sku string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.TenantID == tenantID && p.SKU == sku {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memProducts) GetByName(ctx context.Context, tenantID, name string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.TenantID == tenantID && p.Name == name {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memProducts) CreateImage(ctx context.Context, image *models.ProductImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if image.ID == uuid.Nil {
		image.ID = uuid.New()
	}
	m.imagesRows = append(m.imagesRows, image)
	return nil
}

func (m *memProducts) UpsertStock(ctx context.Context, productID uuid.UUID, quantity float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[productID] = quantity
	return nil
}

type memPricelists memStores

var _ repository.PricelistRepositoryInterface = (*memPricelists)(nil)

func (m *memPricelists) Create(ctx context.Context, pricelist *models.Pricelist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pricelist.ID == uuid.Nil {
		pricelist.ID = uuid.New()
	}
	m.pricelists = append(m.pricelists, pricelist)
	return nil
}

func (m *memPricelists) GetByName(ctx context.Context, tenantID, name string) (*models.Pricelist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pricelists {
		if p.TenantID == tenantID && p.Name == name {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memPricelists) GetByGroupID(ctx context.Context, tenantID, groupID string) (*models.Pricelist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pricelists {
		if p.TenantID == tenantID && p.PrestashopGroupID == groupID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memPricelists) CreateRule(ctx context.Context, rule *models.PricelistRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rule)
	return nil
}

type memRuns memStores

var _ repository.RunRepositoryInterface = (*memRuns)(nil)

func (m *memRuns) CreateRun(ctx context.Context, run *models.ImportRun) error { return nil }

func (m *memRuns) GetRunByID(ctx context.Context, id uuid.UUID) (*models.ImportRun, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *memRuns) ListRuns(ctx context.Context, opts repository.RunListOptions) ([]models.ImportRun, int64, error) {
	return nil, 0, nil
}

func (m *memRuns) UpdateRun(ctx context.Context, run *models.ImportRun) error { return nil }

func (m *memRuns) UpdateRunState(ctx context.Context, id uuid.UUID, state models.RunState, errorMessage string) error {
	return nil
}

func (m *memRuns) UpdateRunCounters(ctx context.Context, id uuid.UUID, counters models.Counters) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = counters
	return nil
}

func (m *memRuns) UpdateRunReport(ctx context.Context, id uuid.UUID, report models.JSONB) error {
	return nil
}

func (m *memRuns) GetActiveRuns(ctx context.Context, backendID uuid.UUID, entity models.EntityType) ([]models.ImportRun, error) {
	return nil, nil
}

func (m *memRuns) CreateLog(ctx context.Context, log *models.ImportRunLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runLogs = append(m.runLogs, log)
	return nil
}

func (m *memRuns) GetRunLogs(ctx context.Context, runID uuid.UUID, opts repository.LogListOptions) ([]models.ImportRunLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ImportRunLog
	for _, l := range m.runLogs {
		out = append(out, *l)
	}
	return out, nil
}
