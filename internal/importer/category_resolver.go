package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"prestashop-importer-service/internal/clients/prestashop"
	"prestashop-importer-service/internal/models"
	"prestashop-importer-service/internal/repository"
)

// maxCategoryDepth caps parent-chain recursion. A chain deeper than this is
// either a data loop or a tree nobody can navigate; the category is created
// as a root instead.
const maxCategoryDepth = 10

// reservedCategoryIDs are PrestaShop's technical root categories, never
// imported and never used as parents.
var reservedCategoryIDs = map[string]bool{"0": true, "1": true, "2": true}

// CategoryResolver maps PrestaShop category ids onto the local tree,
// creating missing categories parent-first. Resolution is memoized for the
// lifetime of the resolver, i.e. one run.
type CategoryResolver struct {
	fetcher    Fetcher
	categories repository.CategoryRepositoryInterface
	backend    *models.PrestashopBackend
	logger     *logrus.Entry
	runLog     *RunLogger
	memo       map[string]uuid.UUID
}

// NewCategoryResolver creates a resolver for one run
func NewCategoryResolver(fetcher Fetcher, categories repository.CategoryRepositoryInterface, backend *models.PrestashopBackend, logger *logrus.Entry, runLog *RunLogger) *CategoryResolver {
	return &CategoryResolver{
		fetcher:    fetcher,
		categories: categories,
		backend:    backend,
		logger:     logger,
		runLog:     runLog,
		memo:       make(map[string]uuid.UUID),
	}
}

// Resolve maps a product's default category plus its associated categories to
// local ids, default first, remaining in encounter order. Reserved root ids
// are dropped. A category that cannot be resolved is logged and skipped
// without affecting its siblings.
func (cr *CategoryResolver) Resolve(ctx context.Context, defaultID string, associatedIDs []string) []uuid.UUID {
	ordered := make([]string, 0, len(associatedIDs)+1)
	seen := make(map[string]bool)
	for _, id := range append([]string{defaultID}, associatedIDs...) {
		if id == "" || reservedCategoryIDs[id] || seen[id] {
			continue
		}
		seen[id] = true
		ordered = append(ordered, id)
	}

	resolved := make([]uuid.UUID, 0, len(ordered))
	for _, id := range ordered {
		localID, _, err := cr.Ensure(ctx, id, 0)
		if err != nil {
			cr.runLog.Warn(ctx, "Could not resolve category", models.JSONB{
				"category_id": id,
				"error":       err.Error(),
			})
			continue
		}
		resolved = append(resolved, localID)
	}
	return resolved
}

// Ensure returns the local id for a PrestaShop category, creating it (and
// its ancestors) on first sight. The created flag is true when this call
// inserted the category itself.
func (cr *CategoryResolver) Ensure(ctx context.Context, prestashopID string, depth int) (uuid.UUID, bool, error) {
	if reservedCategoryIDs[prestashopID] {
		return uuid.Nil, false, fmt.Errorf("category %s is a reserved root", prestashopID)
	}
	if localID, ok := cr.memo[prestashopID]; ok {
		return localID, false, nil
	}

	// Cross-reference lookup first: a previous run may have imported it
	existing, err := cr.categories.GetByPrestashopID(ctx, cr.backend.TenantID, prestashopID)
	if err == nil {
		cr.memo[prestashopID] = existing.ID
		return existing.ID, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, false, fmt.Errorf("looking up category %s: %w", prestashopID, err)
	}

	body, err := cr.fetcher.FetchAuxDetail(ctx, "categories", prestashopID)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("fetching category %s: %w", prestashopID, err)
	}
	records, err := prestashop.ParseRecords(body, "category")
	if err != nil || len(records) == 0 {
		return uuid.Nil, false, &prestashop.MalformedResponseError{URL: "categories/" + prestashopID, Err: err}
	}
	rec := records[0]

	name := rec.Lang("name", cr.backend.LanguageID)
	if name == "" {
		return uuid.Nil, false, fmt.Errorf("category %s has no name", prestashopID)
	}

	// Same name already present locally: adopt it and backfill the
	// cross-reference instead of creating a duplicate.
	byName, err := cr.categories.GetByName(ctx, cr.backend.TenantID, name)
	if err == nil {
		if byName.PrestashopID == "" {
			byName.PrestashopID = prestashopID
			if uerr := cr.categories.Update(ctx, byName); uerr != nil {
				cr.logger.WithError(uerr).Warn("Failed to backfill category cross-reference")
			}
		}
		cr.memo[prestashopID] = byName.ID
		return byName.ID, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, false, fmt.Errorf("looking up category %q by name: %w", name, err)
	}

	var parentID *uuid.UUID
	parentForeign := rec.Get("id_parent")
	if parentForeign != "" && !reservedCategoryIDs[parentForeign] {
		if depth >= maxCategoryDepth {
			cr.runLog.Warn(ctx, "Category chain exceeds depth limit, creating as root", models.JSONB{
				"category_id": prestashopID,
				"name":        name,
			})
		} else if localParent, _, perr := cr.Ensure(ctx, parentForeign, depth+1); perr != nil {
			cr.runLog.Warn(ctx, "Parent category unresolved, creating as root", models.JSONB{
				"category_id": prestashopID,
				"parent_id":   parentForeign,
				"error":       perr.Error(),
			})
		} else {
			parentID = &localParent
		}
	}

	category := &models.ProductCategory{
		TenantID:     cr.backend.TenantID,
		ParentID:     parentID,
		Name:         name,
		PrestashopID: prestashopID,
	}
	if err := cr.categories.Create(ctx, category); err != nil {
		return uuid.Nil, false, fmt.Errorf("creating category %q: %w", name, err)
	}
	cr.memo[prestashopID] = category.ID
	return category.ID, true, nil
}
