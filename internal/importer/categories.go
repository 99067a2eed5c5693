package importer

import (
	"context"
	"fmt"

	"prestashop-importer-service/internal/models"
)

// ImportCategories pulls the whole category tree. Reserved technical roots
// are skipped; parents materialize before children through the resolver, so
// encounter order does not matter.
func (i *Importer) ImportCategories(ctx context.Context) (models.Counters, Outcome, error) {
	gov := NewGovernor(i.config.Governor)

	ids, err := i.listIDs(ctx, "categories", "category")
	if err != nil {
		return gov.Counters(), OutcomeCompleted, err
	}
	gov.SetTotal(len(ids))
	i.runLog.Info(ctx, fmt.Sprintf("Found %d categories to process", len(ids)), nil)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return gov.Counters(), OutcomeCompleted, err
		}

		if reservedCategoryIDs[id] {
			gov.RecordSkipped()
			continue
		}

		_, created, err := i.categories.Ensure(ctx, id, 0)
		switch {
		case err != nil:
			gov.RecordError()
			i.runLog.Error(ctx, "Category import failed", models.JSONB{
				"category_id": id,
				"error":       err.Error(),
			})
		case created:
			gov.RecordImported()
		default:
			gov.RecordSkipped()
		}

		if gov.ShouldAbort() {
			i.persistProgress(ctx, gov)
			return gov.Counters(), OutcomeAborted, nil
		}
		if gov.ShouldLogProgress() {
			i.logProgress(ctx, gov, "categories")
		}
		if err := gov.Pause(ctx); err != nil {
			return gov.Counters(), OutcomeCompleted, err
		}
	}

	i.persistProgress(ctx, gov)
	return gov.Counters(), OutcomeCompleted, nil
}
