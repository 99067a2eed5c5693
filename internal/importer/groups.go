package importer

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"prestashop-importer-service/internal/clients/prestashop"
	"prestashop-importer-service/internal/models"
)

// pricelistPrefix marks imported customer groups in the pricelist listing
const pricelistPrefix = "Prestashop - "

// ImportGroups pulls customer groups and materializes each as a pricelist
// with a percentage-discount rule.
func (i *Importer) ImportGroups(ctx context.Context) (models.Counters, Outcome, error) {
	gov := NewGovernor(i.config.Governor)

	ids, err := i.listIDs(ctx, "groups", "group")
	if err != nil {
		return gov.Counters(), OutcomeCompleted, err
	}
	gov.SetTotal(len(ids))
	i.runLog.Info(ctx, fmt.Sprintf("Found %d customer groups to process", len(ids)), nil)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return gov.Counters(), OutcomeCompleted, err
		}

		if err := i.importGroup(ctx, id, gov); err != nil {
			gov.RecordError()
			i.runLog.Error(ctx, "Customer group import failed", models.JSONB{
				"group_id": id,
				"error":    err.Error(),
			})
		}

		if gov.ShouldAbort() {
			i.persistProgress(ctx, gov)
			return gov.Counters(), OutcomeAborted, nil
		}
		if gov.ShouldLogProgress() {
			i.logProgress(ctx, gov, "groups")
		}
		if err := sleep(ctx, i.config.GroupDelay); err != nil {
			return gov.Counters(), OutcomeCompleted, err
		}
	}

	i.persistProgress(ctx, gov)
	return gov.Counters(), OutcomeCompleted, nil
}

func (i *Importer) importGroup(ctx context.Context, id string, gov *Governor) error {
	body, err := i.fetcher.FetchDetail(ctx, "groups", id)
	if err != nil {
		return err
	}
	records, err := prestashop.ParseRecords(body, "group")
	if err != nil || len(records) == 0 {
		return &prestashop.MalformedResponseError{URL: "groups/" + id, Err: err}
	}
	rec := records[0]

	groupName := rec.Lang("name", i.backend.LanguageID)
	if groupName == "" {
		gov.RecordSkipped()
		i.runLog.Warn(ctx, "Customer group has no name, skipping", models.JSONB{"group_id": id})
		return nil
	}
	name := pricelistPrefix + groupName

	if _, err := i.stores.Pricelists.GetByGroupID(ctx, i.backend.TenantID, id); err == nil {
		gov.RecordSkipped()
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("pricelist lookup by group: %w", err)
	}
	if _, err := i.stores.Pricelists.GetByName(ctx, i.backend.TenantID, name); err == nil {
		gov.RecordSkipped()
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("pricelist lookup by name: %w", err)
	}

	pricelist := &models.Pricelist{
		TenantID:          i.backend.TenantID,
		Name:              name,
		Active:            true,
		PrestashopGroupID: id,
	}
	if err := i.stores.Pricelists.Create(ctx, pricelist); err != nil {
		return fmt.Errorf("creating pricelist: %w", err)
	}

	discount, ok := rec.Float("reduction")
	if !ok && rec.Get("reduction") != "" {
		i.runLog.Warn(ctx, "Non-numeric group reduction, using 0", models.JSONB{
			"group_id": id,
			"value":    rec.Get("reduction"),
		})
	}
	if discount > 0 {
		rule := &models.PricelistRule{
			PricelistID:     pricelist.ID,
			DiscountPercent: discount,
			AppliedOn:       "all",
		}
		if err := i.stores.Pricelists.CreateRule(ctx, rule); err != nil {
			i.runLog.Warn(ctx, "Pricelist rule creation failed", models.JSONB{
				"group_id": id,
				"error":    err.Error(),
			})
		}
	}

	gov.RecordImported()
	return nil
}
