package importer

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"gorm.io/gorm"

	"prestashop-importer-service/internal/clients/prestashop"
	"prestashop-importer-service/internal/models"
)

// ImportProducts pulls the catalog: product records plus their images and
// stock levels where the target schema supports them.
func (i *Importer) ImportProducts(ctx context.Context) (models.Counters, Outcome, error) {
	gov := NewGovernor(i.config.Governor)

	ids, err := i.listIDs(ctx, "products", "product")
	if err != nil {
		return gov.Counters(), OutcomeCompleted, err
	}
	gov.SetTotal(len(ids))
	i.runLog.Info(ctx, fmt.Sprintf("Found %d products to process", len(ids)), nil)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return gov.Counters(), OutcomeCompleted, err
		}

		if err := i.importProduct(ctx, id, gov); err != nil {
			gov.RecordError()
			i.runLog.Error(ctx, "Product import failed", models.JSONB{
				"product_id": id,
				"error":      err.Error(),
			})
		}

		if gov.ShouldAbort() {
			i.persistProgress(ctx, gov)
			return gov.Counters(), OutcomeAborted, nil
		}
		if gov.ShouldLogProgress() {
			i.logProgress(ctx, gov, "products")
		}
		if err := gov.Pause(ctx); err != nil {
			return gov.Counters(), OutcomeCompleted, err
		}
	}

	i.persistProgress(ctx, gov)
	return gov.Counters(), OutcomeCompleted, nil
}

func (i *Importer) importProduct(ctx context.Context, id string, gov *Governor) error {
	body, err := i.fetcher.FetchDetail(ctx, "products", id)
	if err != nil {
		return err
	}
	records, err := prestashop.ParseRecords(body, "product")
	if err != nil || len(records) == 0 {
		return &prestashop.MalformedResponseError{URL: "products/" + id, Err: err}
	}
	rec := records[0]

	if existing, err := i.findExistingProduct(ctx, id, rec); err != nil {
		return err
	} else if existing != nil {
		gov.RecordSkipped()
		return nil
	}

	name := rec.Lang("name", i.backend.LanguageID)
	if name == "" {
		name = "Prestashop product " + id
		i.runLog.Warn(ctx, "Product has no name", models.JSONB{"product_id": id})
	}

	product := &models.Product{
		TenantID:      i.backend.TenantID,
		Name:          name,
		SKU:           rec.Get("reference"),
		Barcode:       firstNonEmpty(rec.Get("ean13"), rec.Get("upc")),
		ListPrice:     i.coerceFloat(ctx, rec, "price", id),
		StandardPrice: i.coerceFloat(ctx, rec, "wholesale_price", id),
		Weight:        i.coerceFloat(ctx, rec, "weight", id),
		Description:   rec.Lang("description", i.backend.LanguageID),
		Type:          i.mapProductType(ctx, rec.Get("type"), id),
		Active:        rec.Get("active") != "0",
		Comment:       i.provenance(id),
		PrestashopID:  id,
		BackendRef:    i.backend.ID.String(),
	}

	categoryIDs := i.categories.Resolve(ctx, rec.Get("id_category_default"), rec.Associations("categories"))
	if len(categoryIDs) > 0 {
		product.CategoryID = &categoryIDs[0]
	}

	if err := i.stores.Products.Create(ctx, product); err != nil {
		return fmt.Errorf("creating product: %w", err)
	}
	gov.RecordImported()

	if i.caps.HasModel(models.ProductImage{}.TableName()) {
		i.importImages(ctx, product, id, rec.Associations("images"))
	}
	if i.caps.HasModel(models.StockLevel{}.TableName()) {
		if err := i.importStock(ctx, product, id); err != nil {
			i.runLog.Warn(ctx, "Stock import failed", models.JSONB{
				"product_id": id,
				"error":      err.Error(),
			})
		}
	}
	return nil
}

// findExistingProduct applies the duplicate-detection precedence:
// cross-reference first, then SKU, then exact name.
func (i *Importer) findExistingProduct(ctx context.Context, id string, rec prestashop.Record) (*models.Product, error) {
	existing, err := i.stores.Products.GetByPrestashopID(ctx, i.backend.TenantID, id)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product lookup by cross-reference: %w", err)
	}

	if sku := rec.Get("reference"); sku != "" {
		existing, err = i.stores.Products.GetBySKU(ctx, i.backend.TenantID, sku)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product lookup by SKU: %w", err)
		}
	}

	if name := rec.Lang("name", i.backend.LanguageID); name != "" {
		existing, err = i.stores.Products.GetByName(ctx, i.backend.TenantID, name)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product lookup by name: %w", err)
		}
	}
	return nil, nil
}

// coerceFloat reads a numeric field, logging a data-quality warning and
// falling back to 0 when the text is not a number.
func (i *Importer) coerceFloat(ctx context.Context, rec prestashop.Record, field, productID string) float64 {
	value, ok := rec.Float(field)
	if !ok && rec.Get(field) != "" {
		i.runLog.Warn(ctx, "Non-numeric value, using 0", models.JSONB{
			"product_id": productID,
			"field":      field,
			"value":      rec.Get(field),
		})
	}
	return value
}

// mapProductType remaps the source product type onto the local enum.
// Packs have no local equivalent and land as plain goods.
func (i *Importer) mapProductType(ctx context.Context, sourceType, productID string) models.ProductType {
	switch sourceType {
	case "standard", "":
		return models.ProductGoods
	case "pack":
		i.runLog.Info(ctx, "Pack product imported as goods", models.JSONB{"product_id": productID})
		return models.ProductGoods
	case "virtual":
		return models.ProductService
	default:
		i.runLog.Warn(ctx, "Unknown product type, importing as goods", models.JSONB{
			"product_id": productID,
			"type":       sourceType,
		})
		return models.ProductGoods
	}
}

// importStock reads the first stock_available row for the product and
// upserts the local quantity when positive.
func (i *Importer) importStock(ctx context.Context, product *models.Product, productID string) error {
	params := url.Values{}
	params.Set("filter[id_product]", productID)
	body, err := i.fetcher.FetchAux(ctx, "stock_availables", params)
	if err != nil {
		return err
	}
	ids, err := prestashop.ParseIDList(body, "stock_available")
	if err != nil {
		return &prestashop.MalformedResponseError{URL: "stock_availables", Err: err}
	}
	if len(ids) == 0 {
		return nil
	}

	detail, err := i.fetcher.FetchAuxDetail(ctx, "stock_availables", ids[0])
	if err != nil {
		return err
	}
	records, err := prestashop.ParseRecords(detail, "stock_available")
	if err != nil || len(records) == 0 {
		return &prestashop.MalformedResponseError{URL: "stock_availables/" + ids[0], Err: err}
	}

	quantity, ok := records[0].Float("quantity")
	if !ok || quantity <= 0 {
		return nil
	}
	return i.stores.Products.UpsertStock(ctx, product.ID, quantity)
}
