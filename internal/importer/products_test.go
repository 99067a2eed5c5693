package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prestashop-importer-service/internal/models"
)

func cannedProduct(f *fakeFetcher, id string) {
	f.details["products/"+id] = productXML(id, "Product "+id, "SKU-"+id, "10.00", "5.00", "0.5", "standard", "", nil, nil)
	f.aux["stock_availables?filter%5Bid_product%5D="+id] = stockListXML()
}

func TestImportProductsCreatesProduct(t *testing.T) {
	f := newFakeFetcher()
	m := newMemStores()

	f.lists["products"] = idListXML("products", "product", "8860")
	f.details["products/8860"] = productXML("8860", "Printed Dress", "DEMO-1", "26.00", "12.50", "0.3", "standard", "5", []string{"5", "7"}, nil)
	f.aux["categories/5"] = categoryXML("5", "Dresses", "2")
	f.aux["categories/7"] = categoryXML("7", "Summer", "2")
	f.aux["stock_availables?filter%5Bid_product%5D=8860"] = stockListXML()

	counters, outcome, err := newTestImporter(f, m).ImportProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)
	assert.Equal(t, 1, counters.Imported)

	require.Len(t, m.products, 1)
	p := m.products[0]
	assert.Equal(t, "Printed Dress", p.Name)
	assert.Equal(t, "DEMO-1", p.SKU)
	assert.InDelta(t, 26.00, p.ListPrice, 0.001)
	assert.InDelta(t, 12.50, p.StandardPrice, 0.001)
	assert.Equal(t, models.ProductGoods, p.Type)
	assert.Equal(t, "Imported from Prestashop (ID: 8860)", p.Comment)

	// Default category resolved and assigned
	require.NotNil(t, p.CategoryID)
	var defaultCat *models.ProductCategory
	for _, c := range m.categories {
		if c.PrestashopID == "5" {
			defaultCat = c
		}
	}
	require.NotNil(t, defaultCat)
	assert.Equal(t, defaultCat.ID, *p.CategoryID)
}

func TestImportProductsDuplicatePrecedence(t *testing.T) {
	f := newFakeFetcher()
	m := newMemStores()

	f.lists["products"] = idListXML("products", "product", "1", "2", "3")
	cannedProduct(f, "1")
	cannedProduct(f, "2")
	cannedProduct(f, "3")

	ctx := context.Background()
	// 1 exists by cross-reference, 2 by SKU, 3 by name
	require.NoError(t, m.stores().Products.Create(ctx, &models.Product{TenantID: "tenant-1", Name: "other", PrestashopID: "1"}))
	require.NoError(t, m.stores().Products.Create(ctx, &models.Product{TenantID: "tenant-1", Name: "another", SKU: "SKU-2"}))
	require.NoError(t, m.stores().Products.Create(ctx, &models.Product{TenantID: "tenant-1", Name: "Product 3"}))

	counters, _, err := newTestImporter(f, m).ImportProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, counters.Imported)
	assert.Equal(t, 3, counters.Skipped)
	assert.Len(t, m.products, 3)
}

func TestImportProductsNumericCoercion(t *testing.T) {
	f := newFakeFetcher()
	m := newMemStores()

	f.lists["products"] = idListXML("products", "product", "1")
	f.details["products/1"] = productXML("1", "Broken Numbers", "SKU-1", "not-a-price", "", "1,5", "standard", "", nil, nil)
	f.aux["stock_availables?filter%5Bid_product%5D=1"] = stockListXML()

	counters, _, err := newTestImporter(f, m).ImportProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counters.Imported)
	assert.Equal(t, 0, counters.Errors)

	p := m.products[0]
	assert.Zero(t, p.ListPrice)
	assert.Zero(t, p.StandardPrice)
	assert.Zero(t, p.Weight)
	// Bad values warn, empty values stay silent
	warnings := m.logsWithLevel("warning")
	assert.Len(t, warnings, 2)
}

func TestImportProductsTypeRemap(t *testing.T) {
	f := newFakeFetcher()
	m := newMemStores()

	f.lists["products"] = idListXML("products", "product", "1", "2", "3")
	f.details["products/1"] = productXML("1", "Standard", "S1", "1", "1", "1", "standard", "", nil, nil)
	f.details["products/2"] = productXML("2", "Pack", "S2", "1", "1", "1", "pack", "", nil, nil)
	f.details["products/3"] = productXML("3", "Virtual", "S3", "1", "1", "1", "virtual", "", nil, nil)
	for _, id := range []string{"1", "2", "3"} {
		f.aux["stock_availables?filter%5Bid_product%5D="+id] = stockListXML()
	}

	_, _, err := newTestImporter(f, m).ImportProducts(context.Background())
	require.NoError(t, err)

	types := map[string]models.ProductType{}
	for _, p := range m.products {
		types[p.Name] = p.Type
	}
	assert.Equal(t, models.ProductGoods, types["Standard"])
	assert.Equal(t, models.ProductGoods, types["Pack"])
	assert.Equal(t, models.ProductService, types["Virtual"])
	assert.True(t, m.hasLogContaining("Pack product imported as goods"))
}

func TestImportProductsStockUpsert(t *testing.T) {
	f := newFakeFetcher()
	m := newMemStores()

	f.lists["products"] = idListXML("products", "product", "1")
	f.details["products/1"] = productXML("1", "Stocked", "S1", "1", "1", "1", "standard", "", nil, nil)
	f.aux["stock_availables?filter%5Bid_product%5D=1"] = stockListXML("77")
	f.aux["stock_availables/77"] = stockDetailXML("77", "1", "42")

	_, _, err := newTestImporter(f, m).ImportProducts(context.Background())
	require.NoError(t, err)

	require.Len(t, m.products, 1)
	assert.InDelta(t, 42.0, m.stock[m.products[0].ID], 0.001)
}

func TestImportProductsZeroStockIgnored(t *testing.T) {
	f := newFakeFetcher()
	m := newMemStores()

	f.lists["products"] = idListXML("products", "product", "1")
	f.details["products/1"] = productXML("1", "Empty", "S1", "1", "1", "1", "standard", "", nil, nil)
	f.aux["stock_availables?filter%5Bid_product%5D=1"] = stockListXML("77")
	f.aux["stock_availables/77"] = stockDetailXML("77", "1", "0")

	_, _, err := newTestImporter(f, m).ImportProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, m.stock)
}

func TestImportProductsImageFallback(t *testing.T) {
	f := newFakeFetcher()
	m := newMemStores()

	f.lists["products"] = idListXML("products", "product", "1")
	f.details["products/1"] = productXML("1", "Pictured", "S1", "1", "1", "1", "standard", "", nil, []string{"24", "25"})
	f.aux["stock_availables?filter%5Bid_product%5D=1"] = stockListXML()

	// First image only available through the authenticated endpoint; the
	// direct URL answers with an HTML error page
	f.images["direct/24"] = fakeImage{data: []byte("<html>"), contentType: "text/html"}
	f.images["api/1/24"] = fakeImage{data: []byte{0xFF, 0xD8, 0x01}, contentType: "image/jpeg"}
	// Second image served directly
	f.images["direct/25"] = fakeImage{data: []byte{0xFF, 0xD8, 0x02}, contentType: "image/jpeg"}

	_, _, err := newTestImporter(f, m).ImportProducts(context.Background())
	require.NoError(t, err)

	require.Len(t, m.imagesRows, 2)
	assert.Equal(t, 0, m.imagesRows[0].Position)
	assert.Equal(t, "24", m.imagesRows[0].PrestashopImageID)
	assert.Equal(t, []byte{0xFF, 0xD8, 0x01}, m.imagesRows[0].Data)
	assert.Equal(t, 1, m.imagesRows[1].Position)
}

func TestImportProductsImageFailureNotFatal(t *testing.T) {
	f := newFakeFetcher()
	m := newMemStores()

	f.lists["products"] = idListXML("products", "product", "1")
	f.details["products/1"] = productXML("1", "Pictured", "S1", "1", "1", "1", "standard", "", nil, []string{"24"})
	f.aux["stock_availables?filter%5Bid_product%5D=1"] = stockListXML()
	// No canned image anywhere: both attempts fail

	counters, _, err := newTestImporter(f, m).ImportProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counters.Imported)
	assert.Equal(t, 0, counters.Errors)
	assert.Empty(t, m.imagesRows)
	assert.True(t, m.hasLogContaining("Image download failed"))
}

func TestImportProductsCreateFailureCountsOneError(t *testing.T) {
	f := newFakeFetcher()
	m := newMemStores()
	m.productCreateErr = assert.AnError

	f.lists["products"] = idListXML("products", "product", "1")
	cannedProduct(f, "1")

	counters, _, err := newTestImporter(f, m).ImportProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counters.Errors)
	assert.Equal(t, 0, counters.Imported)
}
