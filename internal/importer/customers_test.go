package importer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prestashop-importer-service/internal/clients/prestashop"
	"prestashop-importer-service/internal/models"
)

func TestImportCustomersMixedBatch(t *testing.T) {
	f := newFakeFetcher()
	m := newMemStores()
	imp := newTestImporter(f, m)

	// Two already present, one new
	f.lists["customers"] = idListXML("customers", "customer", "1", "2", "3")
	f.details["customers/1"] = customerXML("1", "alice@example.com", "Alice", "Ames")
	f.details["customers/2"] = customerXML("2", "bob@example.com", "Bob", "Binder")
	f.details["customers/3"] = customerXML("3", "carol@example.com", "Carol", "Chase")
	f.aux["addresses?filter%5Bid_customer%5D=3"] = idListXML("addresses", "address")

	for _, email := range []string{"alice@example.com", "bob@example.com"} {
		existing := &models.Partner{TenantID: "tenant-1", Name: "x", Email: email}
		require.NoError(t, m.stores().Partners.Create(context.Background(), existing))
		// give them an invoice child so no backfill kicks in
		child := &models.Partner{TenantID: "tenant-1", ParentID: &existing.ID, Name: "inv", AddressType: models.AddressInvoice}
		require.NoError(t, m.stores().Partners.Create(context.Background(), child))
	}

	counters, outcome, err := imp.ImportCustomers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)
	assert.Equal(t, 1, counters.Imported)
	assert.Equal(t, 2, counters.Skipped)
	assert.Equal(t, 0, counters.Errors)
	assert.Equal(t, 3, counters.Processed)
}

func TestImportCustomersIsIdempotent(t *testing.T) {
	f := newFakeFetcher()
	m := newMemStores()

	f.lists["customers"] = idListXML("customers", "customer", "1")
	f.details["customers/1"] = customerXML("1", "alice@example.com", "Alice", "Ames")
	f.aux["addresses?filter%5Bid_customer%5D=1"] = idListXML("addresses", "address", "10")
	f.aux["addresses/10"] = addressXML("10", "My invoice address", "1 Main St", "1000", "Brussels")

	first, _, err := newTestImporter(f, m).ImportCustomers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Imported)

	second, _, err := newTestImporter(f, m).ImportCustomers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, 0, second.Errors)

	// Still exactly one partner and one address
	assert.Len(t, m.partners, 2)
}

func TestImportCustomersSkipsMissingEmail(t *testing.T) {
	f := newFakeFetcher()
	m := newMemStores()

	f.lists["customers"] = idListXML("customers", "customer", "1")
	f.details["customers/1"] = customerXML("1", "", "No", "Email")

	counters, _, err := newTestImporter(f, m).ImportCustomers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, counters.Imported)
	assert.Equal(t, 1, counters.Skipped)
	assert.True(t, m.hasLogContaining("no email"))
}

func TestImportCustomersErrorIsolation(t *testing.T) {
	f := newFakeFetcher()
	m := newMemStores()

	ids := make([]string, 20)
	for i := range ids {
		id := fmt.Sprintf("%d", i+1)
		ids[i] = id
		f.details["customers/"+id] = customerXML(id, fmt.Sprintf("user%s@example.com", id), "User", id)
		f.aux["addresses?filter%5Bid_customer%5D="+id] = idListXML("addresses", "address")
	}
	f.lists["customers"] = idListXML("customers", "customer", ids...)
	// One detail call fails terminally
	f.errs["detail:customers/7"] = &prestashop.HTTPStatusError{Code: 500, URL: "customers/7"}

	counters, outcome, err := newTestImporter(f, m).ImportCustomers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)
	assert.Equal(t, 20, counters.Processed)
	assert.Equal(t, 19, counters.Imported)
	assert.Equal(t, 1, counters.Errors)
}

func TestImportCustomersAddressTypes(t *testing.T) {
	f := newFakeFetcher()
	m := newMemStores()

	f.lists["customers"] = idListXML("customers", "customer", "1")
	f.details["customers/1"] = customerXML("1", "alice@example.com", "Alice", "Ames")
	f.aux["addresses?filter%5Bid_customer%5D=1"] = idListXML("addresses", "address", "10", "11", "12")
	f.aux["addresses/10"] = addressXML("10", "Invoice", "1 Main St", "1000", "Brussels")
	f.aux["addresses/11"] = addressXML("11", "Delivery point", "2 Side St", "2000", "Antwerp")
	f.aux["addresses/12"] = addressXML("12", "Home", "3 Back St", "3000", "Ghent")

	_, _, err := newTestImporter(f, m).ImportCustomers(context.Background())
	require.NoError(t, err)

	types := map[string]models.AddressType{}
	for _, p := range m.partners {
		if p.ParentID != nil {
			types[p.Street] = p.AddressType
		}
	}
	assert.Equal(t, models.AddressInvoice, types["1 Main St"])
	assert.Equal(t, models.AddressDelivery, types["2 Side St"])
	assert.Equal(t, models.AddressContact, types["3 Back St"])
}

func TestImportCustomersBackfillsAddresses(t *testing.T) {
	f := newFakeFetcher()
	m := newMemStores()
	imp := newTestImporter(f, m)

	// Existing partner without invoice/delivery children
	existing := &models.Partner{TenantID: "tenant-1", Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, m.stores().Partners.Create(context.Background(), existing))

	f.lists["customers"] = idListXML("customers", "customer", "1")
	f.details["customers/1"] = customerXML("1", "alice@example.com", "Alice", "Ames")
	f.aux["addresses?filter%5Bid_customer%5D=1"] = idListXML("addresses", "address", "10")
	f.aux["addresses/10"] = addressXML("10", "Invoice", "1 Main St", "1000", "Brussels")

	counters, _, err := imp.ImportCustomers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counters.Skipped)

	// The address was created under the existing partner
	require.Len(t, m.partners, 2)
	address := m.partners[1]
	require.NotNil(t, address.ParentID)
	assert.Equal(t, existing.ID, *address.ParentID)
	assert.Equal(t, models.AddressInvoice, address.AddressType)
}

func TestImportCustomersAbortsOnErrorFlood(t *testing.T) {
	f := newFakeFetcher()
	m := newMemStores()

	ids := make([]string, 50)
	for i := range ids {
		id := fmt.Sprintf("%d", i+1)
		ids[i] = id
		f.errs["detail:customers/"+id] = &prestashop.HTTPStatusError{Code: 500, URL: "customers/" + id}
	}
	f.lists["customers"] = idListXML("customers", "customer", ids...)

	counters, outcome, err := newTestImporter(f, m).ImportCustomers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeAborted, outcome)
	// Stopped at the first item crossing the threshold, not the end
	assert.Equal(t, 11, counters.Errors)
	assert.Less(t, counters.Processed, 50)
}

func TestImportCustomersListFailureIsFatal(t *testing.T) {
	f := newFakeFetcher()
	m := newMemStores()
	f.errs["list:customers"] = &prestashop.TransportError{Kind: prestashop.ErrConnection, URL: "customers", Err: errors.New("refused")}

	_, _, err := newTestImporter(f, m).ImportCustomers(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, prestashop.ErrConnection))
}

func TestImportCustomersProvenanceStamp(t *testing.T) {
	f := newFakeFetcher()
	m := newMemStores()

	f.lists["customers"] = idListXML("customers", "customer", "42")
	f.details["customers/42"] = customerXML("42", "x@example.com", "X", "Y")
	f.aux["addresses?filter%5Bid_customer%5D=42"] = idListXML("addresses", "address")

	_, _, err := newTestImporter(f, m).ImportCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, m.partners, 1)
	assert.Equal(t, "Imported from Prestashop (ID: 42)", m.partners[0].Comment)
	assert.Equal(t, "42", m.partners[0].PrestashopID)
}
