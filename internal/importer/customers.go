package importer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"gorm.io/gorm"

	"prestashop-importer-service/internal/clients/prestashop"
	"prestashop-importer-service/internal/models"
)

// ImportCustomers pulls every customer and their addresses. Customers are
// deduplicated by email; an existing customer is skipped but gets its
// addresses backfilled when none were imported before.
func (i *Importer) ImportCustomers(ctx context.Context) (models.Counters, Outcome, error) {
	gov := NewGovernor(i.config.Governor)

	ids, err := i.listIDs(ctx, "customers", "customer")
	if err != nil {
		return gov.Counters(), OutcomeCompleted, err
	}
	gov.SetTotal(len(ids))
	i.runLog.Info(ctx, fmt.Sprintf("Found %d customers to process", len(ids)), nil)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return gov.Counters(), OutcomeCompleted, err
		}

		if err := i.importCustomer(ctx, id, gov); err != nil {
			gov.RecordError()
			i.runLog.Error(ctx, "Customer import failed", models.JSONB{
				"customer_id": id,
				"error":       err.Error(),
			})
		}

		if gov.ShouldAbort() {
			i.persistProgress(ctx, gov)
			return gov.Counters(), OutcomeAborted, nil
		}
		if gov.ShouldLogProgress() {
			i.logProgress(ctx, gov, "customers")
		}
		if err := gov.Pause(ctx); err != nil {
			return gov.Counters(), OutcomeCompleted, err
		}
	}

	i.persistProgress(ctx, gov)
	return gov.Counters(), OutcomeCompleted, nil
}

func (i *Importer) importCustomer(ctx context.Context, id string, gov *Governor) error {
	body, err := i.fetcher.FetchDetail(ctx, "customers", id)
	if err != nil {
		return err
	}
	records, err := prestashop.ParseRecords(body, "customer")
	if err != nil || len(records) == 0 {
		return &prestashop.MalformedResponseError{URL: "customers/" + id, Err: err}
	}
	rec := records[0]

	email := strings.TrimSpace(strings.ToLower(rec.Get("email")))
	if email == "" {
		gov.RecordSkipped()
		i.runLog.Warn(ctx, "Customer has no email, skipping", models.JSONB{"customer_id": id})
		return nil
	}

	existing, err := i.stores.Partners.GetByEmail(ctx, i.backend.TenantID, email)
	if err == nil {
		gov.RecordSkipped()
		// Repair on read: a partner imported before address support landed
		// has no invoice or delivery children. Backfill them now.
		children, cerr := i.stores.Partners.GetChildrenByTypes(ctx, existing.ID, []models.AddressType{
			models.AddressInvoice,
			models.AddressDelivery,
		})
		if cerr == nil && len(children) == 0 {
			if aerr := i.importAddresses(ctx, existing, id); aerr != nil {
				i.runLog.Warn(ctx, "Address backfill failed", models.JSONB{
					"customer_id": id,
					"error":       aerr.Error(),
				})
			}
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("looking up customer by email: %w", err)
	}

	name := strings.TrimSpace(rec.Get("firstname") + " " + rec.Get("lastname"))
	if name == "" {
		name = email
	}

	partner := &models.Partner{
		TenantID:     i.backend.TenantID,
		Name:         name,
		Email:        email,
		AddressType:  models.AddressContact,
		Active:       rec.Get("active") != "0",
		IsCompany:    rec.Get("company") != "",
		Comment:      i.provenance(id),
		PrestashopID: id,
		BackendRef:   i.backend.ID.String(),
	}
	if err := i.stores.Partners.Create(ctx, partner); err != nil {
		return fmt.Errorf("creating partner: %w", err)
	}
	gov.RecordImported()

	if err := i.importAddresses(ctx, partner, id); err != nil {
		i.runLog.Warn(ctx, "Address import failed", models.JSONB{
			"customer_id": id,
			"error":       err.Error(),
		})
	}
	return nil
}

// importAddresses fetches a customer's addresses and creates the missing
// ones under the partner. Address failures never fail the customer.
func (i *Importer) importAddresses(ctx context.Context, parent *models.Partner, customerID string) error {
	params := url.Values{}
	params.Set("filter[id_customer]", customerID)
	body, err := i.fetcher.FetchAux(ctx, "addresses", params)
	if err != nil {
		return err
	}
	ids, err := prestashop.ParseIDList(body, "address")
	if err != nil {
		return &prestashop.MalformedResponseError{URL: "addresses", Err: err}
	}

	for _, addrID := range ids {
		if err := i.importAddress(ctx, parent, addrID); err != nil {
			i.runLog.Warn(ctx, "Skipping address", models.JSONB{
				"address_id": addrID,
				"error":      err.Error(),
			})
		}
	}
	return nil
}

func (i *Importer) importAddress(ctx context.Context, parent *models.Partner, addrID string) error {
	body, err := i.fetcher.FetchAuxDetail(ctx, "addresses", addrID)
	if err != nil {
		return err
	}
	records, err := prestashop.ParseRecords(body, "address")
	if err != nil || len(records) == 0 {
		return &prestashop.MalformedResponseError{URL: "addresses/" + addrID, Err: err}
	}
	rec := records[0]

	street := strings.TrimSpace(rec.Get("address1"))
	zip := strings.TrimSpace(rec.Get("postcode"))
	city := strings.TrimSpace(rec.Get("city"))

	if _, err := i.stores.Partners.FindChildAddress(ctx, parent.ID, street, zip, city); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("looking up address: %w", err)
	}

	name := strings.TrimSpace(rec.Get("alias"))
	if name == "" {
		name = parent.Name
	}

	address := &models.Partner{
		TenantID:     i.backend.TenantID,
		ParentID:     &parent.ID,
		Name:         name,
		Phone:        firstNonEmpty(rec.Get("phone"), rec.Get("phone_mobile")),
		Street:       street,
		Street2:      strings.TrimSpace(rec.Get("address2")),
		Zip:          zip,
		City:         city,
		AddressType:  addressTypeFromAlias(rec.Get("alias")),
		Comment:      i.provenance(addrID),
		PrestashopID: addrID,
		BackendRef:   i.backend.ID.String(),
	}
	return i.stores.Partners.Create(ctx, address)
}

// addressTypeFromAlias classifies an address by its alias text
func addressTypeFromAlias(alias string) models.AddressType {
	lower := strings.ToLower(alias)
	switch {
	case strings.Contains(lower, "invoice") || strings.Contains(lower, "billing"):
		return models.AddressInvoice
	case strings.Contains(lower, "delivery") || strings.Contains(lower, "shipping"):
		return models.AddressDelivery
	default:
		return models.AddressContact
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// listIDs fetches a collection listing and extracts the foreign ids.
// A listing failure is fatal for the run; there is nothing to iterate.
func (i *Importer) listIDs(ctx context.Context, resource, tag string) ([]string, error) {
	body, err := i.fetcher.FetchList(ctx, resource, nil)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", resource, err)
	}
	ids, err := prestashop.ParseIDList(body, tag)
	if err != nil {
		return nil, &prestashop.MalformedResponseError{URL: resource, Err: err}
	}
	return ids, nil
}

func (i *Importer) logProgress(ctx context.Context, gov *Governor, label string) {
	c := gov.Counters()
	i.runLog.Info(ctx, fmt.Sprintf("Processed %d/%d %s", c.Processed, c.Total, label), models.JSONB{
		"imported": c.Imported,
		"skipped":  c.Skipped,
		"errors":   c.Errors,
	})
	i.persistProgress(ctx, gov)
}
