package importer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"prestashop-importer-service/internal/models"
)

func testImporterConfig() Config {
	return Config{
		Governor: GovernorConfig{
			AbortMinErrors:  10,
			AbortErrorRatio: 0.3,
			ProgressEvery:   3,
		},
	}
}

func newTestImporter(f *fakeFetcher, m *memStores) *Importer {
	backend := &models.PrestashopBackend{
		ID:         uuid.New(),
		TenantID:   "tenant-1",
		Name:       "Test Shop",
		StoreURL:   "https://shop.example.com",
		APIKey:     "key",
		LanguageID: "1",
	}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return New(f, m.stores(), FullCapabilities(), testImporterConfig(), backend, uuid.New(), logger)
}

func idListXML(container, tag string, ids ...string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?><prestashop><` + container + `>`)
	for _, id := range ids {
		sb.WriteString(fmt.Sprintf(`<%s id="%s"/>`, tag, id))
	}
	sb.WriteString(`</` + container + `></prestashop>`)
	return sb.String()
}

func customerXML(id, email, firstname, lastname string) string {
	return fmt.Sprintf(`<?xml version="1.0"?><prestashop><customer>
<id>%s</id><email>%s</email><firstname>%s</firstname><lastname>%s</lastname><active>1</active>
</customer></prestashop>`, id, email, firstname, lastname)
}

func addressXML(id, alias, street, zip, city string) string {
	return fmt.Sprintf(`<?xml version="1.0"?><prestashop><address>
<id>%s</id><alias>%s</alias><address1>%s</address1><postcode>%s</postcode><city>%s</city><phone>123</phone>
</address></prestashop>`, id, alias, street, zip, city)
}

func categoryXML(id, name, parent string) string {
	return fmt.Sprintf(`<?xml version="1.0"?><prestashop><category>
<id>%s</id><id_parent>%s</id_parent>
<name><language id="1">%s</language></name>
</category></prestashop>`, id, parent, name)
}

func productXML(id, name, reference, price, wholesale, weight, ptype, defaultCategory string, categoryIDs, imageIDs []string) string {
	var cats, imgs strings.Builder
	for _, c := range categoryIDs {
		cats.WriteString(fmt.Sprintf(`<category><id>%s</id></category>`, c))
	}
	for _, im := range imageIDs {
		imgs.WriteString(fmt.Sprintf(`<image><id>%s</id></image>`, im))
	}
	return fmt.Sprintf(`<?xml version="1.0"?><prestashop><product>
<id>%s</id><reference>%s</reference><price>%s</price><wholesale_price>%s</wholesale_price>
<weight>%s</weight><type>%s</type><active>1</active><id_category_default>%s</id_category_default>
<name><language id="1">%s</language></name>
<description><language id="1">desc</language></description>
<associations>
<categories>%s</categories>
<images>%s</images>
</associations>
</product></prestashop>`, id, reference, price, wholesale, weight, ptype, defaultCategory, name, cats.String(), imgs.String())
}

func groupXML(id, name, reduction string) string {
	return fmt.Sprintf(`<?xml version="1.0"?><prestashop><group>
<id>%s</id><reduction>%s</reduction>
<name><language id="1">%s</language></name>
</group></prestashop>`, id, reduction, name)
}

func stockListXML(ids ...string) string {
	return idListXML("stock_availables", "stock_available", ids...)
}

func stockDetailXML(id, productID, quantity string) string {
	return fmt.Sprintf(`<?xml version="1.0"?><prestashop><stock_available>
<id>%s</id><id_product>%s</id_product><quantity>%s</quantity>
</stock_available></prestashop>`, id, productID, quantity)
}
