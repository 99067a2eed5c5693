package prestashop

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// node is a generic XML tree node. The 1.6 webservice has no schema worth
// generating structs for; field sets vary by shop configuration.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nodes   []node     `xml:",any"`
}

func (n *node) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// Record is one decoded webservice resource: its foreign id plus a field map.
// Multilingual fields keep every language variant; associations keep child ids.
type Record struct {
	ID     string
	fields map[string]string
	multi  map[string]map[string]string
	assoc  map[string][]string
}

// Get returns a plain field value, "" when absent.
func (r Record) Get(field string) string {
	return r.fields[field]
}

// Lang returns a multilingual field value for the given language id. Falls
// back to the first non-empty variant, then to the plain field value, then "".
func (r Record) Lang(field, languageID string) string {
	variants, ok := r.multi[field]
	if !ok {
		return r.fields[field]
	}
	if v := variants[languageID]; v != "" {
		return v
	}
	for _, v := range variants {
		if v != "" {
			return v
		}
	}
	return ""
}

// Float coerces a field to float64. Returns (0, false) when the text is not
// numeric so the caller can log a data-quality warning instead of failing.
func (r Record) Float(field string) (float64, bool) {
	raw := strings.TrimSpace(r.fields[field])
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Associations returns the child ids of a named association block, e.g. the
// category ids under <associations><categories>.
func (r Record) Associations(name string) []string {
	return r.assoc[name]
}

// ParseRecords decodes a webservice response and returns every element named
// tag as a Record. A structurally valid body with no matching elements yields
// an empty slice, not an error.
func ParseRecords(body []byte, tag string) ([]Record, error) {
	var root node
	if err := xml.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", tag, err)
	}

	records := []Record{}
	collect(&root, tag, func(n *node) {
		records = append(records, buildRecord(n))
	})
	return records, nil
}

// ParseIDList decodes a list response that carries only ids, either as an id
// attribute on each element or as an <id> child.
func ParseIDList(body []byte, tag string) ([]string, error) {
	var root node
	if err := xml.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("decoding %s list: %w", tag, err)
	}

	ids := []string{}
	collect(&root, tag, func(n *node) {
		if id := n.attr("id"); id != "" {
			ids = append(ids, id)
			return
		}
		for i := range n.Nodes {
			if n.Nodes[i].XMLName.Local == "id" {
				if id := strings.TrimSpace(n.Nodes[i].Content); id != "" {
					ids = append(ids, id)
				}
				return
			}
		}
	})
	return ids, nil
}

// collect walks the tree depth-first and calls fn on every node named tag.
// Matched nodes are not descended into.
func collect(n *node, tag string, fn func(*node)) {
	for i := range n.Nodes {
		child := &n.Nodes[i]
		if child.XMLName.Local == tag {
			fn(child)
			continue
		}
		collect(child, tag, fn)
	}
}

func buildRecord(n *node) Record {
	rec := Record{
		ID:     n.attr("id"),
		fields: make(map[string]string),
		multi:  make(map[string]map[string]string),
		assoc:  make(map[string][]string),
	}

	for i := range n.Nodes {
		field := &n.Nodes[i]
		name := field.XMLName.Local

		if name == "associations" {
			for j := range field.Nodes {
				group := &field.Nodes[j]
				for k := range group.Nodes {
					member := &group.Nodes[k]
					if id := memberID(member); id != "" {
						rec.assoc[group.XMLName.Local] = append(rec.assoc[group.XMLName.Local], id)
					}
				}
			}
			continue
		}

		if langs := languageVariants(field); langs != nil {
			rec.multi[name] = langs
			continue
		}

		rec.fields[name] = strings.TrimSpace(field.Content)
		if name == "id" && rec.ID == "" {
			rec.ID = strings.TrimSpace(field.Content)
		}
	}
	return rec
}

// languageVariants returns the language-id → value map of a multilingual
// field wrapper, or nil when the field has no <language> children.
func languageVariants(field *node) map[string]string {
	var langs map[string]string
	for i := range field.Nodes {
		child := &field.Nodes[i]
		if child.XMLName.Local != "language" {
			continue
		}
		if langs == nil {
			langs = make(map[string]string)
		}
		langs[child.attr("id")] = strings.TrimSpace(child.Content)
	}
	return langs
}

func memberID(member *node) string {
	if id := member.attr("id"); id != "" {
		return id
	}
	for i := range member.Nodes {
		if member.Nodes[i].XMLName.Local == "id" {
			return strings.TrimSpace(member.Nodes[i].Content)
		}
	}
	return strings.TrimSpace(member.Content)
}
