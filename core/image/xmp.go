package image

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// ─── XMP ─────────────────────────────────────────────────────────────────────

// rdfContainers are structural XMP elements whose text belongs to the
// enclosing property.
var rdfContainers = map[string]bool{
	"xmpmeta": true, "RDF": true, "Description": true,
	"Seq": true, "Bag": true, "Alt": true, "li": true,
}

// ParseXMP flattens an XMP packet into property/value pairs. Attribute
// properties on rdf:Description and element properties are both collected;
// array items are joined with "; ". Order follows the packet.
func ParseXMP(data []byte) []Field {
	var (
		order  []string
		values = map[string][]string{}
		stack  []string
	)
	add := func(key, val string) {
		if _, ok := values[key]; !ok {
			order = append(order, key)
		}
		values[key] = append(values[key], val)
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			for _, attr := range t.Attr {
				if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" ||
					attr.Name.Local == "about" || attr.Name.Local == "parseType" ||
					attr.Name.Local == "lang" || attr.Value == "" {
					continue
				}
				add(attr.Name.Local, attr.Value)
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			val := strings.TrimSpace(string(t))
			if val == "" {
				continue
			}
			for i := len(stack) - 1; i >= 0; i-- {
				if !rdfContainers[stack[i]] {
					add(stack[i], val)
					break
				}
			}
		}
	}

	fields := make([]Field, 0, len(order))
	for _, k := range order {
		fields = append(fields, Field{Key: k, Value: strings.Join(values[k], "; ")})
	}
	return fields
}
