package postmap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// PropertyType is the declared type of an extracted field.
type PropertyType string

// PropertyType constants.
const (
	PropertyString PropertyType = "STRING"
	PropertyImage  PropertyType = "IMAGE"
)

// Valid reports whether t is a known property type.
func (t PropertyType) Valid() bool {
	return t == PropertyString || t == PropertyImage
}

// OutputProperty declares the name and type of one extracted field.
type OutputProperty struct {
	Name string       `json:"name"`
	Type PropertyType `json:"type"`
}

// Field is one named field of an extracted record.
// Values is never a scalar: single values are stored as a one-element list.
type Field struct {
	Name   string
	Values []string
}

// Record is one row of extracted data.
// Fields keep the order in which the provider returned them.
type Record struct {
	Fields []Field
}

// NewRecord returns a record with the given fields in order.
func NewRecord(fields ...Field) Record {
	return Record{Fields: fields}
}

// Get returns the values of the named field.
func (r *Record) Get(name string) ([]string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Values, true
		}
	}
	return nil, false
}

// Set replaces the values of the named field, appending the field if absent.
func (r *Record) Set(name string, values ...string) {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			r.Fields[i].Values = values
			return
		}
	}
	r.Fields = append(r.Fields, Field{Name: name, Values: values})
}

// Len returns the number of fields in the record.
func (r *Record) Len() int {
	return len(r.Fields)
}

// MarshalJSON encodes the record as an object, preserving field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		values := f.Values
		if values == nil {
			values = []string{}
		}
		val, err := json.Marshal(values)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of field values, preserving key order.
// Scalars become one-element lists, null becomes an empty list, and
// non-string values keep their JSON text.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record: expected object, got %v", tok)
	}

	r.Fields = nil
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record: expected field name, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("record: field %q: %w", name, err)
		}

		values, err := normalizeValues(raw)
		if err != nil {
			return fmt.Errorf("record: field %q: %w", name, err)
		}
		r.Set(name, values...)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// normalizeValues converts a raw JSON value to a list of strings.
func normalizeValues(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return nil, nil
	case raw[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		values := make([]string, 0, len(items))
		for _, item := range items {
			s, err := scalarString(item)
			if err != nil {
				return nil, err
			}
			values = append(values, s)
		}
		return values, nil
	default:
		s, err := scalarString(raw)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
}

// scalarString returns the string form of a single JSON value.
// Array elements that are null map to the empty string so indexes line up.
func scalarString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return string(raw), nil
}

// ExtractionResult is the response of an extraction provider.
type ExtractionResult struct {
	Results          []Record         `json:"results"`
	OutputProperties []OutputProperty `json:"outputProperties"`
}

// PropertyType returns the declared type of the named field.
// Returns the empty type if the field is not declared.
func (r *ExtractionResult) PropertyType(name string) PropertyType {
	for _, p := range r.OutputProperties {
		if p.Name == name {
			return p.Type
		}
	}
	return ""
}

// ExtractionService extracts structured records from web pages.
type ExtractionService interface {
	// Extract runs the connector against url.
	// A nil result or an error means extraction failed.
	Extract(ctx context.Context, connectorID, url string) (*ExtractionResult, error)
}

// Field names emitted by article providers.
const (
	ArticleTitle   = "title"
	ArticleContent = "content"
	ArticleImage   = "image"
)

// ArticleProperties returns the output properties of article providers.
func ArticleProperties() []OutputProperty {
	return []OutputProperty{
		{Name: ArticleTitle, Type: PropertyString},
		{Name: ArticleContent, Type: PropertyString},
		{Name: ArticleImage, Type: PropertyImage},
	}
}

// NewArticleResult returns a single-record result for an extracted article.
// The image field is omitted when image is empty.
func NewArticleResult(title, contentHTML, image string) *ExtractionResult {
	rec := NewRecord(
		Field{Name: ArticleTitle, Values: []string{title}},
		Field{Name: ArticleContent, Values: []string{contentHTML}},
	)
	if image != "" {
		rec.Set(ArticleImage, image)
	}
	return &ExtractionResult{
		Results:          []Record{rec},
		OutputProperties: ArticleProperties(),
	}
}
