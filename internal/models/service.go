package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Service is a government offering with a fee and a required-answer schema.
type Service struct {
	ID             string         `db:"id" json:"id"`
	DepartmentID   string         `db:"department_id" json:"department_id"`
	DepartmentName string         `db:"department_name" json:"department_name,omitempty"`
	Name           string         `db:"name" json:"name"`
	Description    string         `db:"description" json:"description"`
	Fee            float64        `db:"fee" json:"fee"`
	RequiredFields RequiredFields `db:"required_fields" json:"required_fields"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// ServiceFilter narrows service listings.
type ServiceFilter struct {
	DepartmentID string
	Search       string
}

// FieldDescriptor describes one answer a citizen must supply.
type FieldDescriptor struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// RequiredFields is the ordered descriptor list stored as jsonb.
type RequiredFields []FieldDescriptor

var fieldNameCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// FieldName derives a stable answer key from a free-form label.
func FieldName(label string) string {
	name := fieldNameCleaner.ReplaceAllString(strings.ToLower(strings.TrimSpace(label)), "_")
	return strings.Trim(name, "_")
}

// ParseRequiredFields accepts the legacy comma separated form ("Full name, Passport number").
// Every parsed field is required.
func ParseRequiredFields(raw string) RequiredFields {
	fields := RequiredFields{}
	for _, part := range strings.Split(raw, ",") {
		label := strings.TrimSpace(part)
		if label == "" {
			continue
		}
		fields = append(fields, FieldDescriptor{Name: FieldName(label), Label: label, Required: true})
	}
	return fields.normalize()
}

// Names lists the descriptor names in order.
func (f RequiredFields) Names() []string {
	names := make([]string, len(f))
	for i, d := range f {
		names[i] = d.Name
	}
	return names
}

// Lookup finds a descriptor by name.
func (f RequiredFields) Lookup(name string) (FieldDescriptor, bool) {
	for _, d := range f {
		if d.Name == name {
			return d, true
		}
	}
	return FieldDescriptor{}, false
}

// Validate checks descriptor names are present and unique.
func (f RequiredFields) Validate() error {
	seen := make(map[string]struct{}, len(f))
	for _, d := range f {
		if d.Name == "" {
			return fmt.Errorf("field %q has no usable name", d.Label)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("duplicate field %q", d.Name)
		}
		seen[d.Name] = struct{}{}
	}
	return nil
}

func (f RequiredFields) normalize() RequiredFields {
	out := make(RequiredFields, 0, len(f))
	for _, d := range f {
		d.Label = strings.TrimSpace(d.Label)
		d.Name = strings.TrimSpace(d.Name)
		if d.Name == "" {
			d.Name = FieldName(d.Label)
		}
		if d.Label == "" {
			d.Label = d.Name
		}
		out = append(out, d)
	}
	return out
}

// UnmarshalJSON accepts a descriptor list, a list of labels or a comma separated string.
func (f *RequiredFields) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*f = RequiredFields{}
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*f = ParseRequiredFields(raw)
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("required_fields must be a list or a comma separated string: %w", err)
	}
	out := make(RequiredFields, 0, len(items))
	for _, item := range items {
		var label string
		if err := json.Unmarshal(item, &label); err == nil {
			if strings.TrimSpace(label) != "" {
				out = append(out, FieldDescriptor{Label: label, Required: true})
			}
			continue
		}
		var d FieldDescriptor
		if err := json.Unmarshal(item, &d); err != nil {
			return fmt.Errorf("invalid field descriptor: %w", err)
		}
		out = append(out, d)
	}
	*f = out.normalize()
	return nil
}

// Value implements driver.Valuer.
func (f RequiredFields) Value() (driver.Value, error) {
	if f == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]FieldDescriptor(f))
}

// Scan implements sql.Scanner.
func (f *RequiredFields) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*f = RequiredFields{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported required_fields type %T", src)
	}
	return f.UnmarshalJSON(data)
}
