package domain

import "fmt"

// Mapper turns decoded payloads into rows under a fixed schema. Mapping is
// pure: the same payload always renders the same row.
type Mapper struct {
	schema   Schema
	required []string
	strict   bool
}

// NewMapper creates a Mapper. required lists dotted payload paths that must
// resolve non-empty when strict is true; lenient deployments pass
// strict=false and get sentinels instead of validation failures.
func NewMapper(schema Schema, required []string, strict bool) *Mapper {
	return &Mapper{schema: schema, required: required, strict: strict}
}

// Schema returns the active column layout.
func (m *Mapper) Schema() Schema {
	return m.schema
}

// Map validates and renders one payload into a Row.
//
// It fails with ErrUnsupportedEvent on a foreign discriminator, with
// *MissingFieldError on the first unresolved required path (strict mode
// only), and with *MappingError if a resolver fails unexpectedly. Every cell
// in a returned row is a non-empty display string.
func (m *Mapper) Map(p Payload) (Row, error) {
	if p.Event != EventNewAppointment {
		return nil, ErrUnsupportedEvent
	}

	if m.strict {
		for _, path := range m.required {
			if stringAt(p.Data, path) == "" {
				return nil, &MissingFieldError{Path: path}
			}
		}
	}

	row := make(Row, len(m.schema.Columns))
	for i, col := range m.schema.Columns {
		cell, err := resolveCell(col, p.Data)
		if err != nil {
			return nil, err
		}
		row[i] = cell
	}
	return row, nil
}

// resolveCell runs one column resolver, converting a panic into a
// MappingError so a malformed payload shape cannot take down the endpoint.
func resolveCell(col Column, data map[string]any) (cell string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &MappingError{Column: col.Name, Cause: fmt.Errorf("%v", r)}
		}
	}()

	cell = col.Resolve(data)
	if cell == "" {
		cell = NotInformed
	}
	return cell, nil
}
