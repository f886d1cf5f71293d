package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Schema version names. The spreadsheet contract is positional, so each
// historical layout gets an explicit version instead of hard-coded indexes.
const (
	SchemaV3 = "v3"
	SchemaV5 = "v5"
	SchemaV7 = "v7"
)

// Column binds a sheet column name to the resolver that produces its cell.
type Column struct {
	Name    string
	Resolve func(data map[string]any) string
}

// Schema is the ordered column layout selected at startup. Order is the wire
// contract with the row store.
type Schema struct {
	Version string
	Columns []Column
}

// Options tunes resolver behavior without changing the column layout.
type Options struct {
	// LegacyTimeOffset enables the historical extra -3h subtraction in the
	// start-time column. See FormatStartTime.
	LegacyTimeOffset bool
}

// NewSchema returns the column layout for a version:
//
//	v3: vistoriador, locatario, dataHoraInicio
//	v5: v3 + endereco, tipoVistoria
//	v7: categoria prepended, then vistoriador, locatario, dataHoraInicio,
//	    endereco, followed by email and metragem from the observacao field
func NewSchema(version string, opts Options) (Schema, error) {
	inspector := Column{
		Name: "vistoriador",
		Resolve: func(d map[string]any) string {
			return firstNonEmpty(stringAt(d, "vistoriador.nome"), NotInformed)
		},
	}
	tenant := Column{
		Name: "locatario",
		Resolve: func(d map[string]any) string {
			return firstNonEmpty(
				stringAt(d, "locatario"),
				stringAt(d, "locatário"), // pre-2023 payloads kept the diacritic
				stringAt(d, "nomeContato"),
				NotInformed,
			)
		},
	}
	start := Column{
		Name: "dataHoraInicio",
		Resolve: func(d map[string]any) string {
			return FormatStartTime(stringAt(d, "dataHoraInicio"), opts.LegacyTimeOffset)
		},
	}
	address := Column{
		Name: "endereco",
		Resolve: func(d map[string]any) string {
			return ComposeAddress(propertyAddressAt(d))
		},
	}
	inspectionType := Column{
		Name: "tipoVistoria",
		Resolve: func(d map[string]any) string {
			return firstNonEmpty(stringAt(d, "tipoVistoria.id"), NotInformed)
		},
	}
	category := Column{
		Name: "categoria",
		Resolve: func(d map[string]any) string {
			return DecomposeObservation(stringAt(d, "observacao")).Category
		},
	}
	email := Column{
		Name: "email",
		Resolve: func(d map[string]any) string {
			return DecomposeObservation(stringAt(d, "observacao")).Email
		},
	}
	area := Column{
		Name: "metragem",
		Resolve: func(d map[string]any) string {
			return DecomposeObservation(stringAt(d, "observacao")).Measurement
		},
	}

	switch version {
	case SchemaV3:
		return Schema{Version: version, Columns: []Column{inspector, tenant, start}}, nil
	case SchemaV5:
		return Schema{Version: version, Columns: []Column{inspector, tenant, start, address, inspectionType}}, nil
	case SchemaV7:
		return Schema{Version: version, Columns: []Column{category, inspector, tenant, start, address, email, area}}, nil
	default:
		return Schema{}, fmt.Errorf("unknown schema version %q", version)
	}
}

// ColumnNames returns the ordered column names, useful for logging and for
// seeding a header row.
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}

// RowKey produces a deterministic short key from the rendered row. A webhook
// re-delivery renders the identical row, so hashing the cells recognizes a
// repeat without keeping payloads around.
func RowKey(row Row) string {
	hash := sha256.Sum256([]byte(strings.Join(row, "|")))
	return hex.EncodeToString(hash[:8])
}
