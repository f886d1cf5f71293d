package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EventNewAppointment is the only webhook discriminator this service records.
const EventNewAppointment = "AGENDAMENTO_NOVO"

// Sentinels used wherever a field cannot be resolved. Cells are always
// non-empty display strings; absent data is sentineled, never blank.
const (
	NotInformed       = "N/I"
	InvalidDate       = "Data inválida"
	IncompleteAddress = "Endereço incompleto"
)

// Payload is a decoded webhook delivery: the event discriminator plus the
// loosely-typed dados tree. The tree is kept as a generic map because the
// platform has renamed and re-nested fields across revisions; typed structs
// would silently drop the legacy shapes.
type Payload struct {
	Event string
	Data  map[string]any
}

// Row is the positional, display-ready output handed to the row store.
type Row []string

// StoredRecord is a previously appended row read back from the store, keyed
// by the sheet's header row.
type StoredRecord map[string]string

// Observation holds the three sub-values packed into the freeform
// observacao field. Every field is sentineled when absent.
type Observation struct {
	Category    string
	Email       string
	Measurement string
}

// PropertyAddress carries the optional imovel sub-fields.
type PropertyAddress struct {
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
}

// DecodePayload parses a webhook body. Numbers are kept as json.Number so
// tipoVistoria.id survives whether the platform sends "5" or 5.
func DecodePayload(body []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var tree map[string]any
	if err := dec.Decode(&tree); err != nil {
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}

	event, _ := tree["evento"].(string)
	data, _ := tree["dados"].(map[string]any)
	return Payload{Event: event, Data: data}, nil
}

// stringAt resolves a dotted path against the payload tree and renders the
// leaf as a trimmed string. Missing segments, non-object intermediates, and
// non-scalar leaves all yield "".
func stringAt(tree map[string]any, path string) string {
	var cur any = tree
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		if cur, ok = m[seg]; !ok {
			return ""
		}
	}

	switch v := cur.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// firstNonEmpty returns the first non-empty candidate, implementing the
// per-field fallback chains (e.g. locatario → locatário → nomeContato).
func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

func propertyAddressAt(data map[string]any) PropertyAddress {
	return PropertyAddress{
		Street:       stringAt(data, "imovel.endereco"),
		Number:       stringAt(data, "imovel.numero"),
		Complement:   stringAt(data, "imovel.complemento"),
		Neighborhood: stringAt(data, "imovel.bairro"),
		City:         stringAt(data, "imovel.cidade"),
		State:        stringAt(data, "imovel.uf"),
	}
}
