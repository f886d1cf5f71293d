package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
	"evento": "AGENDAMENTO_NOVO",
	"dados": {
		"vistoriador": {"nome": "Ana"},
		"locatario": "João",
		"dataHoraInicio": "2024-03-10T14:00:00Z",
		"imovel": {"endereco": "Rua X", "cidade": "SP", "uf": "SP"}
	}
}`

func decode(t *testing.T, body string) Payload {
	t.Helper()
	p, err := DecodePayload([]byte(body))
	require.NoError(t, err)
	return p
}

func mustSchema(t *testing.T, version string) Schema {
	t.Helper()
	s, err := NewSchema(version, Options{})
	require.NoError(t, err)
	return s
}

func TestDecodePayload(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		p := decode(t, samplePayload)
		assert.Equal(t, EventNewAppointment, p.Event)
		assert.Equal(t, "Ana", stringAt(p.Data, "vistoriador.nome"))
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := DecodePayload([]byte("{not json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode payload")
	})

	t.Run("missing dados", func(t *testing.T) {
		p := decode(t, `{"evento":"AGENDAMENTO_NOVO"}`)
		assert.Equal(t, EventNewAppointment, p.Event)
		assert.Empty(t, stringAt(p.Data, "vistoriador.nome"))
	})
}

func TestMapper_GoldenRowV5(t *testing.T) {
	m := NewMapper(mustSchema(t, SchemaV5), []string{"vistoriador.nome", "dataHoraInicio"}, true)

	row, err := m.Map(decode(t, samplePayload))
	require.NoError(t, err)

	assert.Equal(t, Row{"Ana", "João", "10/03/2024 11:00:00", "Rua X - SP-SP", "N/I"}, row)
}

func TestMapper_SchemaV3(t *testing.T) {
	m := NewMapper(mustSchema(t, SchemaV3), nil, false)

	row, err := m.Map(decode(t, samplePayload))
	require.NoError(t, err)

	assert.Equal(t, Row{"Ana", "João", "10/03/2024 11:00:00"}, row)
}

func TestMapper_SchemaV7(t *testing.T) {
	body := `{
		"evento": "AGENDAMENTO_NOVO",
		"dados": {
			"vistoriador": {"nome": "Ana"},
			"nomeContato": "Carlos",
			"dataHoraInicio": "2024-03-10T14:00:00Z",
			"imovel": {"endereco": "Rua X", "numero": "42", "bairro": "Centro", "cidade": "SP", "uf": "SP"},
			"observacao": "Entrada, a@b.com, area de 45 m2"
		}
	}`
	m := NewMapper(mustSchema(t, SchemaV7), nil, false)

	row, err := m.Map(decode(t, body))
	require.NoError(t, err)

	assert.Equal(t, Row{
		"ENTRADA",
		"Ana",
		"Carlos",
		"10/03/2024 11:00:00",
		"Rua X, 42, Centro - SP-SP",
		"a@b.com",
		"45m²",
	}, row)
}

func TestMapper_UnsupportedEvent(t *testing.T) {
	m := NewMapper(mustSchema(t, SchemaV5), nil, true)

	_, err := m.Map(decode(t, `{"evento":"AGENDAMENTO_CANCELADO","dados":{"locatario":"João"}}`))
	assert.ErrorIs(t, err, ErrUnsupportedEvent)

	_, err = m.Map(decode(t, `{"dados":{}}`))
	assert.ErrorIs(t, err, ErrUnsupportedEvent)
}

func TestMapper_RequiredFields(t *testing.T) {
	body := `{
		"evento": "AGENDAMENTO_NOVO",
		"dados": {
			"locatario": "João",
			"dataHoraInicio": "2024-03-10T14:00:00Z"
		}
	}`

	t.Run("strict fails on first missing path", func(t *testing.T) {
		m := NewMapper(mustSchema(t, SchemaV5), []string{"vistoriador.nome", "dataHoraInicio"}, true)

		_, err := m.Map(decode(t, body))
		var missing *MissingFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "vistoriador.nome", missing.Path)
	})

	t.Run("lenient substitutes sentinel", func(t *testing.T) {
		m := NewMapper(mustSchema(t, SchemaV5), []string{"vistoriador.nome", "dataHoraInicio"}, false)

		row, err := m.Map(decode(t, body))
		require.NoError(t, err)
		assert.Equal(t, NotInformed, row[0])
	})
}

func TestMapper_TenantFallbackChain(t *testing.T) {
	tests := []struct {
		name     string
		dados    string
		expected string
	}{
		{"locatario", `{"locatario":"João"}`, "João"},
		{"legacy diacritic key", `{"locatário":"Maria"}`, "Maria"},
		{"nomeContato fallback", `{"nomeContato":"Carlos"}`, "Carlos"},
		{"locatario wins over nomeContato", `{"locatario":"João","nomeContato":"Carlos"}`, "João"},
		{"all absent", `{}`, NotInformed},
	}

	m := NewMapper(mustSchema(t, SchemaV3), nil, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := m.Map(decode(t, `{"evento":"AGENDAMENTO_NOVO","dados":`+tt.dados+`}`))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, row[1])
		})
	}
}

func TestMapper_InspectionTypeAcceptsNumber(t *testing.T) {
	m := NewMapper(mustSchema(t, SchemaV5), nil, false)

	row, err := m.Map(decode(t, `{"evento":"AGENDAMENTO_NOVO","dados":{"tipoVistoria":{"id":5}}}`))
	require.NoError(t, err)
	assert.Equal(t, "5", row[4])

	row, err = m.Map(decode(t, `{"evento":"AGENDAMENTO_NOVO","dados":{"tipoVistoria":{"id":"padrao"}}}`))
	require.NoError(t, err)
	assert.Equal(t, "padrao", row[4])
}

func TestMapper_EveryCellPopulated(t *testing.T) {
	for _, version := range []string{SchemaV3, SchemaV5, SchemaV7} {
		t.Run(version, func(t *testing.T) {
			m := NewMapper(mustSchema(t, version), nil, false)
			row, err := m.Map(decode(t, `{"evento":"AGENDAMENTO_NOVO","dados":{}}`))
			require.NoError(t, err)
			require.Len(t, row, len(m.Schema().Columns))
			for i, cell := range row {
				assert.NotEmpty(t, cell, "column %d", i)
			}
		})
	}
}

func TestMapper_Pure(t *testing.T) {
	m := NewMapper(mustSchema(t, SchemaV5), nil, true)
	p := decode(t, samplePayload)

	row1, err := m.Map(p)
	require.NoError(t, err)
	row2, err := m.Map(p)
	require.NoError(t, err)

	assert.Equal(t, row1, row2)
	assert.Equal(t, RowKey(row1), RowKey(row2))
}

func TestRowKey(t *testing.T) {
	a := Row{"Ana", "João", "10/03/2024 11:00:00"}
	b := Row{"Ana", "João", "10/03/2024 11:00:01"}

	assert.Equal(t, RowKey(a), RowKey(a))
	assert.NotEqual(t, RowKey(a), RowKey(b))
	assert.Len(t, RowKey(a), 16)
}

func TestNewSchema_UnknownVersion(t *testing.T) {
	_, err := NewSchema("v9", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "v9")
}

func TestMapper_LegacyTimeOffsetOption(t *testing.T) {
	s, err := NewSchema(SchemaV3, Options{LegacyTimeOffset: true})
	require.NoError(t, err)
	m := NewMapper(s, nil, false)

	row, err := m.Map(decode(t, samplePayload))
	require.NoError(t, err)
	assert.Equal(t, "10/03/2024 08:00:00", row[2])
}

func TestMapper_ResolverPanicBecomesMappingError(t *testing.T) {
	schema := Schema{
		Version: "test",
		Columns: []Column{{Name: "boom", Resolve: func(map[string]any) string { panic("bad shape") }}},
	}
	m := NewMapper(schema, nil, false)

	_, err := m.Map(Payload{Event: EventNewAppointment})
	var mapErr *MappingError
	require.ErrorAs(t, err, &mapErr)
	assert.Equal(t, "boom", mapErr.Column)
	assert.False(t, errors.Is(err, ErrUnsupportedEvent))
}
