// Package domain normalizes Devolus inspection-scheduling webhook payloads.
//
// # Payload Shape
//
// The scheduling platform delivers one JSON document per webhook call:
//
//	{"evento": "AGENDAMENTO_NOVO", "dados": {...}}
//
// Only the AGENDAMENTO_NOVO discriminator is accepted. The dados object is
// loosely typed and has changed incompatibly across platform revisions:
//
//	vistoriador.nome   inspector name
//	locatario          tenant name; older revisions used the diacritic key
//	                   "locatário", and some send "nomeContato" instead
//	tipoVistoria.id    inspection type, delivered as string or number
//	dataHoraInicio     ISO-8601 start instant, usually with a "Z" suffix
//	imovel.*           endereco, numero, complemento, bairro, cidade, uf —
//	                   all optional
//	observacao         freeform text packing up to three comma-joined values:
//	                   category, contact email, floor area
//
// Unknown fields are ignored. Lookups never fail hard: every unresolved or
// malformed field degrades to a sentinel so a row can always be rendered.
//
// # Sentinels
//
//	"N/I"                  field not informed
//	"Data inválida"        start instant did not parse
//	"Endereço incompleto"  no address sub-field was present
//
// # Observation Field
//
// The observacao text is comma-split. The first part is matched case- and
// diacritic-insensitively: "entrada" → ENTRADA, "saida"/"saída" → SAÍDA.
// The second part is taken verbatim as a contact email (no format check; the
// platform has emitted phone numbers in that slot). The third part yields the
// first run of decimal digits with an "m²" suffix.
//
// # Time Presentation
//
// Start instants are converted to America/Sao_Paulo and rendered as
// dd/mm/yyyy HH:MM:SS for the spreadsheet. One platform revision shipped with
// an extra -3h subtraction on top of the zone conversion; that behavior is
// preserved behind an explicit opt-in (LEGACY_TIME_OFFSET) for deployments
// whose historical rows were written that way.
//
// # Row Schemas
//
// The spreadsheet contract is purely positional and has gone through three
// layouts (3, 5, and 7 columns). The active layout is a named, versioned
// [Schema] selected once at startup; see [NewSchema].
package domain
