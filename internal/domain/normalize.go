package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const displayTimeLayout = "02/01/2006 15:04:05"

// startTimeLayouts are tried in order. The platform normally sends RFC 3339
// with a "Z" suffix; one revision dropped the offset entirely, in which case
// the instant is taken as UTC.
var startTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05"}

var (
	digitRunRe = regexp.MustCompile(`\d+`)
	spaceRunRe = regexp.MustCompile(`\s+`)
)

// displayZone is the fixed presentation zone for spreadsheet rows. São Paulo
// has kept a constant -03:00 offset since DST was abolished in 2019, so the
// fallback is equivalent on systems without tzdata.
var displayZone = func() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("-03", -3*60*60)
	}
	return loc
}()

// FormatStartTime renders an ISO-8601 instant as dd/mm/yyyy HH:MM:SS in the
// São Paulo zone. Anything unparseable yields the InvalidDate sentinel.
//
// legacyOffset additionally subtracts three hours after the zone conversion.
// That double-corrects the offset and exists only for compatibility with
// rows written by the platform revision that did the same.
func FormatStartTime(value string, legacyOffset bool) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return InvalidDate
	}

	var parsed time.Time
	ok := false
	for _, layout := range startTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			parsed, ok = t, true
			break
		}
	}
	if !ok {
		return InvalidDate
	}

	parsed = parsed.In(displayZone)
	if legacyOffset {
		parsed = parsed.Add(-3 * time.Hour)
	}
	return parsed.Format(displayTimeLayout)
}

// DecomposeObservation splits the freeform observacao text into its three
// packed sub-values. Each sub-field degrades to NotInformed independently;
// empty input yields all three sentinels.
func DecomposeObservation(text string) Observation {
	obs := Observation{
		Category:    NotInformed,
		Email:       NotInformed,
		Measurement: NotInformed,
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return obs
	}

	parts := strings.Split(text, ",")

	switch folded := strings.ToLower(foldDiacritics(parts[0])); {
	case strings.Contains(folded, "entrada"):
		obs.Category = "ENTRADA"
	case strings.Contains(folded, "saida"):
		obs.Category = "SAÍDA"
	}

	if len(parts) > 1 {
		// Taken verbatim; the platform has put phone numbers in this slot.
		if email := strings.TrimSpace(parts[1]); email != "" {
			obs.Email = email
		}
	}

	if len(parts) > 2 {
		if digits := digitRunRe.FindString(parts[2]); digits != "" {
			obs.Measurement = digits + "m²"
		}
	}

	return obs
}

// foldDiacritics strips combining marks so "saída" matches "saida".
// Transformer chains carry internal state, so a fresh chain is built per call.
func foldDiacritics(s string) string {
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(chain, s)
	if err != nil {
		return s
	}
	return folded
}

// ComposeAddress assembles a postal address from the optional imovel
// sub-fields: street parts comma-joined, then " - cidade-uf". Whitespace runs
// are collapsed and stray separators trimmed. A fully empty input yields the
// IncompleteAddress sentinel, matching the other sentineled fields.
func ComposeAddress(addr PropertyAddress) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{addr.Street, addr.Number, addr.Complement, addr.Neighborhood} {
		if p := strings.TrimSpace(part); p != "" {
			parts = append(parts, p)
		}
	}
	composed := strings.Join(parts, ", ")

	cityState := strings.TrimSpace(addr.City)
	if uf := strings.TrimSpace(addr.State); uf != "" {
		if cityState == "" {
			cityState = uf
		} else {
			cityState += "-" + uf
		}
	}
	if cityState != "" {
		if composed == "" {
			composed = cityState
		} else {
			composed += " - " + cityState
		}
	}

	composed = spaceRunRe.ReplaceAllString(composed, " ")
	composed = strings.Trim(composed, " ,-")
	if composed == "" {
		return IncompleteAddress
	}
	return composed
}
