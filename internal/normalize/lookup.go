package normalize

import (
	"strings"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
)

// docView holds the sections of a report document that alias lookups read
// from. Documents are stored either wrapped in a payload or flattened, and
// the header may be nested or merged into the payload.
type docView struct {
	raw         map[string]any
	payload     map[string]any
	header      map[string]any
	generalInfo map[string]any
}

func newDocView(raw map[string]any) docView {
	if raw == nil {
		raw = map[string]any{}
	}

	payload, ok := asObject(raw["payload"])
	if !ok {
		payload = raw
	}

	header, ok := asObject(payload["header"])
	if !ok {
		header = payload
	}

	info, ok := asObject(payload["generalInfo"])
	if !ok {
		info, ok = asObject(payload["info"])
	}
	if !ok {
		info = map[string]any{}
	}

	return docView{raw: raw, payload: payload, header: header, generalInfo: info}
}

func viewOf(raw domain.RawReport) docView {
	return newDocView(map[string]any(raw))
}

// section selects one part of a document.
type section func(v docView) map[string]any

var (
	fromRaw         section = func(v docView) map[string]any { return v.raw }
	fromPayload     section = func(v docView) map[string]any { return v.payload }
	fromHeader      section = func(v docView) map[string]any { return v.header }
	fromGeneralInfo section = func(v docView) map[string]any { return v.generalInfo }
	fromMeta        section = func(v docView) map[string]any {
		meta, _ := asObject(v.payload["meta"])
		return meta
	}
)

// lookup is a (section, aliases) pair.
type lookup struct {
	from    section
	aliases []string
}

// fieldRule resolves one output field: lookups are tried in order and the
// first present, non-blank value wins; fallback applies otherwise.
type fieldRule struct {
	lookups  []lookup
	fallback string
}

// acrossSections builds the usual header, generalInfo, payload lookup chain.
func acrossSections(aliases ...string) []lookup {
	return []lookup{
		{from: fromHeader, aliases: aliases},
		{from: fromGeneralInfo, aliases: aliases},
		{from: fromPayload, aliases: aliases},
	}
}

func (r fieldRule) resolve(v docView) (any, bool) {
	for _, l := range r.lookups {
		if val, ok := firstPresent(l.from(v), l.aliases); ok {
			return val, true
		}
	}
	return nil, false
}

// text returns the resolved value as trimmed text, or the fallback.
func (r fieldRule) text(v docView) string {
	if val, ok := r.resolve(v); ok {
		if text := strings.TrimSpace(displayText(val)); text != "" {
			return text
		}
	}
	return r.fallback
}

// displayText renders option objects such as {"label": "Chilled"} by their
// name rather than their Go map form.
func displayText(v any) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return stringify(v)
	}
	if name, ok := firstPresent(obj, []string{"name", "label", "value"}); ok {
		return stringify(name)
	}
	return ""
}

// firstPresent returns the value of the first alias set on obj with a
// non-blank value.
func firstPresent(obj map[string]any, aliases []string) (any, bool) {
	if obj == nil {
		return nil, false
	}
	for _, alias := range aliases {
		if val, ok := obj[alias]; ok && !isBlank(val) {
			return val, true
		}
	}
	return nil, false
}
