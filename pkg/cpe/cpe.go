// Package cpe implements the CPE half of the identity layer: decomposition
// of CPE 2.2/2.3 strings into well-formed-name components and
// deterministic UUID derivation so repeated ingestion of the same CPE
// converges on one row.
package cpe

import (
	"strings"

	"github.com/google/uuid"

	"github.com/trustgraph/core/pkg/errs"
	"github.com/trustgraph/core/pkg/model"
)

// CPE well-formed-name sentinels: "*" means ANY, "-" means N/A.
const (
	anySentinel = "*"
	naSentinel  = "-"
)

// Parse decomposes a CPE 2.2 URI ("cpe:/a:vendor:product:version") or a
// CPE 2.3 formatted string ("cpe:2.3:a:vendor:product:version:...") into its
// components.
func Parse(s string) (model.Cpe, error) {
	if strings.HasPrefix(s, "cpe:2.3:") {
		return parse23(s)
	}
	if strings.HasPrefix(s, "cpe:/") {
		return parse22(s)
	}
	return model.Cpe{}, errs.WithToken(errs.CpeSyntax, s, nil)
}

func parse23(s string) (model.Cpe, error) {
	parts := strings.Split(s, ":")
	// cpe : 2.3 : part : vendor : product : version : update : edition : language : sw_edition : target_sw : target_hw : other
	if len(parts) < 13 {
		return model.Cpe{}, errs.WithToken(errs.CpeSyntax, s, nil)
	}
	return model.Cpe{
		Part:     component(parts[2]),
		Vendor:   component(parts[3]),
		Product:  component(parts[4]),
		Version:  component(parts[5]),
		Update:   component(parts[6]),
		Edition:  component(parts[7]),
		Language: language(parts[8]),
	}, nil
}

func parse22(s string) (model.Cpe, error) {
	body := strings.TrimPrefix(s, "cpe:/")
	parts := strings.Split(body, ":")
	get := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	return model.Cpe{
		Part:     component(get(0)),
		Vendor:   component(get(1)),
		Product:  component(get(2)),
		Version:  component(get(3)),
		Update:   component(get(4)),
		Edition:  component(get(5)),
		Language: language(get(6)),
	}, nil
}

func component(raw string) model.CpeComponent {
	switch raw {
	case "", anySentinel:
		return model.AnyComponent()
	case naSentinel:
		return model.NAComponent()
	default:
		return model.ValueComponent(unescape(raw))
	}
}

func language(raw string) model.CpeLanguage {
	if raw == "" || raw == anySentinel {
		return model.CpeLanguage{Any: true}
	}
	return model.CpeLanguage{Value: unescape(raw)}
}

// unescape strips CPE 2.3 backslash-escaping of special characters.
func unescape(v string) string {
	if !strings.Contains(v, "\\") {
		return v
	}
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+1 < len(v) {
			i++
		}
		b.WriteByte(v[i])
	}
	return b.String()
}

func componentKey(c model.CpeComponent) string {
	switch {
	case c.Any:
		return anySentinel
	case c.NotApplicable:
		return naSentinel
	default:
		return c.Value
	}
}

func languageKey(l model.CpeLanguage) string {
	if l.Any {
		return anySentinel
	}
	return l.Value
}

// canonicalString renders the 2.3 formatted string used as the hash input
// for UUID derivation, in sentinel form (so "*" and "" never diverge).
func canonicalString(c model.Cpe) string {
	return strings.Join([]string{
		"cpe", "2.3",
		componentKey(c.Part),
		componentKey(c.Vendor),
		componentKey(c.Product),
		componentKey(c.Version),
		componentKey(c.Update),
		componentKey(c.Edition),
		languageKey(c.Language),
	}, ":")
}

// UUID derives the deterministic UUIDv5 identity for a decomposed CPE from
// its canonical string, under a fixed namespace constant of its own
// (distinct from purl.NamespaceUUID).
func UUID(c model.Cpe) uuid.UUID {
	return uuid.NewSHA1(uuidNamespace, []byte(canonicalString(c)))
}

var uuidNamespace = uuid.MustParse("f41a2bf0-6b3d-4b1a-8f2e-2f9d9b7c9b11")

// String renders c back into its CPE 2.3 formatted string form.
func String(c model.Cpe) string {
	return canonicalString(c)
}

// Matches reports whether candidate satisfies query per CPE binding
// matching semantics: an Any component on the query side matches anything,
// NotApplicable only matches NotApplicable, and a Value only matches the
// identical value.
func Matches(query, candidate model.Cpe) bool {
	return matchComponent(query.Part, candidate.Part) &&
		matchComponent(query.Vendor, candidate.Vendor) &&
		matchComponent(query.Product, candidate.Product) &&
		matchComponent(query.Version, candidate.Version) &&
		matchComponent(query.Update, candidate.Update) &&
		matchComponent(query.Edition, candidate.Edition) &&
		matchLanguage(query.Language, candidate.Language)
}

func matchComponent(query, candidate model.CpeComponent) bool {
	if query.Any {
		return true
	}
	if query.NotApplicable {
		return candidate.NotApplicable
	}
	return !candidate.Any && !candidate.NotApplicable && candidate.Value == query.Value
}

func matchLanguage(query, candidate model.CpeLanguage) bool {
	if query.Any {
		return true
	}
	return !candidate.Any && candidate.Value == query.Value
}
