// Package purl implements the purl half of the identity layer:
// canonicalization of package URLs and the deterministic, three-level
// UUIDv5 derivation that lets concurrent ingestion of the same purl converge
// on the same rows.
package purl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/package-url/packageurl-go"
	"golang.org/x/text/unicode/norm"

	"github.com/trustgraph/core/pkg/errs"
)

// NamespaceUUID is the fixed namespace constant this system hashes purls
// under. Generated once and frozen; changing it would invalidate every
// previously-ingested purl UUID.
var NamespaceUUID = uuid.MustParse("f41a2bf0-6b3d-4b1a-8f2e-2f9d9b7c9b10")

// Identity is a canonicalized purl, ready for UUID derivation and for
// re-serialization in the canonical string form.
type Identity struct {
	Type       string // lowercased
	Namespace  string // "" means absent
	Name       string
	Version    string            // "" means absent
	Qualifiers map[string]string // lowercased keys; nil/empty means absent
}

// Parse parses a purl string and canonicalizes it:
//   - type is lowercased; namespace and name retain case
//   - qualifier keys are lowercased
//   - empty qualifier maps and empty namespaces are represented as absent
//   - version is compared byte-for-byte after NFC normalization
func Parse(s string) (Identity, error) {
	p, err := packageurl.FromString(s)
	if err != nil {
		return Identity{}, errs.WithToken(errs.PurlSyntax, s, err)
	}
	return FromPackageURL(p), nil
}

// FromPackageURL canonicalizes an already-parsed packageurl.PackageURL.
func FromPackageURL(p packageurl.PackageURL) Identity {
	id := Identity{
		Type:      strings.ToLower(p.Type),
		Namespace: p.Namespace,
		Name:      p.Name,
		Version:   norm.NFC.String(p.Version),
	}

	if len(p.Qualifiers) > 0 {
		qs := make(map[string]string, len(p.Qualifiers))
		for _, q := range p.Qualifiers {
			if q.Value == "" {
				continue
			}
			qs[strings.ToLower(q.Key)] = q.Value
		}
		if len(qs) > 0 {
			id.Qualifiers = qs
		}
	}

	return id
}

// HasVersion reports whether a version component is present.
func (id Identity) HasVersion() bool { return id.Version != "" }

// sortedQualifierKeys returns the qualifier keys in lexicographic order.
func (id Identity) sortedQualifierKeys() []string {
	keys := make([]string, 0, len(id.Qualifiers))
	for k := range id.Qualifiers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// canonicalQualifierString serializes the qualifier map in key-sorted order,
// e.g. "arch=x86_64&distro=fedora". Empty maps serialize to "".
func (id Identity) canonicalQualifierString() string {
	if len(id.Qualifiers) == 0 {
		return ""
	}
	keys := id.sortedQualifierKeys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+id.Qualifiers[k])
	}
	return strings.Join(parts, "&")
}

// baseString is the canonical base purl string: "type/namespace/name" with
// namespace omitted when absent. This is the input hashed into PackageUUID.
func (id Identity) baseString() string {
	if id.Namespace == "" {
		return id.Type + "/" + id.Name
	}
	return id.Type + "/" + id.Namespace + "/" + id.Name
}

// PackageUUID is the UUIDv5 of the (type, namespace, name) tuple:
// package_uuid = v5(ns, type‖"/"‖namespace‖"/"‖name).
func (id Identity) PackageUUID() uuid.UUID {
	return uuid.NewSHA1(NamespaceUUID, []byte(id.baseString()))
}

// VersionUUID is the UUIDv5 chained off PackageUUID and the version:
// version_uuid = v5(ns, package_uuid_bytes ‖ version).
// Returns errs.MissingVersion if no version is present.
func (id Identity) VersionUUID() (uuid.UUID, error) {
	if !id.HasVersion() {
		return uuid.UUID{}, errs.WithToken(errs.MissingVersion, id.baseString(), nil)
	}
	pkgUUID := id.PackageUUID()
	data := append(pkgUUID[:], []byte(id.Version)...)
	return uuid.NewSHA1(NamespaceUUID, data), nil
}

// QualifierUUID is the UUIDv5 chained off VersionUUID and the canonical
// qualifier string: qualifier_uuid = v5(ns, version_uuid_bytes ‖ canonical_qualifier_string).
// Returns errs.MissingVersion if no version is present.
func (id Identity) QualifierUUID() (uuid.UUID, error) {
	verUUID, err := id.VersionUUID()
	if err != nil {
		return uuid.UUID{}, err
	}
	data := append(verUUID[:], []byte(id.canonicalQualifierString())...)
	return uuid.NewSHA1(NamespaceUUID, data), nil
}

// BaseString returns the canonical "pkg:type/namespace/name" string with no
// version or qualifiers.
func (id Identity) BaseString() string {
	return "pkg:" + id.baseString()
}

// String returns the full canonical purl string, percent-encoding qualifier
// values for display.
func (id Identity) String() string {
	var b strings.Builder
	b.WriteString("pkg:")
	b.WriteString(id.baseString())
	if id.Version != "" {
		b.WriteByte('@')
		b.WriteString(id.Version)
	}
	if len(id.Qualifiers) > 0 {
		b.WriteByte('?')
		keys := id.sortedQualifierKeys()
		for i, k := range keys {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(percentEncodeQualifier(id.Qualifiers[k]))
		}
	}
	return b.String()
}

func percentEncodeQualifier(v string) string {
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~', c == '/', c == ':':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
