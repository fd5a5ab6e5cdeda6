// Package locator renders hierarchical Xano resource identifiers
// (instance → workspace → table → schema field, index, record, file, history
// entry) into metadata API URLs.
//
// A Locator is an immutable value. Every builder method returns a copy, so a
// locator built for one call can be extended freely without affecting another.
// Rendering never fails: the remote service, not this package, decides whether
// a resource exists.
package locator

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultDomainSuffix is the domain every instance name is resolved under
// unless configured otherwise.
const DefaultDomainSuffix = "n7c.xano.io"

// MetaAPIPath is the path prefix of the metadata API on every instance.
const MetaAPIPath = "/api:meta"

// Kind identifies the type of a locator segment.
type Kind string

const (
	KindInstance     Kind = "instance"
	KindWorkspace    Kind = "workspace"
	KindTable        Kind = "table"
	KindField        Kind = "field"
	KindIndex        Kind = "index"
	KindRecord       Kind = "record"
	KindFile         Kind = "file"
	KindHistoryEntry Kind = "history-entry"
)

// pathWords maps a segment kind to the literal word the API uses in paths.
var pathWords = map[Kind]string{
	KindWorkspace:    "workspace",
	KindTable:        "table",
	KindField:        "schema",
	KindIndex:        "index",
	KindRecord:       "content",
	KindFile:         "file",
	KindHistoryEntry: "request_history",
}

// PathWord returns the path word for a kind, or "" for KindInstance which is
// rendered into the host rather than the path.
func (k Kind) PathWord() string {
	return pathWords[k]
}

// Segment is one (kind, identifier) pair of a locator.
type Segment struct {
	Kind Kind
	ID   string
}

// Locator is an ordered chain of segments rooted at an instance.
type Locator struct {
	instance string
	segments []Segment
}

// New returns a locator rooted at the named instance.
func New(instance string) Locator {
	return Locator{instance: NormalizeID(instance)}
}

// Instance returns the normalized instance name.
func (l Locator) Instance() string {
	return l.instance
}

// Segments returns a copy of the locator's segments, instance excluded.
func (l Locator) Segments() []Segment {
	out := make([]Segment, len(l.segments))
	copy(out, l.segments)
	return out
}

// With returns a new locator extended by one segment. The identifier is
// normalized before it is stored.
func (l Locator) With(kind Kind, id any) Locator {
	segments := make([]Segment, len(l.segments), len(l.segments)+1)
	copy(segments, l.segments)
	segments = append(segments, Segment{Kind: kind, ID: NormalizeID(id)})
	return Locator{instance: l.instance, segments: segments}
}

func (l Locator) Workspace(id any) Locator { return l.With(KindWorkspace, id) }
func (l Locator) Table(id any) Locator     { return l.With(KindTable, id) }
func (l Locator) Field(name any) Locator   { return l.With(KindField, name) }
func (l Locator) Index(id any) Locator     { return l.With(KindIndex, id) }
func (l Locator) Record(id any) Locator    { return l.With(KindRecord, id) }
func (l Locator) File(id any) Locator      { return l.With(KindFile, id) }
func (l Locator) History(id any) Locator   { return l.With(KindHistoryEntry, id) }

// Path renders the locator as a path below the metadata API root. Literal
// suffixes (e.g. "schema", "content/bulk") are appended verbatim, each joined
// with a single slash.
func (l Locator) Path(suffix ...string) string {
	var b strings.Builder
	for _, s := range l.segments {
		word := s.Kind.PathWord()
		if word == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(word)
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s.ID))
	}
	for _, sfx := range suffix {
		sfx = strings.Trim(sfx, "/")
		if sfx == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(sfx)
	}
	return b.String()
}

// URL renders the full URL of the locator on its instance.
func (l Locator) URL(domainSuffix string, suffix ...string) string {
	return DomainRoot(l.instance, domainSuffix) + l.Path(suffix...)
}

// String implements fmt.Stringer.
func (l Locator) String() string {
	return l.instance + ":" + l.Path()
}

// Domain returns the host name of an instance.
func Domain(instance, domainSuffix string) string {
	if domainSuffix == "" {
		domainSuffix = DefaultDomainSuffix
	}
	return NormalizeID(instance) + "." + strings.Trim(domainSuffix, ".")
}

// DomainRoot returns the metadata API root URL for an instance. No network
// call is made.
func DomainRoot(instance, domainSuffix string) string {
	return "https://" + Domain(instance, domainSuffix) + MetaAPIPath
}

// NormalizeID coerces an identifier to its canonical string form and strips
// surrounding double-quote characters. Identifiers often arrive JSON-quoted
// from agent callers. NormalizeID is idempotent.
func NormalizeID(v any) string {
	var s string
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		s = id
	case json.Number:
		s = id.String()
	case int:
		s = strconv.Itoa(id)
	case int64:
		s = strconv.FormatInt(id, 10)
	case int32:
		s = strconv.FormatInt(int64(id), 10)
	case uint:
		s = strconv.FormatUint(uint64(id), 10)
	case uint64:
		s = strconv.FormatUint(id, 10)
	case float64:
		s = strconv.FormatFloat(id, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(id), 'f', -1, 32)
	case fmt.Stringer:
		s = id.String()
	default:
		s = fmt.Sprint(id)
	}
	return strings.Trim(s, `"`)
}
