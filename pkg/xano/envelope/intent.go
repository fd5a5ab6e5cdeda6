package envelope

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp-forge/xano-meta/pkg/xano/locator"
)

// Param is one key/value pair of an ordered query string or form.
type Param struct {
	Key   string
	Value string
}

// Query is an ordered set of query parameters. Unlike url.Values it keeps the
// order parameters were added in.
type Query []Param

// Add returns q extended by key=v. The value is rendered with
// locator.NormalizeID so ids and numbers render consistently.
func (q Query) Add(key string, v any) Query {
	return append(q, Param{Key: key, Value: locator.NormalizeID(v)})
}

// Encode renders the query in insertion order.
func (q Query) Encode() string {
	parts := make([]string, 0, len(q))
	for _, p := range q {
		parts = append(parts, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}
	return strings.Join(parts, "&")
}

// Get returns the first value for key.
func (q Query) Get(key string) (string, bool) {
	for _, p := range q {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Pagination returns the standard page/per_page query.
func Pagination(page, perPage int) Query {
	return Query{}.Add("page", page).Add("per_page", perPage)
}

// Attachment is the single binary part of a multipart request. The content is
// read from Path when the request is built.
type Attachment struct {
	// Field is the multipart form field name, e.g. "content" or "file".
	Field string

	// Path is the location of the file on the builder's filesystem.
	Path string
}

// Intent describes one HTTP exchange with the metadata API, independent of
// any transport.
type Intent struct {
	// Operation names the catalog operation that produced the intent. It is
	// used for logging only.
	Operation string

	Method  string
	Locator locator.Locator

	// Suffix is a literal path appended to the rendered locator, e.g.
	// "schema" or "content/bulk/delete".
	Suffix string

	// BaseURL, when set, replaces the instance's metadata API root. It is used
	// for account-wide endpoints that do not live on an instance.
	BaseURL string

	// Query is only set by operations that paginate or filter.
	Query Query

	// JSON is the request body. nil means no body.
	JSON any

	// Form holds plain form fields sent next to Attachment.
	Form []Param

	// Attachment switches the body to multipart/form-data. JSON must be nil
	// when it is set.
	Attachment *Attachment

	// Live selects live rather than draft data. Required on every operation
	// that reads or writes table content, records or files.
	Live bool
}

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Validate checks the structural invariants of an intent.
func (i Intent) Validate() error {
	if !allowedMethods[i.Method] {
		return fmt.Errorf("unsupported method %q", i.Method)
	}
	if i.Attachment != nil {
		if i.JSON != nil {
			return fmt.Errorf("intent %q declares both a JSON body and an attachment", i.Operation)
		}
		if i.Attachment.Field == "" {
			return fmt.Errorf("intent %q attachment has no form field", i.Operation)
		}
		if i.Attachment.Path == "" {
			return fmt.Errorf("intent %q attachment has no file path", i.Operation)
		}
	}
	if len(i.Form) > 0 && i.Attachment == nil {
		return fmt.Errorf("intent %q has form fields but no attachment", i.Operation)
	}
	return nil
}

// IsMultipart reports whether the intent is sent as multipart/form-data.
func (i Intent) IsMultipart() bool {
	return i.Attachment != nil
}

// HasJSONBody reports whether the intent carries a JSON payload.
func (i Intent) HasJSONBody() bool {
	return i.JSON != nil && i.Attachment == nil
}

// Path returns the request path below the API root.
func (i Intent) Path() string {
	return i.Locator.Path(i.Suffix)
}

// URL renders the absolute request URL, query included.
func (i Intent) URL(domainSuffix string) string {
	var u string
	if i.BaseURL != "" {
		u = strings.TrimRight(i.BaseURL, "/") + i.Path()
	} else {
		u = i.Locator.URL(domainSuffix, i.Suffix)
	}
	if len(i.Query) > 0 {
		u += "?" + i.Query.Encode()
	}
	return u
}
