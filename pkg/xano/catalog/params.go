package catalog

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/mapstructure"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/hashicorp-forge/xano-meta/pkg/xano/dispatch"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/envelope"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/locator"
)

const (
	defaultPage    = 1
	defaultPerPage = 50
)

// requiredID rejects identifiers that normalize to the empty string, such as
// a quoted empty string.
var requiredID = validation.By(func(value any) error {
	if v, ok := value.(string); ok && locator.NormalizeID(v) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

// atLeastOne rejects integers below 1. validation.Min skips zero values.
var atLeastOne = validation.By(func(value any) error {
	if v, ok := value.(int); ok && v < 1 {
		return errors.New("must be no less than 1")
	}
	return nil
})

var (
	sortDirection = validation.In("asc", "desc")
	accessLevel   = validation.In("public", "private")
)

// InstanceRef names an instance.
type InstanceRef struct {
	InstanceName string `json:"instance_name" desc:"The name of the Xano instance"`
}

func (r *InstanceRef) rules() []*validation.FieldRules {
	return []*validation.FieldRules{
		validation.Field(&r.InstanceName, validation.Required, requiredID),
	}
}

func (r *InstanceRef) locator() locator.Locator {
	return locator.New(r.InstanceName)
}

// WorkspaceRef names a workspace within an instance.
type WorkspaceRef struct {
	InstanceRef
	WorkspaceID string `json:"workspace_id" desc:"The ID of the workspace"`
}

func (r *WorkspaceRef) rules() []*validation.FieldRules {
	return append(r.InstanceRef.rules(),
		validation.Field(&r.WorkspaceID, validation.Required, requiredID))
}

func (r *WorkspaceRef) locator() locator.Locator {
	return r.InstanceRef.locator().Workspace(r.WorkspaceID)
}

// TableRef names a table within a workspace.
type TableRef struct {
	WorkspaceRef
	TableID string `json:"table_id" desc:"The ID of the table"`
}

func (r *TableRef) rules() []*validation.FieldRules {
	return append(r.WorkspaceRef.rules(),
		validation.Field(&r.TableID, validation.Required, requiredID))
}

func (r *TableRef) locator() locator.Locator {
	return r.WorkspaceRef.locator().Table(r.TableID)
}

// Paging is the page/per_page pair shared by list and search operations.
type Paging struct {
	Page    int `json:"page" desc:"Page number"`
	PerPage int `json:"per_page" desc:"Number of items per page"`
}

func (p *Paging) applyDefaults() {
	p.Page = defaultPage
	p.PerPage = defaultPerPage
}

func (p *Paging) rules() []*validation.FieldRules {
	return []*validation.FieldRules{
		validation.Field(&p.Page, atLeastOne),
		validation.Field(&p.PerPage, atLeastOne),
	}
}

func (p *Paging) query() envelope.Query {
	return envelope.Pagination(p.Page, p.PerPage)
}

// Searching carries opaque search conditions and an optional sort order.
type Searching struct {
	Paging
	SearchConditions []envelope.Condition `json:"search_conditions" desc:"Search conditions, e.g. [{\"field\":\"status\",\"op\":\"eq\",\"value\":\"active\"}]"`
	Sort             map[string]string    `json:"sort" desc:"Sort order by field, e.g. {\"created_at\":\"desc\"}"`
}

func (s *Searching) rules() []*validation.FieldRules {
	return append(s.Paging.rules(),
		validation.Field(&s.Sort, validation.Each(sortDirection)))
}

func (s *Searching) body() *envelope.Partial {
	return envelope.Search(s.Page, s.PerPage, s.SearchConditions, s.Sort)
}

// normalizeIDs renders every id the way path identifiers are rendered.
func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, locator.NormalizeID(id))
	}
	return out
}

// wrap nests a successful payload under key.
func wrap(key string, r dispatch.Result) dispatch.Result {
	if !r.OK() {
		return r
	}
	data := r.Data
	if len(data) == 0 {
		data = []byte("null")
	}
	out, err := sjson.SetRawBytes([]byte(`{}`), key, data)
	if err != nil {
		return dispatch.Fail(dispatch.NewFailure(dispatch.FailureDecode, "failed to reshape response", err))
	}
	return dispatch.Success(out)
}

// unwrapItems nests a list payload under key. Paginated payloads of the form
// {"items":[...], ...} are reduced to their items first.
func unwrapItems(key string, r dispatch.Result) dispatch.Result {
	if !r.OK() {
		return r
	}
	if items := gjson.GetBytes(r.Data, "items"); items.Exists() && items.IsArray() {
		return wrap(key, dispatch.Success([]byte(items.Raw)))
	}
	return wrap(key, r)
}

// decodeLoose decodes a loosely typed argument value into out using the same
// rules as operation parameters.
func decodeLoose(in any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Squash:           true,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(in)
}

func invalid(msg string) dispatch.Result {
	return dispatch.Fail(dispatch.NewFailure(dispatch.FailureInvalid, msg, nil))
}
