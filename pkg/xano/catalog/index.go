package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hashicorp-forge/xano-meta/pkg/xano/dispatch"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/envelope"
)

const familyIndex = "index"

// IndexKind selects the index creation endpoint.
type IndexKind string

const (
	IndexBTree   IndexKind = "btree"
	IndexUnique  IndexKind = "unique"
	IndexSearch  IndexKind = "search"
	IndexSpatial IndexKind = "spatial"
	IndexVector  IndexKind = "vector"
)

// IndexKinds lists every supported index kind.
var IndexKinds = []IndexKind{IndexBTree, IndexUnique, IndexSearch, IndexSpatial, IndexVector}

// IndexField is one indexed column. Op is the sort direction for btree and
// unique indexes, or the operator class for spatial and vector indexes.
type IndexField struct {
	Name string `json:"name"`
	Op   string `json:"op,omitempty"`
}

// SearchField is one column of a full-text search index.
type SearchField struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}

// IndexSpec is a validated index definition. Each kind has its own field
// shape; the constructors below are the only way to build one.
type IndexSpec struct {
	kind   IndexKind
	fields []IndexField

	// search only
	name         string
	lang         string
	searchFields []SearchField
}

// BTreeIndex returns a btree index over fields.
func BTreeIndex(fields ...IndexField) IndexSpec {
	return IndexSpec{kind: IndexBTree, fields: fields}
}

// UniqueIndex returns a unique index over fields.
func UniqueIndex(fields ...IndexField) IndexSpec {
	return IndexSpec{kind: IndexUnique, fields: fields}
}

// SpatialIndex returns a spatial index over fields.
func SpatialIndex(fields ...IndexField) IndexSpec {
	return IndexSpec{kind: IndexSpatial, fields: fields}
}

// VectorIndex returns a vector index over fields.
func VectorIndex(fields ...IndexField) IndexSpec {
	return IndexSpec{kind: IndexVector, fields: fields}
}

// SearchIndex returns a named full-text search index in language lang.
func SearchIndex(name, lang string, fields ...SearchField) IndexSpec {
	return IndexSpec{kind: IndexSearch, name: name, lang: lang, searchFields: fields}
}

// Kind returns the index kind.
func (s IndexSpec) Kind() IndexKind {
	return s.kind
}

// Validate checks that the spec has the fields its kind requires.
func (s IndexSpec) Validate() error {
	switch s.kind {
	case IndexSearch:
		if s.name == "" {
			return errors.New("search index requires a name")
		}
		if s.lang == "" {
			return errors.New("search index requires a language")
		}
		if len(s.searchFields) == 0 {
			return errors.New("search index requires at least one field")
		}
		for i, f := range s.searchFields {
			if f.Name == "" {
				return fmt.Errorf("search index field %d has no name", i)
			}
		}
	case IndexBTree, IndexUnique, IndexSpatial, IndexVector:
		if len(s.fields) == 0 {
			return fmt.Errorf("%s index requires at least one field", s.kind)
		}
		for i, f := range s.fields {
			if f.Name == "" {
				return fmt.Errorf("%s index field %d has no name", s.kind, i)
			}
		}
	default:
		return fmt.Errorf("unknown index kind %q", s.kind)
	}
	return nil
}

// Body returns the request body for the kind's creation endpoint.
func (s IndexSpec) Body() *envelope.Partial {
	if s.kind == IndexSearch {
		return envelope.NewPartial().
			Set("name", s.name).
			Set("lang", s.lang).
			Set("fields", s.searchFields)
	}
	return envelope.NewPartial().Set("fields", s.fields)
}

type indexFieldsParams struct {
	TableRef
	Fields []IndexField `json:"fields" desc:"Fields to index, e.g. [{\"name\":\"email\",\"op\":\"asc\"}]"`
}

func (p *indexFieldsParams) Validate() error {
	return validation.ValidateStruct(p, p.TableRef.rules()...)
}

type searchIndexParams struct {
	TableRef
	Name   string        `json:"name" desc:"Name of the search index"`
	Lang   string        `json:"lang" desc:"Language for search, e.g. english"`
	Fields []SearchField `json:"fields" desc:"Fields and priorities, e.g. [{\"name\":\"title\",\"priority\":1}]"`
}

func (p *searchIndexParams) applyDefaults() {
	p.Lang = "english"
}

func (p *searchIndexParams) Validate() error {
	return validation.ValidateStruct(p, p.TableRef.rules()...)
}

type createIndexParams struct {
	TableRef
	Type   string           `json:"type" desc:"Index kind: btree, unique, search, spatial or vector"`
	Fields []map[string]any `json:"fields" desc:"Fields to index; shape depends on the kind"`
	Name   string           `json:"name" desc:"Name of a search index"`
	Lang   string           `json:"lang" desc:"Language of a search index"`
}

func (p *createIndexParams) applyDefaults() {
	p.Lang = "english"
}

func (p *createIndexParams) Validate() error {
	kinds := make([]any, 0, len(IndexKinds))
	for _, k := range IndexKinds {
		kinds = append(kinds, string(k))
	}
	return validation.ValidateStruct(p, append(p.TableRef.rules(),
		validation.Field(&p.Type, validation.Required, validation.In(kinds...)),
	)...)
}

// spec converts the loosely typed fields into the kind's field shape.
func (p *createIndexParams) spec() (IndexSpec, error) {
	kind := IndexKind(p.Type)
	if kind == IndexSearch {
		fields := make([]SearchField, 0, len(p.Fields))
		for _, f := range p.Fields {
			sf := SearchField{}
			if err := decodeLoose(f, &sf); err != nil {
				return IndexSpec{}, err
			}
			fields = append(fields, sf)
		}
		return SearchIndex(p.Name, p.Lang, fields...), nil
	}

	fields := make([]IndexField, 0, len(p.Fields))
	for _, f := range p.Fields {
		inf := IndexField{}
		if err := decodeLoose(f, &inf); err != nil {
			return IndexSpec{}, err
		}
		fields = append(fields, inf)
	}
	return IndexSpec{kind: kind, fields: fields}, nil
}

type indexParams struct {
	TableRef
	IndexID string `json:"index_id" desc:"The ID of the index"`
}

func (p *indexParams) Validate() error {
	return validation.ValidateStruct(p, append(p.TableRef.rules(),
		validation.Field(&p.IndexID, validation.Required, requiredID),
	)...)
}

type updateIndexesParams struct {
	TableRef
	Indexes []map[string]any `json:"indexes" desc:"The complete list of index definitions"`
}

func (p *updateIndexesParams) Validate() error {
	return validation.ValidateStruct(p, append(p.TableRef.rules(),
		validation.Field(&p.Indexes, validation.NotNil),
	)...)
}

func indexOperations() []*Operation {
	return []*Operation{
		define(familyIndex, "xano_list_indexes",
			"List the indexes of a table",
			func(ctx context.Context, c *Catalog, p *tableParams) dispatch.Result {
				return c.execute(ctx, envelope.Intent{
					Operation: "xano_list_indexes",
					Method:    http.MethodGet,
					Locator:   p.locator(),
					Suffix:    "index",
				})
			}),
		define(familyIndex, "xano_create_index",
			"Create an index of any kind",
			func(ctx context.Context, c *Catalog, p *createIndexParams) dispatch.Result {
				spec, err := p.spec()
				if err != nil {
					return invalid(fmt.Sprintf("invalid index fields: %v", err))
				}
				return c.createIndex(ctx, "xano_create_index", &p.TableRef, spec)
			}),
		defineFieldIndex("xano_create_btree_index", "Create a btree index on a table", BTreeIndex),
		defineFieldIndex("xano_create_unique_index", "Create a unique index on a table", UniqueIndex),
		defineFieldIndex("xano_create_spatial_index", "Create a spatial index on a table", SpatialIndex),
		defineFieldIndex("xano_create_vector_index", "Create a vector index on a table", VectorIndex),
		define(familyIndex, "xano_create_search_index",
			"Create a full-text search index on a table",
			func(ctx context.Context, c *Catalog, p *searchIndexParams) dispatch.Result {
				return c.createIndex(ctx, "xano_create_search_index", &p.TableRef,
					SearchIndex(p.Name, p.Lang, p.Fields...))
			}),
		define(familyIndex, "xano_update_all_indexes",
			"Replace every index of a table",
			func(ctx context.Context, c *Catalog, p *updateIndexesParams) dispatch.Result {
				return c.execute(ctx, envelope.Intent{
					Operation: "xano_update_all_indexes",
					Method:    http.MethodPut,
					Locator:   p.locator(),
					Suffix:    "index",
					JSON:      envelope.NewPartial().Set("index", p.Indexes),
				})
			}),
		define(familyIndex, "xano_delete_index",
			"Delete an index",
			func(ctx context.Context, c *Catalog, p *indexParams) dispatch.Result {
				return c.execute(ctx, envelope.Intent{
					Operation: "xano_delete_index",
					Method:    http.MethodDelete,
					Locator:   p.locator().Index(p.IndexID),
				})
			}),
	}
}

func defineFieldIndex(name, synopsis string, build func(...IndexField) IndexSpec) *Operation {
	return define(familyIndex, name, synopsis,
		func(ctx context.Context, c *Catalog, p *indexFieldsParams) dispatch.Result {
			return c.createIndex(ctx, name, &p.TableRef, build(p.Fields...))
		})
}

// createIndex posts spec to the creation endpoint of its kind.
func (c *Catalog) createIndex(ctx context.Context, op string, table *TableRef, spec IndexSpec) dispatch.Result {
	if err := spec.Validate(); err != nil {
		return invalid(err.Error())
	}
	return c.execute(ctx, envelope.Intent{
		Operation: op,
		Method:    http.MethodPost,
		Locator:   table.locator(),
		Suffix:    "index/" + string(spec.Kind()),
		JSON:      spec.Body(),
	})
}
