package catalog

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hashicorp-forge/xano-meta/pkg/xano/dispatch"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/envelope"
)

const familyContent = "content"

type browseContentParams struct {
	TableRef
	Paging
}

func (p *browseContentParams) Validate() error {
	return validation.ValidateStruct(p, append(p.TableRef.rules(), p.Paging.rules()...)...)
}

type searchContentParams struct {
	TableRef
	Searching
}

func (p *searchContentParams) Validate() error {
	return validation.ValidateStruct(p, append(p.TableRef.rules(), p.Searching.rules()...)...)
}

type recordParams struct {
	TableRef
	RecordID string `json:"record_id" desc:"The ID of the record"`
}

func (p *recordParams) Validate() error {
	return validation.ValidateStruct(p, append(p.TableRef.rules(),
		validation.Field(&p.RecordID, validation.Required, requiredID),
	)...)
}

type createRecordParams struct {
	TableRef
	RecordData map[string]any `json:"record_data" desc:"The data for the new record"`
}

func (p *createRecordParams) Validate() error {
	return validation.ValidateStruct(p, append(p.TableRef.rules(),
		validation.Field(&p.RecordData, validation.NotNil),
	)...)
}

type updateRecordParams struct {
	TableRef
	RecordID   string         `json:"record_id" desc:"The ID of the record to update"`
	RecordData map[string]any `json:"record_data" desc:"The fields to update"`
}

func (p *updateRecordParams) Validate() error {
	return validation.ValidateStruct(p, append(p.TableRef.rules(),
		validation.Field(&p.RecordID, validation.Required, requiredID),
		validation.Field(&p.RecordData, validation.Required),
	)...)
}

type searchUpdateParams struct {
	TableRef
	SearchConditions []envelope.Condition `json:"search_conditions" desc:"Conditions selecting the records to update"`
	Updates          map[string]any       `json:"updates" desc:"Field values to apply to every matching record"`
}

func (p *searchUpdateParams) Validate() error {
	return validation.ValidateStruct(p, append(p.TableRef.rules(),
		validation.Field(&p.SearchConditions, validation.Required),
		validation.Field(&p.Updates, validation.Required),
	)...)
}

type searchDeleteParams struct {
	TableRef
	SearchConditions []envelope.Condition `json:"search_conditions" desc:"Conditions selecting the records to delete"`
}

func (p *searchDeleteParams) Validate() error {
	return validation.ValidateStruct(p, append(p.TableRef.rules(),
		validation.Field(&p.SearchConditions, validation.Required),
	)...)
}

type bulkCreateParams struct {
	TableRef
	Records      []map[string]any `json:"records" desc:"The records to create"`
	AllowIDField bool             `json:"allow_id_field" desc:"Whether records may set the id field"`
}

func (p *bulkCreateParams) Validate() error {
	return validation.ValidateStruct(p, append(p.TableRef.rules(),
		validation.Field(&p.Records, validation.Required),
	)...)
}

type bulkUpdateParams struct {
	TableRef
	Updates []map[string]any `json:"updates" desc:"Record updates, each with an id and the fields to change"`
}

func (p *bulkUpdateParams) Validate() error {
	return validation.ValidateStruct(p, append(p.TableRef.rules(),
		validation.Field(&p.Updates, validation.Required),
	)...)
}

type bulkDeleteParams struct {
	TableRef
	RecordIDs []string `json:"record_ids" desc:"The IDs of the records to delete"`
}

func (p *bulkDeleteParams) Validate() error {
	return validation.ValidateStruct(p, append(p.TableRef.rules(),
		validation.Field(&p.RecordIDs, validation.Required, validation.Each(requiredID)),
	)...)
}

type truncateParams struct {
	TableRef
	Reset bool `json:"reset" desc:"Whether to reset the primary key counter"`
}

func (p *truncateParams) Validate() error {
	return validation.ValidateStruct(p, p.TableRef.rules()...)
}

// contentIntent is an intent on the live data of a table.
func contentIntent(op, method string, table *TableRef, suffix string, body any) envelope.Intent {
	return envelope.Intent{
		Operation: op,
		Method:    method,
		Locator:   table.locator(),
		Suffix:    suffix,
		JSON:      body,
		Live:      true,
	}
}

func contentOperations() []*Operation {
	return []*Operation{
		define(familyContent, "xano_browse_table_content",
			"Browse the records of a table page by page",
			func(ctx context.Context, c *Catalog, p *browseContentParams) dispatch.Result {
				intent := contentIntent("xano_browse_table_content", http.MethodGet, &p.TableRef, "content", nil)
				intent.Query = p.query()
				return c.execute(ctx, intent)
			}),
		define(familyContent, "xano_search_table_content",
			"Search the records of a table",
			func(ctx context.Context, c *Catalog, p *searchContentParams) dispatch.Result {
				return c.execute(ctx, contentIntent("xano_search_table_content", http.MethodPost,
					&p.TableRef, "content/search", p.body()))
			}),
		define(familyContent, "xano_get_table_record",
			"Get one record",
			func(ctx context.Context, c *Catalog, p *recordParams) dispatch.Result {
				intent := contentIntent("xano_get_table_record", http.MethodGet, &p.TableRef, "", nil)
				intent.Locator = intent.Locator.Record(p.RecordID)
				return c.execute(ctx, intent)
			}),
		define(familyContent, "xano_create_table_record",
			"Create one record",
			func(ctx context.Context, c *Catalog, p *createRecordParams) dispatch.Result {
				return c.execute(ctx, contentIntent("xano_create_table_record", http.MethodPost,
					&p.TableRef, "content", p.RecordData))
			}),
		define(familyContent, "xano_update_table_record",
			"Update the supplied fields of one record",
			func(ctx context.Context, c *Catalog, p *updateRecordParams) dispatch.Result {
				intent := contentIntent("xano_update_table_record", http.MethodPut, &p.TableRef, "", p.RecordData)
				intent.Locator = intent.Locator.Record(p.RecordID)
				return c.execute(ctx, intent)
			}),
		define(familyContent, "xano_delete_table_record",
			"Delete one record",
			func(ctx context.Context, c *Catalog, p *recordParams) dispatch.Result {
				intent := contentIntent("xano_delete_table_record", http.MethodDelete, &p.TableRef, "", nil)
				intent.Locator = intent.Locator.Record(p.RecordID)
				return c.execute(ctx, intent)
			}),
		define(familyContent, "xano_search_and_update_records",
			"Update every record matching the search conditions",
			func(ctx context.Context, c *Catalog, p *searchUpdateParams) dispatch.Result {
				return c.execute(ctx, contentIntent("xano_search_and_update_records", http.MethodPost,
					&p.TableRef, "content/search/patch", envelope.NewPartial().
						Set("search", p.SearchConditions).
						Set("updates", p.Updates)))
			}),
		define(familyContent, "xano_search_and_delete_records",
			"Delete every record matching the search conditions",
			func(ctx context.Context, c *Catalog, p *searchDeleteParams) dispatch.Result {
				return c.execute(ctx, contentIntent("xano_search_and_delete_records", http.MethodPost,
					&p.TableRef, "content/search/delete", envelope.NewPartial().
						Set("search", p.SearchConditions)))
			}),
		define(familyContent, "xano_bulk_create_records",
			"Create many records in one request",
			func(ctx context.Context, c *Catalog, p *bulkCreateParams) dispatch.Result {
				return c.execute(ctx, contentIntent("xano_bulk_create_records", http.MethodPost,
					&p.TableRef, "content/bulk", envelope.NewPartial().
						Set("items", p.Records).
						Set("allow_id_field", p.AllowIDField)))
			}),
		define(familyContent, "xano_bulk_update_records",
			"Update many records in one request",
			func(ctx context.Context, c *Catalog, p *bulkUpdateParams) dispatch.Result {
				return c.execute(ctx, contentIntent("xano_bulk_update_records", http.MethodPost,
					&p.TableRef, "content/bulk/patch", envelope.NewPartial().
						Set("items", p.Updates)))
			}),
		define(familyContent, "xano_bulk_delete_records",
			"Delete many records by id in one request",
			func(ctx context.Context, c *Catalog, p *bulkDeleteParams) dispatch.Result {
				return c.execute(ctx, contentIntent("xano_bulk_delete_records", http.MethodPost,
					&p.TableRef, "content/bulk/delete", envelope.NewPartial().
						Set("row_ids", normalizeIDs(p.RecordIDs))))
			}),
		define(familyContent, "xano_truncate_table",
			"Delete every record of a table",
			func(ctx context.Context, c *Catalog, p *truncateParams) dispatch.Result {
				return c.execute(ctx, contentIntent("xano_truncate_table", http.MethodDelete,
					&p.TableRef, "truncate", envelope.NewPartial().
						Set("reset", p.Reset)))
			}),
	}
}
