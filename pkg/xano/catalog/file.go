package catalog

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hashicorp-forge/xano-meta/pkg/xano/dispatch"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/envelope"
)

const familyFile = "file"

type listFilesParams struct {
	WorkspaceRef
	Paging
	Search *string `json:"search" desc:"Search term for filenames"`
	Access *string `json:"access" desc:"Filter by access level: public or private"`
	Sort   *string `json:"sort" desc:"Field to sort by: created_at, name, size or mime"`
	Order  string  `json:"order" desc:"Sort order: asc or desc; used with sort"`
}

func (p *listFilesParams) applyDefaults() {
	p.Paging.applyDefaults()
	p.Order = "desc"
}

func (p *listFilesParams) Validate() error {
	return validation.ValidateStruct(p, append(append(p.WorkspaceRef.rules(), p.Paging.rules()...),
		validation.Field(&p.Access, accessLevel),
		validation.Field(&p.Sort, validation.In("created_at", "name", "size", "mime")),
		validation.Field(&p.Order, sortDirection),
	)...)
}

func (p *listFilesParams) query() envelope.Query {
	q := p.Paging.query()
	if p.Search != nil {
		q = q.Add("search", *p.Search)
	}
	if p.Access != nil {
		q = q.Add("access", *p.Access)
	}
	if p.Sort != nil {
		q = q.Add("sort", *p.Sort).Add("order", p.Order)
	}
	return q
}

type uploadFileParams struct {
	WorkspaceRef
	FilePath   string  `json:"file_path" desc:"Path to the file to upload"`
	FileType   *string `json:"file_type" desc:"File type, e.g. image for image files"`
	FileAccess string  `json:"file_access" desc:"Access level: public or private"`
}

func (p *uploadFileParams) applyDefaults() {
	p.FileAccess = "public"
}

func (p *uploadFileParams) Validate() error {
	return validation.ValidateStruct(p, append(p.WorkspaceRef.rules(),
		validation.Field(&p.FilePath, validation.Required),
		validation.Field(&p.FileAccess, accessLevel),
	)...)
}

func (p *uploadFileParams) form() []envelope.Param {
	var form []envelope.Param
	if p.FileType != nil && *p.FileType != "" {
		form = append(form, envelope.Param{Key: "type", Value: *p.FileType})
	}
	if p.FileAccess != "" {
		form = append(form, envelope.Param{Key: "access", Value: p.FileAccess})
	}
	return form
}

type fileParams struct {
	WorkspaceRef
	FileID string `json:"file_id" desc:"The ID of the file"`
}

func (p *fileParams) Validate() error {
	return validation.ValidateStruct(p, append(p.WorkspaceRef.rules(),
		validation.Field(&p.FileID, validation.Required, requiredID),
	)...)
}

type bulkDeleteFilesParams struct {
	WorkspaceRef
	FileIDs []string `json:"file_ids" desc:"The IDs of the files to delete"`
}

func (p *bulkDeleteFilesParams) Validate() error {
	return validation.ValidateStruct(p, append(p.WorkspaceRef.rules(),
		validation.Field(&p.FileIDs, validation.Required, validation.Each(requiredID)),
	)...)
}

// fileIntent is an intent on the workspace file store. File operations read
// and write live data, like record operations.
func fileIntent(op, method string, ws *WorkspaceRef, suffix string) envelope.Intent {
	return envelope.Intent{
		Operation: op,
		Method:    method,
		Locator:   ws.locator(),
		Suffix:    suffix,
		Live:      true,
	}
}

func fileOperations() []*Operation {
	return []*Operation{
		define(familyFile, "xano_list_files",
			"List the files of a workspace",
			func(ctx context.Context, c *Catalog, p *listFilesParams) dispatch.Result {
				intent := fileIntent("xano_list_files", http.MethodGet, &p.WorkspaceRef, "file")
				intent.Query = p.query()
				return c.execute(ctx, intent)
			}),
		define(familyFile, "xano_upload_file",
			"Upload a local file to a workspace",
			func(ctx context.Context, c *Catalog, p *uploadFileParams) dispatch.Result {
				intent := fileIntent("xano_upload_file", http.MethodPost, &p.WorkspaceRef, "file")
				intent.Attachment = &envelope.Attachment{Field: "content", Path: p.FilePath}
				intent.Form = p.form()
				return c.execute(ctx, intent)
			}),
		define(familyFile, "xano_get_file_details",
			"Get the details of a file",
			func(ctx context.Context, c *Catalog, p *fileParams) dispatch.Result {
				intent := fileIntent("xano_get_file_details", http.MethodGet, &p.WorkspaceRef, "")
				intent.Locator = intent.Locator.File(p.FileID)
				return c.execute(ctx, intent)
			}),
		define(familyFile, "xano_delete_file",
			"Delete a file",
			func(ctx context.Context, c *Catalog, p *fileParams) dispatch.Result {
				intent := fileIntent("xano_delete_file", http.MethodDelete, &p.WorkspaceRef, "")
				intent.Locator = intent.Locator.File(p.FileID)
				return c.execute(ctx, intent)
			}),
		define(familyFile, "xano_bulk_delete_files",
			"Delete many files by id in one request",
			func(ctx context.Context, c *Catalog, p *bulkDeleteFilesParams) dispatch.Result {
				intent := fileIntent("xano_bulk_delete_files", http.MethodDelete, &p.WorkspaceRef, "file/bulk_delete")
				intent.JSON = envelope.NewPartial().Set("ids", normalizeIDs(p.FileIDs))
				return c.execute(ctx, intent)
			}),
	}
}
