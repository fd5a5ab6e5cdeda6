package catalog

import (
	"context"
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hashicorp-forge/xano-meta/pkg/xano/dispatch"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/envelope"
)

const familyTransfer = "transfer"

type exportParams struct {
	WorkspaceRef
	Branch   *string `json:"branch" desc:"Branch to export; the live branch when unset"`
	Password *string `json:"password" desc:"Password to encrypt the export"`
}

func (p *exportParams) Validate() error {
	return validation.ValidateStruct(p, p.WorkspaceRef.rules()...)
}

func (p *exportParams) body() *envelope.Partial {
	body := envelope.NewPartial()
	if p.Branch != nil {
		envelope.PutNonEmpty(body, "branch", *p.Branch)
	}
	if p.Password != nil {
		envelope.PutNonEmpty(body, "password", *p.Password)
	}
	return body
}

type importParams struct {
	WorkspaceRef
	FilePath string  `json:"file_path" desc:"Path to the export file"`
	Password *string `json:"password" desc:"Password to decrypt the export"`
}

func (p *importParams) Validate() error {
	return validation.ValidateStruct(p, append(p.WorkspaceRef.rules(),
		validation.Field(&p.FilePath, validation.Required),
	)...)
}

type importSchemaParams struct {
	WorkspaceRef
	FilePath  string  `json:"file_path" desc:"Path to the schema export file"`
	Password  *string `json:"password" desc:"Password to decrypt the export"`
	NewBranch string  `json:"new_branch" desc:"Name for the new branch to create"`
	SetLive   bool    `json:"set_live" desc:"Whether to set the new branch as live"`
}

func (p *importSchemaParams) Validate() error {
	return validation.ValidateStruct(p, append(p.WorkspaceRef.rules(),
		validation.Field(&p.FilePath, validation.Required),
		validation.Field(&p.NewBranch, validation.Required),
	)...)
}

// passwordForm appends the optional password field to a multipart form.
func passwordForm(form []envelope.Param, password *string) []envelope.Param {
	if password != nil && *password != "" {
		form = append(form, envelope.Param{Key: "password", Value: *password})
	}
	return form
}

func transferOperations() []*Operation {
	return []*Operation{
		define(familyTransfer, "xano_export_workspace",
			"Export a workspace to a file",
			func(ctx context.Context, c *Catalog, p *exportParams) dispatch.Result {
				return c.execute(ctx, envelope.Intent{
					Operation: "xano_export_workspace",
					Method:    http.MethodPost,
					Locator:   p.locator(),
					Suffix:    "export",
					JSON:      p.body(),
				})
			}),
		define(familyTransfer, "xano_export_workspace_schema",
			"Export only the schema of a workspace to a file",
			func(ctx context.Context, c *Catalog, p *exportParams) dispatch.Result {
				return c.execute(ctx, envelope.Intent{
					Operation: "xano_export_workspace_schema",
					Method:    http.MethodPost,
					Locator:   p.locator(),
					Suffix:    "export-schema",
					JSON:      p.body(),
				})
			}),
		define(familyTransfer, "xano_import_workspace",
			"Import a workspace from an export file",
			func(ctx context.Context, c *Catalog, p *importParams) dispatch.Result {
				return c.execute(ctx, envelope.Intent{
					Operation:  "xano_import_workspace",
					Method:     http.MethodPost,
					Locator:    p.locator(),
					Suffix:     "import",
					Form:       passwordForm(nil, p.Password),
					Attachment: &envelope.Attachment{Field: "file", Path: p.FilePath},
				})
			}),
		define(familyTransfer, "xano_import_workspace_schema",
			"Import a workspace schema into a new branch",
			func(ctx context.Context, c *Catalog, p *importSchemaParams) dispatch.Result {
				form := []envelope.Param{
					{Key: "newbranch", Value: p.NewBranch},
					{Key: "setlive", Value: strconv.FormatBool(p.SetLive)},
				}
				return c.execute(ctx, envelope.Intent{
					Operation:  "xano_import_workspace_schema",
					Method:     http.MethodPost,
					Locator:    p.locator(),
					Suffix:     "import-schema",
					Form:       passwordForm(form, p.Password),
					Attachment: &envelope.Attachment{Field: "file", Path: p.FilePath},
				})
			}),
	}
}
