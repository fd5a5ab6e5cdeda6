package catalog

import (
	"context"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hashicorp-forge/xano-meta/pkg/xano/dispatch"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/envelope"
)

const familyTable = "table"

type listTablesParams struct {
	WorkspaceRef
	// DatabaseName is the historical name of workspace_id.
	DatabaseName string `json:"database_name" desc:"Alias of workspace_id"`
}

// Validate also folds database_name into workspace_id.
func (p *listTablesParams) Validate() error {
	if p.WorkspaceID == "" {
		p.WorkspaceID = p.DatabaseName
	}
	return validation.ValidateStruct(p, p.WorkspaceRef.rules()...)
}

type tableParams struct {
	TableRef
}

func (p *tableParams) Validate() error {
	return validation.ValidateStruct(p, p.TableRef.rules()...)
}

type createTableParams struct {
	WorkspaceRef
	Name        string   `json:"name" desc:"The name of the new table"`
	Description string   `json:"description" desc:"Table description"`
	Docs        string   `json:"docs" desc:"Documentation text"`
	Auth        bool     `json:"auth" desc:"Whether authentication is required"`
	Tag         []string `json:"tag" desc:"Tags for the table"`
}

func (p *createTableParams) Validate() error {
	return validation.ValidateStruct(p, append(p.WorkspaceRef.rules(),
		validation.Field(&p.Name, validation.Required))...)
}

func (p *createTableParams) body() *envelope.Partial {
	body := envelope.NewPartial().
		Set("name", p.Name).
		Set("description", p.Description).
		Set("docs", p.Docs).
		Set("auth", p.Auth)
	if len(p.Tag) > 0 {
		body.Set("tag", p.Tag)
	}
	return body
}

type updateTableParams struct {
	TableRef
	Name        *string   `json:"name" desc:"New name for the table"`
	Description *string   `json:"description" desc:"New description"`
	Docs        *string   `json:"docs" desc:"New documentation text"`
	Auth        *bool     `json:"auth" desc:"New authentication setting"`
	Tag         *[]string `json:"tag" desc:"New tags for the table"`
}

func (p *updateTableParams) body() *envelope.Partial {
	body := envelope.NewPartial()
	envelope.Put(body, "name", p.Name)
	envelope.Put(body, "description", p.Description)
	envelope.Put(body, "docs", p.Docs)
	envelope.Put(body, "auth", p.Auth)
	envelope.Put(body, "tag", p.Tag)
	return body
}

func (p *updateTableParams) Validate() error {
	if err := validation.ValidateStruct(p, p.TableRef.rules()...); err != nil {
		return err
	}
	if p.body().Len() == 0 {
		return errors.New("at least one of name, description, docs, auth or tag must be provided")
	}
	return nil
}

func tableOperations() []*Operation {
	return []*Operation{
		define(familyTable, "xano_list_tables",
			"List the tables of a workspace",
			func(ctx context.Context, c *Catalog, p *listTablesParams) dispatch.Result {
				return unwrapItems("tables", c.execute(ctx, envelope.Intent{
					Operation: "xano_list_tables",
					Method:    http.MethodGet,
					Locator:   p.locator(),
					Suffix:    "table",
				}))
			}),
		define(familyTable, "xano_get_table_details",
			"Get the details of a table",
			func(ctx context.Context, c *Catalog, p *tableParams) dispatch.Result {
				return c.execute(ctx, envelope.Intent{
					Operation: "xano_get_table_details",
					Method:    http.MethodGet,
					Locator:   p.locator(),
				})
			}),
		define(familyTable, "xano_create_table",
			"Create a new table in a workspace",
			func(ctx context.Context, c *Catalog, p *createTableParams) dispatch.Result {
				return c.execute(ctx, envelope.Intent{
					Operation: "xano_create_table",
					Method:    http.MethodPost,
					Locator:   p.WorkspaceRef.locator(),
					Suffix:    "table",
					JSON:      p.body(),
				})
			}),
		define(familyTable, "xano_update_table",
			"Update table metadata; only the supplied fields change",
			func(ctx context.Context, c *Catalog, p *updateTableParams) dispatch.Result {
				return c.execute(ctx, envelope.Intent{
					Operation: "xano_update_table",
					Method:    http.MethodPut,
					Locator:   p.locator(),
					Suffix:    "meta",
					JSON:      p.body(),
				})
			}),
		define(familyTable, "xano_delete_table",
			"Delete a table",
			func(ctx context.Context, c *Catalog, p *tableParams) dispatch.Result {
				return c.execute(ctx, envelope.Intent{
					Operation: "xano_delete_table",
					Method:    http.MethodDelete,
					Locator:   p.locator(),
				})
			}),
	}
}
