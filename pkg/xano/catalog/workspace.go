package catalog

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hashicorp-forge/xano-meta/pkg/xano/dispatch"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/envelope"
)

const familyWorkspace = "workspace"

type workspaceParams struct {
	WorkspaceRef
}

func (p *workspaceParams) Validate() error {
	return validation.ValidateStruct(p, p.WorkspaceRef.rules()...)
}

func workspaceOperations() []*Operation {
	return []*Operation{
		define(familyWorkspace, "xano_list_databases",
			"List the workspaces (databases) of an instance",
			func(ctx context.Context, c *Catalog, p *instanceParams) dispatch.Result {
				return unwrapItems("databases", c.execute(ctx, envelope.Intent{
					Operation: "xano_list_databases",
					Method:    http.MethodGet,
					Locator:   p.locator(),
					Suffix:    "workspace",
				}))
			}),
		define(familyWorkspace, "xano_get_workspace_details",
			"Get the details of a workspace",
			func(ctx context.Context, c *Catalog, p *workspaceParams) dispatch.Result {
				return c.execute(ctx, envelope.Intent{
					Operation: "xano_get_workspace_details",
					Method:    http.MethodGet,
					Locator:   p.locator(),
				})
			}),
	}
}
