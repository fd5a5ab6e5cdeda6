package catalog

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hashicorp-forge/xano-meta/pkg/xano/dispatch"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/envelope"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/locator"
)

const familyHistory = "history"

// HistoryFilter narrows request history to an API group or query.
type HistoryFilter struct {
	APIID         *string `json:"api_id" desc:"Filter by API group ID"`
	QueryID       *string `json:"query_id" desc:"Filter by query ID"`
	IncludeOutput bool    `json:"include_output" desc:"Whether to include response output"`
}

type browseHistoryParams struct {
	WorkspaceRef
	Paging
	HistoryFilter
	Branch *string `json:"branch" desc:"Filter by branch"`
}

func (p *browseHistoryParams) Validate() error {
	return validation.ValidateStruct(p, append(p.WorkspaceRef.rules(), p.Paging.rules()...)...)
}

func (p *browseHistoryParams) query() envelope.Query {
	q := p.Paging.query()
	if p.Branch != nil {
		q = q.Add("branch", *p.Branch)
	}
	if p.APIID != nil {
		q = q.Add("api_id", *p.APIID)
	}
	if p.QueryID != nil {
		q = q.Add("query_id", *p.QueryID)
	}
	if p.IncludeOutput {
		q = q.Add("include_output", "true")
	}
	return q
}

type searchHistoryParams struct {
	WorkspaceRef
	Searching
	HistoryFilter
	BranchID *string `json:"branch_id" desc:"Filter by branch ID"`
}

func (p *searchHistoryParams) Validate() error {
	return validation.ValidateStruct(p, append(p.WorkspaceRef.rules(), p.Searching.rules()...)...)
}

func (p *searchHistoryParams) body() *envelope.Partial {
	body := p.Searching.body()
	for _, f := range []struct {
		key string
		id  *string
	}{{"branch_id", p.BranchID}, {"api_id", p.APIID}, {"query_id", p.QueryID}} {
		if f.id != nil {
			body.Set(f.key, locator.NormalizeID(*f.id))
		}
	}
	if p.IncludeOutput {
		body.Set("include_output", true)
	}
	return body
}

func historyOperations() []*Operation {
	return []*Operation{
		define(familyHistory, "xano_browse_request_history",
			"Browse the request history of a workspace",
			func(ctx context.Context, c *Catalog, p *browseHistoryParams) dispatch.Result {
				return c.execute(ctx, envelope.Intent{
					Operation: "xano_browse_request_history",
					Method:    http.MethodGet,
					Locator:   p.locator(),
					Suffix:    "request_history",
					Query:     p.query(),
				})
			}),
		define(familyHistory, "xano_search_request_history",
			"Search the request history of a workspace",
			func(ctx context.Context, c *Catalog, p *searchHistoryParams) dispatch.Result {
				return c.execute(ctx, envelope.Intent{
					Operation: "xano_search_request_history",
					Method:    http.MethodPost,
					Locator:   p.locator(),
					Suffix:    "request_history/search",
					JSON:      p.body(),
				})
			}),
	}
}
