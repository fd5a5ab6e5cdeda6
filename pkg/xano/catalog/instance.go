package catalog

import (
	"context"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/tidwall/gjson"

	"github.com/hashicorp-forge/xano-meta/pkg/xano/dispatch"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/envelope"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/locator"
)

const familyInstance = "instance"

// FallbackInstance is a statically configured instance returned when instance
// discovery yields nothing.
type FallbackInstance struct {
	Name    string
	Display string
}

// InstanceDetails describes an instance. It is derived from the instance name
// alone.
type InstanceDetails struct {
	Name        string `json:"name"`
	Display     string `json:"display"`
	XanoDomain  string `json:"xano_domain"`
	RateLimit   bool   `json:"rate_limit"`
	MetaAPI     string `json:"meta_api"`
	MetaSwagger string `json:"meta_swagger"`
}

// DescribeInstance derives the details of an instance without a network call.
// An empty display name defaults to the upper-cased first dash-separated
// segment of the instance name.
func DescribeInstance(name, display, domainSuffix string) InstanceDetails {
	name = locator.NormalizeID(name)
	if display == "" {
		display = strings.ToUpper(strings.SplitN(name, "-", 2)[0])
	}
	domain := locator.Domain(name, domainSuffix)
	return InstanceDetails{
		Name:        name,
		Display:     display,
		XanoDomain:  domain,
		RateLimit:   false,
		MetaAPI:     locator.DomainRoot(name, domainSuffix),
		MetaSwagger: "https://" + domain + "/apispec:meta?type=json",
	}
}

type instanceList struct {
	Instances     []InstanceDetails `json:"instances"`
	Synthesized   bool              `json:"synthesized"`
	DiscoveryNote string            `json:"discovery_error,omitempty"`
}

type noParams struct{}

type instanceParams struct {
	InstanceRef
}

func (p *instanceParams) Validate() error {
	return validation.ValidateStruct(p, p.InstanceRef.rules()...)
}

func instanceOperations() []*Operation {
	return []*Operation{
		define(familyInstance, "xano_list_instances",
			"List the Xano instances the token can access",
			func(ctx context.Context, c *Catalog, _ *noParams) dispatch.Result {
				return c.listInstances(ctx)
			}),
		define(familyInstance, "xano_get_instance_details",
			"Describe a Xano instance: domain, metadata API root and swagger URL",
			func(_ context.Context, c *Catalog, p *instanceParams) dispatch.Result {
				return dispatch.SuccessValue(DescribeInstance(p.InstanceName, "", c.opts.DomainSuffix))
			}),
	}
}

// listInstances asks the account API which instances the token can see. When
// that yields no instance data and fallback instances are configured, those
// are returned with "synthesized": true so callers can tell them apart from
// discovered ones.
func (c *Catalog) listInstances(ctx context.Context) dispatch.Result {
	result := c.execute(ctx, envelope.Intent{
		Operation: "xano_list_instances",
		Method:    http.MethodGet,
		BaseURL:   c.opts.GlobalAPI,
		Suffix:    "auth/me",
	})

	if result.OK() {
		if instances := gjson.GetBytes(result.Data, "instances"); instances.Exists() && instances.IsArray() {
			return wrap("instances", dispatch.Success([]byte(instances.Raw)))
		}
	}

	reason := "account lookup returned no instance data"
	if !result.OK() {
		reason = result.Failure.Message
	}

	if len(c.opts.FallbackInstances) == 0 {
		if !result.OK() {
			return result
		}
		return dispatch.Fail(dispatch.NewFailure(dispatch.FailureDecode, reason, nil))
	}

	c.logger.Warn("instance discovery failed, using configured fallback instances", "reason", reason)
	list := instanceList{Synthesized: true, DiscoveryNote: reason}
	for _, fb := range c.opts.FallbackInstances {
		list.Instances = append(list.Instances, DescribeInstance(fb.Name, fb.Display, c.opts.DomainSuffix))
	}
	return dispatch.SuccessValue(list)
}
