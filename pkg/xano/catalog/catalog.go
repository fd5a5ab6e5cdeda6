// Package catalog is the set of named operations over the Xano metadata API.
//
// Every operation is a declarative composition of a parameter struct, a
// locator, an HTTP verb, a path suffix, a body shape and an optional response
// reshaping step. Operations are invoked by name with named arguments, the way
// an agent runtime calls tools:
//
//	result := c.Invoke(ctx, "xano_list_tables", map[string]any{
//		"instance_name": "xnwv-v1z6-dvnr",
//		"workspace_id":  1,
//	})
//
// Invoke never panics and never returns a Go error: unknown names, invalid
// arguments and API failures all come back as dispatch.Result failures.
package catalog

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/iancoleman/strcase"

	"github.com/hashicorp-forge/xano-meta/pkg/xano/dispatch"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/envelope"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/locator"
)

// NamePrefix is shared by every operation name.
const NamePrefix = "xano_"

// Executor sends one intent and normalizes the outcome. *dispatch.Dispatcher
// implements it.
type Executor interface {
	Execute(ctx context.Context, intent envelope.Intent) dispatch.Result
}

// Options configures a Catalog.
type Options struct {
	// DomainSuffix is used to describe instances without a network call.
	// Default: locator.DefaultDomainSuffix
	DomainSuffix string

	// GlobalAPI is the account-wide metadata API root used for instance
	// discovery. Default: dispatch.DefaultGlobalAPI
	GlobalAPI string

	// FallbackInstances are returned, flagged as synthesized, when instance
	// discovery does not yield any instance data. Empty disables the fallback.
	FallbackInstances []FallbackInstance

	Logger hclog.Logger
}

// Catalog holds the registered operations and the executor they run on.
type Catalog struct {
	exec    Executor
	opts    Options
	logger  hclog.Logger
	ops     map[string]*Operation
	ordered []*Operation
}

// New returns a catalog with every built-in operation registered.
func New(exec Executor, opts Options) *Catalog {
	if opts.DomainSuffix == "" {
		opts.DomainSuffix = locator.DefaultDomainSuffix
	}
	if opts.GlobalAPI == "" {
		opts.GlobalAPI = dispatch.DefaultGlobalAPI
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	c := &Catalog{
		exec:   exec,
		opts:   opts,
		logger: opts.Logger.Named("catalog"),
		ops:    make(map[string]*Operation),
	}

	for _, family := range [][]*Operation{
		instanceOperations(),
		workspaceOperations(),
		tableOperations(),
		schemaOperations(),
		indexOperations(),
		contentOperations(),
		fileOperations(),
		historyOperations(),
		transferOperations(),
	} {
		for _, op := range family {
			c.register(op)
		}
	}

	return c
}

func (c *Catalog) register(op *Operation) {
	if _, exists := c.ops[op.Name]; exists {
		panic(fmt.Sprintf("catalog: operation %q registered twice", op.Name))
	}
	c.ops[op.Name] = op
	c.ordered = append(c.ordered, op)
}

// Operations returns every operation in registration order.
func (c *Catalog) Operations() []*Operation {
	out := make([]*Operation, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Names returns every operation name, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.ops))
	for name := range c.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds an operation by name. Besides the canonical name
// ("xano_list_tables") it accepts the name without prefix and any casing
// strcase can map onto it ("list-tables", "ListTables").
func (c *Catalog) Lookup(name string) (*Operation, bool) {
	op, ok := c.ops[CanonicalName(name)]
	return op, ok
}

// CanonicalName maps an operation alias onto its registered form.
func CanonicalName(name string) string {
	snake := strcase.ToSnake(strings.TrimSpace(name))
	if !strings.HasPrefix(snake, NamePrefix) {
		snake = NamePrefix + snake
	}
	return snake
}

// CommandName returns the kebab-case alias of an operation name, as used on
// the command line.
func CommandName(name string) string {
	return strcase.ToKebab(strings.TrimPrefix(name, NamePrefix))
}

// Invoke runs the named operation with named arguments.
func (c *Catalog) Invoke(ctx context.Context, name string, args map[string]any) dispatch.Result {
	op, ok := c.Lookup(name)
	if !ok {
		c.logger.Warn("unknown operation", "name", name)
		return dispatch.Fail(dispatch.NewFailure(dispatch.FailureInvalid,
			fmt.Sprintf("unknown operation %q", name), nil))
	}

	params, err := op.decode(args)
	if err != nil {
		c.logger.Warn("invalid arguments", "operation", op.Name, "error", err)
		return dispatch.Fail(dispatch.NewFailure(dispatch.FailureInvalid,
			fmt.Sprintf("invalid arguments for %s: %v", op.Name, err), err))
	}

	c.logger.Debug("invoking operation", "operation", op.Name)
	result := op.run(ctx, c, params)
	if !result.OK() {
		c.logger.Debug("operation failed", "operation", op.Name, "kind", result.Failure.Kind, "error", result.Failure.Message)
	}
	return result
}

// execute sends one intent on behalf of an operation.
func (c *Catalog) execute(ctx context.Context, intent envelope.Intent) dispatch.Result {
	return c.exec.Execute(ctx, intent)
}

// Operation is one named, parameterized request template.
type Operation struct {
	Name     string
	Family   string
	Synopsis string

	newParams func() any
	run       func(ctx context.Context, c *Catalog, params any) dispatch.Result
}

// defaulter is implemented by parameter structs with non-zero defaults. The
// defaults are applied before caller arguments are decoded over them.
type defaulter interface {
	applyDefaults()
}

// define builds an Operation from a typed run function.
func define[P any](family, name, synopsis string, run func(ctx context.Context, c *Catalog, p *P) dispatch.Result) *Operation {
	return &Operation{
		Name:     name,
		Family:   family,
		Synopsis: synopsis,
		newParams: func() any {
			p := new(P)
			if d, ok := any(p).(defaulter); ok {
				d.applyDefaults()
			}
			return p
		},
		run: func(ctx context.Context, c *Catalog, params any) dispatch.Result {
			return run(ctx, c, params.(*P))
		},
	}
}

// decode turns named arguments into the operation's parameter struct and
// validates it.
func (o *Operation) decode(args map[string]any) (any, error) {
	params := o.newParams()

	if err := decodeLoose(args, params); err != nil {
		return nil, err
	}

	if v, ok := params.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return params, nil
}

// Param describes one named parameter of an operation.
type Param struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
}

// Params lists the operation's named parameters with their defaults.
func (o *Operation) Params() []Param {
	v := reflect.ValueOf(o.newParams()).Elem()
	return collectParams(v)
}

func collectParams(v reflect.Value) []Param {
	var out []Param
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fv := v.Field(i)
		if sf.Anonymous && fv.Kind() == reflect.Struct {
			out = append(out, collectParams(fv)...)
			continue
		}
		name := strings.Split(sf.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" || !sf.IsExported() {
			continue
		}
		p := Param{
			Name:        name,
			Type:        typeName(sf.Type),
			Description: sf.Tag.Get("desc"),
		}
		if !fv.IsZero() {
			p.Default = fv.Interface()
		}
		out = append(out, p)
	}
	return out
}

func typeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Ptr:
		return typeName(t.Elem()) + " (optional)"
	case reflect.Slice:
		return "list of " + typeName(t.Elem())
	case reflect.Map:
		return "object"
	case reflect.Interface:
		return "any"
	case reflect.Struct:
		return "object"
	case reflect.Int, reflect.Int64:
		return "integer"
	case reflect.Bool:
		return "boolean"
	default:
		return t.Kind().String()
	}
}
