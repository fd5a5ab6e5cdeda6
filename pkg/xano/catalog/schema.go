package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/hashicorp-forge/xano-meta/pkg/xano/dispatch"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/envelope"
)

const familySchema = "schema"

// FieldDescriptor is one column of a table schema as the schema endpoint
// expects it on write.
type FieldDescriptor struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Nullable    bool           `json:"nullable"`
	Required    bool           `json:"required"`
	Access      string         `json:"access"`
	Sensitive   bool           `json:"sensitive"`
	Style       string         `json:"style"`
	Default     any            `json:"default,omitempty"`
	Validators  map[string]any `json:"validators,omitempty"`
}

type addFieldParams struct {
	TableRef
	FieldName   string         `json:"field_name" desc:"The name of the new field"`
	FieldType   string         `json:"field_type" desc:"Field type, e.g. text, int, decimal, boolean, date"`
	Description string         `json:"description" desc:"Field description"`
	Nullable    bool           `json:"nullable" desc:"Whether the field can be null"`
	Default     any            `json:"default" desc:"Default value for the field"`
	Required    bool           `json:"required" desc:"Whether the field is required"`
	Access      string         `json:"access" desc:"Field access level: public, private or internal"`
	Sensitive   bool           `json:"sensitive" desc:"Whether the field contains sensitive data"`
	Style       string         `json:"style" desc:"Field style: single or list"`
	Validators  map[string]any `json:"validators" desc:"Validation rules, applied to text fields only"`
}

func (p *addFieldParams) applyDefaults() {
	p.Access = "public"
	p.Style = "single"
}

func (p *addFieldParams) Validate() error {
	return validation.ValidateStruct(p, append(p.TableRef.rules(),
		validation.Field(&p.FieldName, validation.Required),
		validation.Field(&p.FieldType, validation.Required),
		validation.Field(&p.Access, validation.Required, validation.In("public", "private", "internal")),
		validation.Field(&p.Style, validation.Required, validation.In("single", "list")),
	)...)
}

func (p *addFieldParams) descriptor() FieldDescriptor {
	fd := FieldDescriptor{
		Name:        p.FieldName,
		Type:        p.FieldType,
		Description: p.Description,
		Nullable:    p.Nullable,
		Required:    p.Required,
		Access:      p.Access,
		Sensitive:   p.Sensitive,
		Style:       p.Style,
		Default:     p.Default,
	}
	if p.FieldType == "text" && len(p.Validators) > 0 {
		fd.Validators = p.Validators
	}
	return fd
}

type updateSchemaParams struct {
	TableRef
	Schema []map[string]any `json:"schema" desc:"The complete list of field descriptors"`
}

func (p *updateSchemaParams) Validate() error {
	return validation.ValidateStruct(p, append(p.TableRef.rules(),
		validation.Field(&p.Schema, validation.NotNil, validation.Each(validation.By(hasFieldName))),
	)...)
}

func hasFieldName(value any) error {
	field, _ := value.(map[string]any)
	if name, _ := field["name"].(string); name == "" {
		return fmt.Errorf("every field needs a name")
	}
	return nil
}

type renameFieldParams struct {
	TableRef
	OldName string `json:"old_name" desc:"Current field name"`
	NewName string `json:"new_name" desc:"New field name"`
}

func (p *renameFieldParams) Validate() error {
	return validation.ValidateStruct(p, append(p.TableRef.rules(),
		validation.Field(&p.OldName, validation.Required),
		validation.Field(&p.NewName, validation.Required),
	)...)
}

type fieldParams struct {
	TableRef
	FieldName string `json:"field_name" desc:"The name of the field"`
}

func (p *fieldParams) Validate() error {
	return validation.ValidateStruct(p, append(p.TableRef.rules(),
		validation.Field(&p.FieldName, validation.Required, requiredID),
	)...)
}

func schemaOperations() []*Operation {
	return []*Operation{
		define(familySchema, "xano_get_table_schema",
			"Get the schema of a table",
			func(ctx context.Context, c *Catalog, p *tableParams) dispatch.Result {
				return wrap("schema", c.getSchema(ctx, "xano_get_table_schema", &p.TableRef))
			}),
		define(familySchema, "xano_update_table_schema",
			"Replace the complete schema of a table",
			func(ctx context.Context, c *Catalog, p *updateSchemaParams) dispatch.Result {
				return c.putSchema(ctx, "xano_update_table_schema", &p.TableRef, p.Schema)
			}),
		define(familySchema, "xano_add_field_to_schema",
			"Append a field to a table schema",
			func(ctx context.Context, c *Catalog, p *addFieldParams) dispatch.Result {
				return c.addField(ctx, &p.TableRef, p.descriptor())
			}),
		define(familySchema, "xano_rename_schema_field",
			"Rename a field in a table schema",
			func(ctx context.Context, c *Catalog, p *renameFieldParams) dispatch.Result {
				return c.execute(ctx, envelope.Intent{
					Operation: "xano_rename_schema_field",
					Method:    http.MethodPost,
					Locator:   p.locator(),
					Suffix:    "schema/rename",
					JSON: envelope.NewPartial().
						Set("old_name", p.OldName).
						Set("new_name", p.NewName),
				})
			}),
		define(familySchema, "xano_get_field_schema",
			"Get the schema of a single field",
			func(ctx context.Context, c *Catalog, p *fieldParams) dispatch.Result {
				return c.execute(ctx, envelope.Intent{
					Operation: "xano_get_field_schema",
					Method:    http.MethodGet,
					Locator:   p.locator().Field(p.FieldName),
				})
			}),
		define(familySchema, "xano_delete_field",
			"Delete a field from a table schema",
			func(ctx context.Context, c *Catalog, p *fieldParams) dispatch.Result {
				return c.execute(ctx, envelope.Intent{
					Operation: "xano_delete_field",
					Method:    http.MethodDelete,
					Locator:   p.locator().Field(p.FieldName),
				})
			}),
	}
}

func (c *Catalog) getSchema(ctx context.Context, op string, table *TableRef) dispatch.Result {
	return c.execute(ctx, envelope.Intent{
		Operation: op,
		Method:    http.MethodGet,
		Locator:   table.locator(),
		Suffix:    "schema",
	})
}

func (c *Catalog) putSchema(ctx context.Context, op string, table *TableRef, schema any) dispatch.Result {
	return c.execute(ctx, envelope.Intent{
		Operation: op,
		Method:    http.MethodPut,
		Locator:   table.locator(),
		Suffix:    "schema",
		JSON:      envelope.NewPartial().Set("schema", schema),
	})
}

// addField reads the current schema, appends field and writes the whole list
// back. The read and the write are two exchanges with nothing in between: a
// schema change made by someone else between them is overwritten.
func (c *Catalog) addField(ctx context.Context, table *TableRef, field FieldDescriptor) dispatch.Result {
	const op = "xano_add_field_to_schema"

	current := c.getSchema(ctx, op, table)
	if !current.OK() {
		return current
	}

	schema := gjson.ParseBytes(current.Data)
	if !schema.IsArray() {
		return dispatch.Fail(&dispatch.Failure{
			Kind:    dispatch.FailureDecode,
			Message: "table schema is not a list of fields",
		})
	}

	updated, err := sjson.SetBytes([]byte(schema.Raw), "-1", field)
	if err != nil {
		return dispatch.Fail(dispatch.NewFailure(dispatch.FailureRequest, "failed to append field to schema", err))
	}

	c.logger.Debug("appending field to schema", "table", table.locator().String(), "field", field.Name,
		"fields", len(schema.Array())+1)
	return c.putSchema(ctx, op, table, json.RawMessage(updated))
}
