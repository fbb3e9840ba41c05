package constraints

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaResource = "param.schema.json"

func compileSchema(doc string) (*jsonschema.Schema, error) {
	parsed, err := jsonschema.UnmarshalJSON(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("constraints: invalid schema JSON: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()
	if err := compiler.AddResource(schemaResource, parsed); err != nil {
		return nil, fmt.Errorf("constraints: failed to add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("constraints: failed to compile schema: %w", err)
	}
	return schema, nil
}

// checkSchema validates the JSON form of v. Coerced values such as time.Time,
// uuid.UUID and enum values serialize to their wire representation first.
func (s *Set) checkSchema(v any) *Violation {
	raw, err := json.Marshal(v)
	if err != nil {
		return &Violation{Rule: RuleSchema, Message: "value cannot be represented as JSON: " + err.Error()}
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &Violation{Rule: RuleSchema, Message: "value cannot be represented as JSON: " + err.Error()}
	}

	err = s.schema.Validate(instance)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		return &Violation{Rule: RuleSchema, Message: schemaMessage(leafError(verr))}
	}
	return &Violation{Rule: RuleSchema, Message: err.Error()}
}

// leafError follows the first cause chain down to the most specific error.
func leafError(verr *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	return verr
}

func schemaMessage(verr *jsonschema.ValidationError) string {
	lines := strings.Split(strings.TrimSpace(verr.Error()), "\n")
	msg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[len(lines)-1]), "- "))
	return "does not match schema: " + msg
}
