package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const rulesSchemaURL = "punchlog://rules.schema.json"

// rulesSchema is compiled once; BuildRulesJSONSchema is a constant document.
var rulesSchema = mustCompileRulesSchema()

// BuildRulesJSONSchema returns the JSON-Schema (draft 2020-12 subset) a rules file must satisfy.
func BuildRulesJSONSchema() map[string]any {
	pattern := map[string]any{"type": "string", "minLength": 1}
	tokens := map[string]any{
		"type":     "array",
		"minItems": 1,
		"items":    map[string]any{"type": "string", "pattern": `^\S+$`},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"header_pattern":  pattern,
			"user_id_pattern": pattern,
			"time_pattern":    pattern,
			"in_tokens":       tokens,
			"out_tokens":      tokens,
			"date_layout":     pattern,
			"time_layout":     pattern,
			"require_user_id": map[string]any{"type": "boolean"},
		},
	}
}

func mustCompileRulesSchema() *jsonschema.Schema {
	b, err := json.Marshal(BuildRulesJSONSchema())
	if err != nil {
		panic(fmt.Sprintf("marshal rules schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(rulesSchemaURL, bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add rules schema: %v", err))
	}
	return compiler.MustCompile(rulesSchemaURL)
}

// validateRulesJSON checks a rules document, already converted to JSON,
// against the rules schema. The error lists every offending key.
func validateRulesJSON(js []byte) error {
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode rules: %w", err)
	}
	err := rulesSchema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate rules: %w", err)
	}
	return fmt.Errorf("invalid rules: %s: %w", strings.Join(rulesViolations(ve), "; "), err)
}

// rulesViolations flattens a validation error tree into "key: message" lines,
// one per leaf, sorted for stable output.
func rulesViolations(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		key := strings.TrimPrefix(ve.InstanceLocation, "/")
		if key == "" {
			key = "(root)"
		}
		return []string{key + ": " + ve.Message}
	}
	var out []string
	for _, c := range ve.Causes {
		out = append(out, rulesViolations(c)...)
	}
	sort.Strings(out)
	return out
}
