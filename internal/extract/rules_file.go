package extract

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/punchlog/internal/common"
)

// LoadRules reads a YAML (or JSON) rules file. Keys left out keep their
// DefaultRules value. The file is checked against BuildRulesJSONSchema and the
// resulting rules must compile.
func LoadRules(path string) (Rules, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, common.WrapError(err, "read rules")
	}
	rules, err := ParseRules(b)
	if err != nil {
		return Rules{}, common.NewAppError(common.CodeRules, path, err)
	}
	return rules, nil
}

// ParseRules decodes rules from YAML or JSON bytes over DefaultRules.
func ParseRules(b []byte) (Rules, error) {
	rules := DefaultRules()

	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return Rules{}, fmt.Errorf("parse rules: %w", err)
	}
	if doc == nil {
		return rules, nil
	}

	// yaml -> json so the schema validator and decoder see plain JSON types
	js, err := json.Marshal(doc)
	if err != nil {
		return Rules{}, fmt.Errorf("convert rules: %w", err)
	}
	if err := validateRulesJSON(js); err != nil {
		return Rules{}, err
	}
	if err := json.Unmarshal(js, &rules); err != nil {
		return Rules{}, fmt.Errorf("decode rules: %w", err)
	}
	if _, err := rules.compile(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}
