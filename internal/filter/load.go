package filter

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// LoadPatterns reads a JSONC array of doublestar patterns, with comments and trailing
// commas allowed. Every pattern is validated before it is returned, so a bad file fails
// when it is loaded rather than on the first match.
func LoadPatterns(path string) ([]string, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // user-selected pattern file
	if err != nil {
		return nil, fmt.Errorf("loading exclude file %q: %w", path, err)
	}

	var patterns []string
	if err := json.Unmarshal(jsonc.ToJSONInPlace(raw), &patterns); err != nil {
		return nil, fmt.Errorf("exclude file %q must hold a JSON array of strings: %w", path, err)
	}

	if err := Validate(patterns); err != nil {
		return nil, fmt.Errorf("exclude file %q: %w", path, err)
	}

	return patterns, nil
}
