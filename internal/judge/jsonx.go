package judge

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Model output rarely arrives as clean JSON: it gets wrapped in code
// fences or prefixed with prose. Pre-compiled patterns for the recovery
// strategies.
var (
	codeFenceRegex = regexp.MustCompile("(?s)```(?:json)?\\s*\n?([\\s\\S]*?)\n?```")
	objectRegex    = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
)

// ExtractJSON unmarshals the first JSON object found in an LLM response
// into v. Strategy sequence: direct parse, code-fence contents, then the
// outermost brace-delimited span. Callers treat failure as "no result",
// never as a fatal error.
func ExtractJSON(text string, v any) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("empty response")
	}

	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return nil
	}

	if m := codeFenceRegex.FindStringSubmatch(trimmed); m != nil {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), v); err == nil {
			return nil
		}
	}

	if obj := objectRegex.FindString(trimmed); obj != "" {
		if err := json.Unmarshal([]byte(obj), v); err == nil {
			return nil
		}
	}

	return fmt.Errorf("no parseable JSON object in response")
}
