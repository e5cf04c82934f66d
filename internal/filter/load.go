package filter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"
)

// LoadPatterns reads patterns from path. A file whose first non-blank character is '['
// is parsed as a JSONC array; anything else is one pattern per line with '#' comments.
func LoadPatterns(fs afero.Fs, path string) ([]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading patterns file %q: %w", path, err)
	}

	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		var patterns []string
		if err := json.Unmarshal(jsonc.ToJSONInPlace(data), &patterns); err != nil {
			return nil, fmt.Errorf("parsing patterns file %q: %w", path, err)
		}

		return patterns, nil
	}

	var patterns []string

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		patterns = append(patterns, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parsing patterns file %q: %w", path, err)
	}

	return patterns, nil
}
