package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/harukaze-lab/weavekit/internal/model"
)

// maxLineBytes caps a single JSON Lines record. Article-sized objects fit
// comfortably; anything larger is a malformed file.
const maxLineBytes = 1 << 20

// Record is one object to import: the property map plus its UUID.
type Record struct {
	ID         string
	Properties map[string]interface{}
}

// Load reads records from a dataset file. The format follows the file
// extension: .yaml/.yml is a YAML list of maps, .jsonl/.ndjson is one
// JSON object per line. Records without an "id" key are assigned a fresh
// UUID.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitConfigError,
			fmt.Sprintf("failed to read dataset %s", path),
			err,
		)
	}

	var maps []map[string]interface{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		maps, err = parseYAML(data)
	case ".jsonl", ".ndjson":
		maps, err = parseJSONLines(data)
	default:
		err = fmt.Errorf("unsupported dataset extension %q (want .yaml, .yml, .jsonl, or .ndjson)", ext)
	}
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitConfigError,
			fmt.Sprintf("failed to parse dataset %s", path),
			err,
		)
	}

	records, err := toRecords(maps)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitConfigError,
			fmt.Sprintf("invalid dataset %s", path),
			err,
		)
	}
	return records, nil
}

// parseYAML decodes a YAML list of objects.
func parseYAML(data []byte) ([]map[string]interface{}, error) {
	var maps []map[string]interface{}
	if err := yaml.Unmarshal(data, &maps); err != nil {
		return nil, err
	}
	return maps, nil
}

// parseJSONLines decodes one JSON object per non-blank line.
func parseJSONLines(data []byte) ([]map[string]interface{}, error) {
	var maps []map[string]interface{}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		maps = append(maps, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return maps, nil
}

// toRecords pulls the optional "id" key out of each map and fills missing
// IDs with generated UUIDs.
func toRecords(maps []map[string]interface{}) ([]Record, error) {
	if len(maps) == 0 {
		return nil, fmt.Errorf("dataset contains no objects")
	}

	records := make([]Record, 0, len(maps))
	for i, m := range maps {
		record := Record{Properties: m}

		if raw, ok := m["id"]; ok {
			id, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("object %d: id must be a string, got %T", i+1, raw)
			}
			record.ID = id
			delete(m, "id")
		} else {
			record.ID = uuid.NewString()
		}

		if len(record.Properties) == 0 {
			return nil, fmt.Errorf("object %d has no properties", i+1)
		}
		records = append(records, record)
	}
	return records, nil
}
