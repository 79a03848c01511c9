// Package notebook rewrites Jupyter notebook documents so staged copies
// never carry execution results. Only two fields per code cell are mutable:
// execution_count becomes null and outputs becomes the empty list. Cell
// sources, metadata, and every other field pass through as raw JSON.
package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	nullValue  = json.RawMessage("null")
	emptyArray = json.RawMessage("[]")
)

// IsNotebook reports whether the path names a notebook document.
func IsNotebook(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".ipynb")
}

// Strip returns the document with every code cell's execution counter reset
// and outputs emptied. The transform is deterministic, so stripping an
// already-stripped document reproduces the same bytes.
func Strip(data []byte) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse notebook: %w", err)
	}

	rawCells, ok := doc["cells"]
	if ok {
		var cells []map[string]json.RawMessage
		if err := json.Unmarshal(rawCells, &cells); err != nil {
			return nil, fmt.Errorf("parse notebook cells: %w", err)
		}
		for _, cell := range cells {
			var cellType string
			if raw, ok := cell["cell_type"]; ok {
				if err := json.Unmarshal(raw, &cellType); err != nil {
					return nil, fmt.Errorf("parse cell type: %w", err)
				}
			}
			if cellType != "code" {
				continue
			}
			cell["execution_count"] = nullValue
			cell["outputs"] = emptyArray
		}
		stripped, err := json.Marshal(cells)
		if err != nil {
			return nil, fmt.Errorf("encode notebook cells: %w", err)
		}
		doc["cells"] = stripped
	}

	// The encoder re-indents nested raw values, so the whole document
	// comes out in one consistent layout.
	return marshalDocument(doc)
}

// StripFile rewrites the notebook at path in place, using a temp file and
// rename so a crash cannot truncate it. It reports whether the bytes
// changed.
func StripFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read notebook: %w", err)
	}
	stripped, err := Strip(data)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	if bytes.Equal(data, stripped) {
		return false, nil
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, stripped, 0o644); err != nil {
		return false, fmt.Errorf("write notebook: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return false, fmt.Errorf("replace notebook: %w", err)
	}
	return true, nil
}

// marshalDocument renders JSON with one-space indentation and unescaped
// text, matching the layout notebook tooling emits.
func marshalDocument(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode notebook: %w", err)
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
