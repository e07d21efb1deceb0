package source

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/keysplit/keys"
	"github.com/arloliu/keysplit/types"
)

// YAML lists keys from a YAML document.
//
// The document is a sequence of mappings from dimension name to element id:
//
//	- frame: frame1
//	  tile: t3
//	- frame: frame2
//	  tile: t3
type YAML struct {
	path string
	data []byte
}

var _ KeySource = (*YAML)(nil)

// NewYAMLFile creates a source that reads the document at path on every ListKeys call.
func NewYAMLFile(path string) *YAML {
	return &YAML{path: path}
}

// NewYAML creates a source over an in-memory document.
func NewYAML(data []byte) *YAML {
	return &YAML{data: slices.Clone(data)}
}

// ListKeys parses the document.
func (s *YAML) ListKeys(ctx context.Context) ([]keys.Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := s.data
	if s.path != "" {
		var err error
		if data, err = os.ReadFile(s.path); err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
	}

	return ParseYAMLKeys(data)
}

// ParseYAMLKeys parses a YAML sequence of dimension-to-element mappings.
//
// Returns:
//   - []keys.Key: Keys in document order
//   - error: ErrInvalidConfig for malformed documents, key construction errors otherwise
func ParseYAMLKeys(data []byte) ([]keys.Key, error) {
	var docs []map[string]string
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("%w: parse key list: %w", types.ErrInvalidConfig, err)
	}

	out := make([]keys.Key, 0, len(docs))
	for i, doc := range docs {
		elems := make([]keys.Element, 0, len(doc))
		for dim, id := range doc {
			if strings.TrimSpace(dim) == "" {
				return nil, fmt.Errorf("%w: key %d has an empty dimension name", types.ErrInvalidConfig, i)
			}
			elems = append(elems, keys.NewElement(id, keys.Dimension(dim)))
		}

		k, err := keys.NewKey(elems...)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		out = append(out, k)
	}

	return out, nil
}
