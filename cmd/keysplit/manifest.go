package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/keysplit/dataset"
	"github.com/arloliu/keysplit/keys"
	"github.com/arloliu/keysplit/types"
)

// manifest describes a dataset on disk:
//
//	name: run-a
//	entries:
//	  - key: {frame: f1, tile: t1}
//	    file: images/f1-t1.png
//	    contentType: image/png
//	    metadata: {exposure: 3, tags: [a, b]}
//
// File paths are relative to the manifest's directory.
type manifest struct {
	Name    string          `yaml:"name"`
	Entries []manifestEntry `yaml:"entries"`
}

type manifestEntry struct {
	Key         map[string]string `yaml:"key"`
	File        string            `yaml:"file"`
	ContentType string            `yaml:"contentType"`
	Metadata    any               `yaml:"metadata"`
}

// loadManifest reads a dataset manifest. File contents are read lazily.
func loadManifest(path string) (*dataset.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: manifest %s: %w", types.ErrInvalidConfig, path, err)
	}

	name := m.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	ds := dataset.New(name)
	dir := filepath.Dir(path)

	for i, e := range m.Entries {
		k, err := manifestKey(e.Key)
		if err != nil {
			return nil, fmt.Errorf("manifest %s entry %d: %w", path, i, err)
		}

		if e.File != "" {
			filePath := e.File
			if !filepath.IsAbs(filePath) {
				filePath = filepath.Join(dir, filePath)
			}
			if err := ds.AddFile(k, dataset.NewFile(e.ContentType, dataset.PathSource(filePath))); err != nil {
				return nil, fmt.Errorf("manifest %s entry %d: %w", path, i, err)
			}
		}

		if e.Metadata != nil {
			md, err := toMetadata(e.Metadata)
			if err != nil {
				return nil, fmt.Errorf("manifest %s entry %d: %w", path, i, err)
			}
			if err := ds.AddMetadata(k, md); err != nil {
				return nil, fmt.Errorf("manifest %s entry %d: %w", path, i, err)
			}
		}
	}

	return ds, nil
}

func manifestKey(m map[string]string) (keys.Key, error) {
	elems := make([]keys.Element, 0, len(m))
	for dim, id := range m {
		elems = append(elems, keys.NewElement(id, keys.Dimension(dim)))
	}

	return keys.NewKey(elems...)
}

// toMetadata converts a decoded YAML value into metadata. Scalars become
// fields, sequences become lists and mappings become maps.
func toMetadata(v any) (dataset.Metadata, error) {
	switch val := v.(type) {
	case bool:
		return dataset.BoolField(val), nil
	case int:
		return dataset.IntField(int64(val)), nil
	case float64:
		return dataset.FloatField(val), nil
	case string:
		return dataset.StringField(val), nil
	case []any:
		list := make(dataset.List, len(val))
		for i, item := range val {
			md, err := toMetadata(item)
			if err != nil {
				return nil, err
			}
			list[i] = md
		}

		return list, nil
	case map[string]any:
		out := make(dataset.Map, len(val))
		for name, item := range val {
			md, err := toMetadata(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			out[name] = md
		}

		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported metadata value %v (%T)", types.ErrInvalidConfig, v, v)
	}
}
