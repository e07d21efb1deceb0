package dataset

import (
	"fmt"
	"slices"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/keysplit/keys"
	"github.com/arloliu/keysplit/types"
)

// Facet names one of the two independently keyed parts of a Dataset.
type Facet string

const (
	FacetFiles    Facet = "files"
	FacetMetadata Facet = "metadata"
)

// FileEntry is a file together with its key.
type FileEntry struct {
	Key  keys.Key
	File *File
}

// MetadataEntry is a metadata tree together with its key.
type MetadataEntry struct {
	Key      keys.Key
	Metadata Metadata
}

// Dataset is a keyed collection of files and metadata.
//
// A key may carry a file, a metadata tree, or both. Insertion is safe for
// concurrent use; reads return sorted snapshots.
type Dataset struct {
	name     string
	files    *xsync.Map[string, FileEntry]
	metadata *xsync.Map[string, MetadataEntry]
}

// New creates an empty dataset.
func New(name string) *Dataset {
	return &Dataset{
		name:     name,
		files:    xsync.NewMap[string, FileEntry](),
		metadata: xsync.NewMap[string, MetadataEntry](),
	}
}

// Name returns the dataset name.
func (d *Dataset) Name() string {
	return d.name
}

// AddFile stores f under k.
//
// Returns:
//   - error: ErrDuplicateRegistration if k already has a file, ErrInvalidConfig if f is nil
func (d *Dataset) AddFile(k keys.Key, f *File) error {
	if f == nil {
		return fmt.Errorf("%w: nil file for key %s", types.ErrInvalidConfig, k)
	}
	if _, loaded := d.files.LoadOrStore(keys.ID(k), FileEntry{Key: k, File: f}); loaded {
		return fmt.Errorf("%w: file for key %s in dataset %q", types.ErrDuplicateRegistration, k, d.name)
	}

	return nil
}

// AddMetadata stores m under k.
//
// Returns:
//   - error: ErrDuplicateRegistration if k already has metadata, ErrInvalidConfig if m is nil
func (d *Dataset) AddMetadata(k keys.Key, m Metadata) error {
	if m == nil {
		return fmt.Errorf("%w: nil metadata for key %s", types.ErrInvalidConfig, k)
	}
	if _, loaded := d.metadata.LoadOrStore(keys.ID(k), MetadataEntry{Key: k, Metadata: m}); loaded {
		return fmt.Errorf("%w: metadata for key %s in dataset %q", types.ErrDuplicateRegistration, k, d.name)
	}

	return nil
}

// File returns the file stored under k.
func (d *Dataset) File(k keys.Key) (*File, bool) {
	e, ok := d.files.Load(keys.ID(k))
	return e.File, ok
}

// Metadata returns the metadata stored under k.
func (d *Dataset) Metadata(k keys.Key) (Metadata, bool) {
	e, ok := d.metadata.Load(keys.ID(k))
	return e.Metadata, ok
}

// Files returns the file entries in key order.
func (d *Dataset) Files() []FileEntry {
	out := make([]FileEntry, 0, d.files.Size())
	d.files.Range(func(_ string, e FileEntry) bool {
		out = append(out, e)
		return true
	})
	sortEntries(out, func(e FileEntry) keys.Key { return e.Key })

	return out
}

// MetadataEntries returns the metadata entries in key order.
func (d *Dataset) MetadataEntries() []MetadataEntry {
	out := make([]MetadataEntry, 0, d.metadata.Size())
	d.metadata.Range(func(_ string, e MetadataEntry) bool {
		out = append(out, e)
		return true
	})
	sortEntries(out, func(e MetadataEntry) keys.Key { return e.Key })

	return out
}

// FileKeys returns the keys that carry a file, in key order.
func (d *Dataset) FileKeys() []keys.Key {
	entries := d.Files()
	out := make([]keys.Key, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}

	return out
}

// MetadataKeys returns the keys that carry metadata, in key order.
func (d *Dataset) MetadataKeys() []keys.Key {
	entries := d.MetadataEntries()
	out := make([]keys.Key, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}

	return out
}

// AllKeys returns every key of either facet, in key order.
func (d *Dataset) AllKeys() []keys.Key {
	set := keys.NewKeySet(d.FileKeys()...)
	set.Add(d.MetadataKeys()...)

	return set.Keys()
}

// FileCount returns the number of files.
func (d *Dataset) FileCount() int {
	return d.files.Size()
}

// MetadataCount returns the number of metadata entries.
func (d *Dataset) MetadataCount() int {
	return d.metadata.Size()
}

// IsEmpty reports whether the dataset holds neither files nor metadata.
func (d *Dataset) IsEmpty() bool {
	return d.files.Size() == 0 && d.metadata.Size() == 0
}

// Keyspace builds the keyspace of all keys in the dataset.
func (d *Dataset) Keyspace() *keys.Keyspace {
	ks := keys.NewKeyspace()
	d.files.Range(func(_ string, e FileEntry) bool {
		ks.AddKey(e.Key)
		return true
	})
	d.metadata.Range(func(_ string, e MetadataEntry) bool {
		ks.AddKey(e.Key)
		return true
	})

	return ks
}

// Slice returns a dataset with the files and metadata whose keys f accepts.
//
// Entries are shared, not copied; file content stays lazy.
func (d *Dataset) Slice(f keys.Filter) *Dataset {
	out := New(d.name)
	d.copyFiles(out, f)
	d.copyMetadata(out, f)

	return out
}

// SliceFiles is like Slice but keeps only the files facet.
func (d *Dataset) SliceFiles(f keys.Filter) *Dataset {
	out := New(d.name)
	d.copyFiles(out, f)

	return out
}

// SliceMetadata is like Slice but keeps only the metadata facet.
func (d *Dataset) SliceMetadata(f keys.Filter) *Dataset {
	out := New(d.name)
	d.copyMetadata(out, f)

	return out
}

func (d *Dataset) copyFiles(dst *Dataset, f keys.Filter) {
	d.files.Range(func(id string, e FileEntry) bool {
		if f.Accept(e.Key) {
			dst.files.LoadOrStore(id, e)
		}

		return true
	})
}

func (d *Dataset) copyMetadata(dst *Dataset, f keys.Filter) {
	d.metadata.Range(func(id string, e MetadataEntry) bool {
		if f.Accept(e.Key) {
			dst.metadata.LoadOrStore(id, e)
		}

		return true
	})
}

// Union merges datasets into a new one named name. When several datasets hold
// an entry for the same key and facet, the first one wins.
func Union(name string, datasets ...*Dataset) *Dataset {
	out := New(name)
	all := keys.FilterFunc(func(keys.Key) bool { return true })
	for _, d := range datasets {
		d.copyFiles(out, all)
		d.copyMetadata(out, all)
	}

	return out
}

func sortEntries[E any](entries []E, keyOf func(E) keys.Key) {
	slices.SortFunc(entries, func(a, b E) int {
		return keys.CompareKeys(keyOf(a), keyOf(b))
	})
}
