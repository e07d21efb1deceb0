package dataset

import (
	"bytes"
	"fmt"
	"os"
)

// ContentSource supplies file bytes on demand.
type ContentSource interface {
	// Read returns the full content.
	Read() ([]byte, error)
}

// Sizer is implemented by sources that know their length without reading.
//
// FilesEqual uses it to tell files apart without loading them.
type Sizer interface {
	// Size returns the content length, or false when it is not known.
	Size() (int64, bool)
}

// BytesSource serves content that is already in memory.
type BytesSource []byte

// Read returns the bytes.
func (b BytesSource) Read() ([]byte, error) {
	return b, nil
}

// Size returns len(b).
func (b BytesSource) Size() (int64, bool) {
	return int64(len(b)), true
}

// PathSource reads content from a file on disk.
type PathSource string

// Read reads the whole file.
func (p PathSource) Read() ([]byte, error) {
	data, err := os.ReadFile(string(p))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", string(p), err)
	}

	return data, nil
}

// Size stats the file.
func (p PathSource) Size() (int64, bool) {
	info, err := os.Stat(string(p))
	if err != nil {
		return 0, false
	}

	return info.Size(), true
}

// SourceFunc adapts a function to ContentSource.
type SourceFunc func() ([]byte, error)

// Read calls f.
func (f SourceFunc) Read() ([]byte, error) {
	return f()
}

// File is a typed, lazily loaded file.
//
// A file may be declared without content; such a file only carries its type.
type File struct {
	contentType string
	source      ContentSource
}

// NewFile creates a file whose content is read from src on demand.
// A nil src declares a file with no content.
func NewFile(contentType string, src ContentSource) *File {
	return &File{contentType: contentType, source: src}
}

// NewBytesFile creates a file with in-memory content.
func NewBytesFile(contentType string, data []byte) *File {
	return NewFile(contentType, BytesSource(data))
}

// ContentType returns the declared content type.
func (f *File) ContentType() string {
	return f.contentType
}

// HasContent reports whether the file was declared with content.
func (f *File) HasContent() bool {
	return f.source != nil
}

// Content loads the file content. A file without content returns nil.
func (f *File) Content() ([]byte, error) {
	if f.source == nil {
		return nil, nil
	}

	return f.source.Read()
}

func (f *File) size() (int64, bool) {
	s, ok := f.source.(Sizer)
	if !ok {
		return 0, false
	}

	return s.Size()
}

// FilesEqual reports whether a and b have the same content type and identical
// bytes, or are both declared without content.
//
// Content is only read when the types match and the sizes, where both are known
// up front, agree.
//
// Returns:
//   - bool: true if the files are equal
//   - error: Non-nil if reading either file failed
func FilesEqual(a, b *File) (bool, error) {
	if a == nil || b == nil {
		return a == b, nil
	}
	if a.contentType != b.contentType || a.HasContent() != b.HasContent() {
		return false, nil
	}
	if !a.HasContent() {
		return true, nil
	}

	if as, ok := a.size(); ok {
		if bs, ok := b.size(); ok && as != bs {
			return false, nil
		}
	}

	ac, err := a.Content()
	if err != nil {
		return false, err
	}
	bc, err := b.Content()
	if err != nil {
		return false, err
	}

	return bytes.Equal(ac, bc), nil
}
