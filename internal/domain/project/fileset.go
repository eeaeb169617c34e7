package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FileEntry is one keyed file of a FileSet.
type FileEntry struct {
	Key  string
	File File
}

// DisplayName returns the file name, or the key when the name is empty.
func (e FileEntry) DisplayName() string {
	if e.File.Name != "" {
		return e.File.Name
	}
	return e.Key
}

// FileSet maps file keys to files and remembers insertion order. Iteration
// order is significant: the first markup file wins and bundles are
// concatenated in this order. Keys are unique; setting an existing key
// replaces the value in place.
type FileSet struct {
	entries []FileEntry
	index   map[string]int
}

// NewFileSet builds a FileSet from entries in order.
func NewFileSet(entries ...FileEntry) FileSet {
	var fs FileSet
	for _, e := range entries {
		fs.Set(e.Key, e.File)
	}
	return fs
}

// Set inserts or replaces the file stored under key.
func (fs *FileSet) Set(key string, f File) {
	if fs.index == nil {
		fs.index = make(map[string]int)
	}
	if i, ok := fs.index[key]; ok {
		fs.entries[i].File = f
		return
	}
	fs.index[key] = len(fs.entries)
	fs.entries = append(fs.entries, FileEntry{Key: key, File: f})
}

// Get returns the file stored under key.
func (fs FileSet) Get(key string) (File, bool) {
	i, ok := fs.index[key]
	if !ok {
		return File{}, false
	}
	return fs.entries[i].File, true
}

// Len returns the number of files.
func (fs FileSet) Len() int { return len(fs.entries) }

// Entries returns a copy of the entries in insertion order.
func (fs FileSet) Entries() []FileEntry {
	out := make([]FileEntry, len(fs.entries))
	copy(out, fs.entries)
	return out
}

// Markup returns the first entry whose name ends in .html or .htm.
func (fs FileSet) Markup() (FileEntry, bool) {
	for _, e := range fs.entries {
		if KindOf(e.DisplayName()) == KindMarkup {
			return e, true
		}
	}
	return FileEntry{}, false
}

func (fs *FileSet) fillMimeTypes() {
	for i := range fs.entries {
		f := &fs.entries[i].File
		if f.MimeType == "" {
			f.MimeType = MimeTypeFor(fs.entries[i].DisplayName())
		}
	}
}

// MarshalJSON encodes the set as a JSON object with keys in insertion order.
func (fs FileSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range fs.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.File)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the key order of the input.
// A JSON null yields an empty set.
func (fs *FileSet) UnmarshalJSON(data []byte) error {
	*fs = FileSet{}
	if strings.TrimSpace(string(data)) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("files: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("files: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("files: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("files: expected key, got %v", tok)
		}
		var f File
		if err := dec.Decode(&f); err != nil {
			return fmt.Errorf("files[%s]: %w", key, err)
		}
		fs.Set(key, f)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("files: %w", err)
	}
	return nil
}
