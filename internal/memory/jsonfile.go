package memory

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// JSONFile stores entries as one flat JSON object, {"key": "description"},
// keeping key order on both load and save. Saves write a temporary file in
// the same directory and rename it over the old one, keeping the old file's
// permissions (0644 for a new file).
type JSONFile struct {
	Path string
}

func (f *JSONFile) Load(_ context.Context) ([]Entry, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("load memories: %w", err)
	}
	entries, err := decodeObject(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Path, err)
	}
	return entries, nil
}

func (f *JSONFile) Save(_ context.Context, entries []Entry) error {
	data, err := encodeObject(entries)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.Path), "."+filepath.Base(f.Path)+".*")
	if err != nil {
		return fmt.Errorf("save memories: %w", err)
	}
	tmpName := tmp.Name()
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(f.Path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("save memories: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("save memories: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("save memories: %w", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("save memories: %w", err)
	}
	return nil
}

func (f *JSONFile) Close() error { return nil }

func decodeObject(raw []byte) ([]Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a JSON object")
	}
	var entries []Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", tok)
		}
		var desc string
		if err := dec.Decode(&desc); err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		entries = append(entries, Entry{Key: key, Description: desc})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return entries, nil
}

func encodeObject(entries []Entry) ([]byte, error) {
	if len(entries) == 0 {
		return []byte("{}\n"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Description)
		if err != nil {
			return nil, err
		}
		buf.WriteString("\n  ")
		buf.Write(k)
		buf.WriteString(": ")
		buf.Write(v)
	}
	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}
