// utils/jsonfile.go
package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// EnsureDataDir creates the content data directory if it doesn't exist.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(dir, os.ModePerm)
}

// LoadJSONFile reads a JSON document from path into out. A missing file is
// not an error; out is left untouched and the caller's default applies.
func LoadJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, out)
}

// SaveJSONFile writes a JSON document atomically: marshal, write to a temp
// file alongside the target, then rename over it.
func SaveJSONFile(path string, in any) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}

	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
