// Package catalog loads the static song list served to participants on join.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

type Song struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist,omitempty"`
	AudioURL   string `json:"audioUrl"`
	CoverImage string `json:"coverImage,omitempty"`
}

type file struct {
	Songs []Song `json:"songs"`
}

// Load reads the catalog file. A missing file yields an empty catalog
// rather than an error so the server can run without one.
func Load(path string) ([]Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var parsed file
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return parsed.Songs, nil
}
