package push

import "github.com/goccy/go-json"

// Manifest tells the launcher which file to start and what version is live.
type Manifest struct {
	Path    string `json:"path"`
	Version string `json:"version"`
}

func (m Manifest) Encode() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
