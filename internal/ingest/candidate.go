package ingest

import "cinema/internal/catalog"

// Candidate is the wire form of one extracted record.
type Candidate struct {
	Name         string            `json:"name"`
	Director     string            `json:"director,omitempty"`
	Score        float64           `json:"score,omitempty"`
	Area         string            `json:"area,omitempty"`
	Language     string            `json:"language,omitempty"`
	Category     string            `json:"category,omitempty"`
	ReleaseDate  string            `json:"releaseDate,omitempty"`
	Duration     string            `json:"duration,omitempty"`
	Actors       string            `json:"actors,omitempty"`
	Summary      string            `json:"summary,omitempty"`
	Cover        string            `json:"cover,omitempty"`
	LocalCover   string            `json:"localCover,omitempty"`
	DownloadLink catalog.LinkValue `json:"downloadLink"`
	Source       string            `json:"source"`
}
