package catalog

import (
	"fmt"
	"strings"
)

// Domain selects one catalog database.
type Domain string

const (
	DomainMovie  Domain = "movie"
	DomainTVShow Domain = "tvshow"
)

// Domains lists every catalog domain in a stable order.
var Domains = []Domain{DomainMovie, DomainTVShow}

// ParseDomain accepts "movie" or "tvshow" in any case.
func ParseDomain(value string) (Domain, error) {
	switch Domain(strings.ToLower(strings.TrimSpace(value))) {
	case DomainMovie:
		return DomainMovie, nil
	case DomainTVShow:
		return DomainTVShow, nil
	}
	return "", fmt.Errorf("unknown catalog domain %q (want movie or tvshow)", value)
}

func (d Domain) String() string { return string(d) }

// NaturalKey identifies one logical title.
type NaturalKey struct {
	Name     string
	Director string
}

func (k NaturalKey) String() string {
	if k.Director == "" {
		return k.Name
	}
	return k.Name + " / " + k.Director
}

// Record is one canonical row of the media table.
type Record struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Director      string        `json:"director"`
	Score         float64       `json:"score"`
	Area          string        `json:"area"`
	Language      string        `json:"language"`
	Category      string        `json:"category"`
	ReleaseDate   string        `json:"release_date"`
	Duration      string        `json:"duration"`
	Actors        string        `json:"actors"`
	Summary       string        `json:"summary"`
	Cover         string        `json:"cover"`
	LocalCover    string        `json:"local_cover,omitempty"`
	Source        string        `json:"source"`
	DownloadLinks DownloadLinks `json:"download_link"`
}

// Key returns the record's natural key.
func (r Record) Key() NaturalKey {
	return NaturalKey{Name: r.Name, Director: r.Director}
}

// Candidate is one normalized incoming record tagged with its source.
type Candidate struct {
	Name        string
	Director    string
	Score       float64
	Area        string
	Language    string
	Category    string
	ReleaseDate string
	Duration    string
	Actors      string
	Summary     string
	Cover       string
	LocalCover  string
	Source      string
	Link        LinkValue
}

// Key returns the candidate's natural key.
func (c Candidate) Key() NaturalKey {
	return NaturalKey{Name: c.Name, Director: c.Director}
}

// Validate reports ErrInvalidCandidate when the name, source, or link is missing.
func (c Candidate) Validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidCandidate)
	case strings.TrimSpace(c.Source) == "":
		return fmt.Errorf("%w: source tag is required for %q", ErrInvalidCandidate, c.Name)
	case c.Link.IsZero():
		return fmt.Errorf("%w: download link is required for %q", ErrInvalidCandidate, c.Name)
	}
	return nil
}

// ReconcileResult describes what a reconciliation did to the canonical row.
type ReconcileResult struct {
	ID      int64    `json:"id"`
	Created bool     `json:"created"`
	Sources []string `json:"sources"`
}

// AuditEntry records one row removed by the dedup job.
type AuditEntry struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Director string `json:"director"`
	Source   string `json:"source"`
}

// Field names a composite column that supports distinct-value enumeration.
type Field string

const (
	FieldArea     Field = "area"
	FieldCategory Field = "category"
	FieldLanguage Field = "language"
)

// ParseField maps a user-supplied name onto a Field.
func ParseField(value string) (Field, error) {
	switch Field(strings.ToLower(strings.TrimSpace(value))) {
	case FieldArea:
		return FieldArea, nil
	case FieldCategory:
		return FieldCategory, nil
	case FieldLanguage:
		return FieldLanguage, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidField, value)
}
