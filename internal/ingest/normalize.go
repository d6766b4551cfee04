package ingest

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"cinema/internal/catalog"
)

// ErrNoDownloadableLink marks candidates whose links were all filtered out.
var ErrNoDownloadableLink = errors.New("no downloadable link")

var compositeSeparators = strings.NewReplacer("/", ",", "、", ",", "，", ",", "|", ",")

// IsDownloadable reports whether uri is a magnet or thunder link.
func IsDownloadable(uri string) bool {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return false
	}
	lower := strings.ToLower(uri)
	return strings.HasPrefix(lower, "magnet:") ||
		strings.HasPrefix(lower, "thunder://") ||
		strings.HasSuffix(lower, "thunder://")
}

// Normalize cleans a wire candidate into the form the catalog reconciles.
func Normalize(c Candidate) (catalog.Candidate, error) {
	out := catalog.Candidate{
		Name:        cleanText(c.Name),
		Director:    cleanText(c.Director),
		Score:       cleanScore(c.Score),
		Area:        joinComposite(c.Area),
		Language:    joinComposite(c.Language),
		Category:    joinComposite(c.Category),
		ReleaseDate: strings.TrimSpace(c.ReleaseDate),
		Duration:    strings.TrimSpace(c.Duration),
		Actors:      joinComposite(c.Actors),
		Summary:     strings.TrimSpace(norm.NFC.String(c.Summary)),
		Cover:       strings.TrimSpace(c.Cover),
		LocalCover:  strings.TrimSpace(c.LocalCover),
		Source:      cleanText(c.Source),
	}

	link, ok := filterLinks(c.DownloadLink)
	if !ok {
		return catalog.Candidate{}, fmt.Errorf("normalize %q: %w", out.Name, ErrNoDownloadableLink)
	}
	out.Link = link
	if err := out.Validate(); err != nil {
		return catalog.Candidate{}, err
	}
	return out, nil
}

func filterLinks(value catalog.LinkValue) (catalog.LinkValue, bool) {
	if !value.IsList() {
		uri := strings.TrimSpace(value.URI)
		if !IsDownloadable(uri) {
			return catalog.LinkValue{}, false
		}
		return catalog.SingleLink(uri), true
	}
	kept := make([]catalog.Episode, 0, len(value.Episodes))
	for _, ep := range value.Episodes {
		name := cleanText(ep.Name)
		link := strings.TrimSpace(ep.Link)
		if name == "" || !IsDownloadable(link) {
			continue
		}
		kept = append(kept, catalog.Episode{Name: name, Link: link})
	}
	if len(kept) == 0 {
		return catalog.LinkValue{}, false
	}
	return catalog.EpisodeLinks(kept...), true
}

// cleanText applies NFC and collapses whitespace runs to one space.
func cleanText(value string) string {
	return strings.Join(strings.Fields(norm.NFC.String(value)), " ")
}

func joinComposite(value string) string {
	value = compositeSeparators.Replace(norm.NFC.String(value))
	return catalog.JoinComposite(catalog.SplitComposite(value))
}

func cleanScore(score float64) float64 {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return 0
	}
	return score
}
