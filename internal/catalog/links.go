package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Episode is one named download entry of a TV show.
type Episode struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// LinkValue is the download payload one source contributed: a single URI for
// movies or an episode list for TV shows. It encodes as a JSON string or an
// array of {"name","link"} objects respectively.
type LinkValue struct {
	URI      string
	Episodes []Episode
}

// SingleLink wraps one URI.
func SingleLink(uri string) LinkValue {
	return LinkValue{URI: uri}
}

// EpisodeLinks wraps an episode list. A nil list still encodes as an array.
func EpisodeLinks(episodes ...Episode) LinkValue {
	if episodes == nil {
		episodes = []Episode{}
	}
	return LinkValue{Episodes: episodes}
}

// IsList reports whether the value holds episodes rather than one URI.
func (v LinkValue) IsList() bool { return v.Episodes != nil }

// IsZero reports whether the value carries nothing downloadable.
func (v LinkValue) IsZero() bool {
	return strings.TrimSpace(v.URI) == "" && len(v.Episodes) == 0
}

func (v LinkValue) MarshalJSON() ([]byte, error) {
	if v.IsList() {
		return json.Marshal(v.Episodes)
	}
	return json.Marshal(v.URI)
}

func (v *LinkValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty link value")
	}
	switch data[0] {
	case '"':
		var uri string
		if err := json.Unmarshal(data, &uri); err != nil {
			return err
		}
		*v = LinkValue{URI: uri}
	case '[':
		episodes := []Episode{}
		if err := json.Unmarshal(data, &episodes); err != nil {
			return err
		}
		*v = LinkValue{Episodes: episodes}
	case 'n':
		if string(data) != "null" {
			return fmt.Errorf("unexpected link value %s", data)
		}
		*v = LinkValue{}
	default:
		return fmt.Errorf("unexpected link value %s", data)
	}
	return nil
}

// DownloadLinks maps source tags to the links each source contributed.
type DownloadLinks map[string]LinkValue

// Sources returns the source tags in sorted order.
func (d DownloadLinks) Sources() []string {
	sources := make([]string, 0, len(d))
	for source := range d {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}

// Marshal serializes the mapping for the download_link column.
func (d DownloadLinks) Marshal() (string, error) {
	if d == nil {
		d = DownloadLinks{}
	}
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal download links: %w", err)
	}
	return string(data), nil
}

// ParseDownloadLinks decodes a stored download_link payload. A blank payload
// yields an empty mapping; anything else that is not a JSON object of link
// values is an error.
func ParseDownloadLinks(payload string) (DownloadLinks, error) {
	if strings.TrimSpace(payload) == "" {
		return DownloadLinks{}, nil
	}
	var links DownloadLinks
	if err := json.Unmarshal([]byte(payload), &links); err != nil {
		return nil, err
	}
	if links == nil {
		return nil, fmt.Errorf("download_link is null")
	}
	return links, nil
}
