package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cinema/internal/ingest"
)

// Source tags written into candidates.
const (
	SourceDytt    = "电影天堂"
	SourceXunlei8 = "迅雷电影天堂"
)

// ErrNotDetailPage reports HTML that lacks the fields of a detail page, such
// as a list page, a block page, or a truncated download.
var ErrNotDetailPage = errors.New("not a detail page")

// Parser turns one saved detail page into a candidate.
type Parser func(html []byte, pageURL string) (ingest.Candidate, error)

var layouts = map[string]Parser{
	"dytt-movie":     DyttMovie,
	"dytt-tvshow":    DyttShow,
	"xunlei8-movie":  Xunlei8Movie,
	"xunlei8-tvshow": Xunlei8Show,
}

// Layouts lists the registered layout names.
func Layouts() []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the parser registered under name.
func Lookup(name string) (Parser, error) {
	parser, ok := layouts[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown page layout %q (want one of %s)", name, strings.Join(Layouts(), ", "))
	}
	return parser, nil
}

func newDocument(html []byte) (*goquery.Document, error) {
	if len(bytes.TrimSpace(html)) == 0 {
		return nil, fmt.Errorf("%w: empty html", ErrNotDetailPage)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

var scorePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

// firstScore returns the first decimal number in text, or zero.
func firstScore(text string) float64 {
	match := scorePattern.FindString(text)
	if match == "" {
		return 0
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return score
}

func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	bu, err := url.Parse(base)
	if err != nil {
		return href
	}
	ru, err := url.Parse(href)
	if err != nil {
		return href
	}
	return bu.ResolveReference(ru).String()
}

// normSpace collapses whitespace, including ideographic spaces, to one space.
func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func texts(sel *goquery.Selection) []string {
	out := make([]string, 0, sel.Length())
	seen := make(map[string]struct{}, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		text := normSpace(s.Text())
		if text == "" {
			return
		}
		if _, ok := seen[text]; ok {
			return
		}
		seen[text] = struct{}{}
		out = append(out, text)
	})
	return out
}

func joinList(values []string) string { return strings.Join(values, ", ") }
