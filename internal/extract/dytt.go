package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cinema/internal/catalog"
	"cinema/internal/ingest"
)

// Dytt pages pad label glyphs with ideographic spaces ("◎片　　名").
const labelGap = `[\s\x{3000}\x{00a0}]*`

func labelPattern(label string, multiline bool) *regexp.Regexp {
	glyphs := []rune(label)
	parts := make([]string, len(glyphs))
	for i, r := range glyphs {
		parts[i] = regexp.QuoteMeta(string(r))
	}
	value := `([^\n◎]+)`
	if multiline {
		value = `([^◎]+)`
	}
	return regexp.MustCompile(`◎` + strings.Join(parts, labelGap) + labelGap + value)
}

var (
	dyttName     = labelPattern("片名", false)
	dyttArea     = labelPattern("产地", false)
	dyttLanguage = labelPattern("语言", false)
	dyttCategory = labelPattern("类别", false)
	dyttRelease  = labelPattern("上映日期", false)
	dyttDuration = labelPattern("片长", false)
	dyttDirector = labelPattern("导演", false)
	dyttActors   = labelPattern("主演", false)
	dyttSummary  = labelPattern("简介", true)
	dyttScore    = regexp.MustCompile(`◎豆瓣评分` + labelGap + `(\d+\.\d+)/10`)
	dyttEpisode  = regexp.MustCompile(`&dn=([^.&]+)`)
)

// DyttMovie parses a dytt movie detail page.
func DyttMovie(html []byte, pageURL string) (ingest.Candidate, error) {
	doc, zoom, err := dyttDocument(html)
	if err != nil {
		return ingest.Candidate{}, err
	}
	cand, err := dyttFields(doc, zoom, pageURL)
	if err != nil {
		return ingest.Candidate{}, err
	}
	href, _ := doc.Find("div#downlist a[href^='magnet']").First().Attr("href")
	href = strings.TrimSpace(href)
	if href == "" {
		return ingest.Candidate{}, fmt.Errorf("%w: %s has no magnet link", ErrNotDetailPage, cand.Name)
	}
	cand.DownloadLink = catalog.SingleLink(href)
	return cand, nil
}

// DyttShow parses a dytt TV show detail page. Episode names come from the
// magnet display name.
func DyttShow(html []byte, pageURL string) (ingest.Candidate, error) {
	doc, zoom, err := dyttDocument(html)
	if err != nil {
		return ingest.Candidate{}, err
	}
	cand, err := dyttFields(doc, zoom, pageURL)
	if err != nil {
		return ingest.Candidate{}, err
	}
	var episodes []catalog.Episode
	doc.Find("div#downlist a[href^='magnet']").Each(func(i int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		episodes = append(episodes, catalog.Episode{Name: episodeName(href, s.Text(), i), Link: href})
	})
	if len(episodes) == 0 {
		return ingest.Candidate{}, fmt.Errorf("%w: %s has no episode links", ErrNotDetailPage, cand.Name)
	}
	cand.DownloadLink = catalog.EpisodeLinks(episodes...)
	return cand, nil
}

func dyttDocument(html []byte) (*goquery.Document, string, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, "", err
	}
	zoom := doc.Find("div#Zoom").First()
	if zoom.Length() == 0 {
		return nil, "", fmt.Errorf("%w: missing #Zoom block", ErrNotDetailPage)
	}
	var b strings.Builder
	collectText(zoom, &b)
	return doc, b.String(), nil
}

// collectText flattens a block into text with one line per <br> or paragraph.
func collectText(sel *goquery.Selection, b *strings.Builder) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "#text":
			b.WriteString(s.Text())
		case "br":
			b.WriteByte('\n')
		case "script", "style":
		case "p", "div":
			collectText(s, b)
			b.WriteByte('\n')
		default:
			collectText(s, b)
		}
	})
}

func dyttFields(doc *goquery.Document, zoom, pageURL string) (ingest.Candidate, error) {
	name := matchLabel(dyttName, zoom)
	if name == "" {
		return ingest.Candidate{}, fmt.Errorf("%w: missing title label", ErrNotDetailPage)
	}
	cover, _ := doc.Find("div#Zoom img").First().Attr("src")
	return ingest.Candidate{
		Name:        name,
		Director:    normSpace(matchLabel(dyttDirector, zoom)),
		Score:       firstScore(matchLabel(dyttScore, zoom)),
		Area:        matchLabel(dyttArea, zoom),
		Language:    matchLabel(dyttLanguage, zoom),
		Category:    matchLabel(dyttCategory, zoom),
		ReleaseDate: matchLabel(dyttRelease, zoom),
		Duration:    strings.ReplaceAll(matchLabel(dyttDuration, zoom), " Mins", "分钟"),
		Actors:      normSpace(matchLabel(dyttActors, zoom)),
		Summary:     stripSpace(matchLabel(dyttSummary, zoom)),
		Cover:       resolveURL(pageURL, cover),
		Source:      SourceDytt,
	}, nil
}

func matchLabel(re *regexp.Regexp, text string) string {
	match := re.FindStringSubmatch(text)
	if len(match) < 2 {
		return ""
	}
	return strings.TrimSpace(match[1])
}

func episodeName(href, text string, index int) string {
	if match := dyttEpisode.FindStringSubmatch(href); len(match) == 2 {
		if decoded, err := url.QueryUnescape(match[1]); err == nil && strings.TrimSpace(decoded) != "" {
			return strings.TrimSpace(decoded)
		}
		return match[1]
	}
	if text = normSpace(text); text != "" {
		return text
	}
	return fmt.Sprintf("第%02d集", index+1)
}
