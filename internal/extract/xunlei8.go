package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cinema/internal/catalog"
	"cinema/internal/ingest"
)

// Xunlei8Movie parses a xunlei8 movie detail page.
func Xunlei8Movie(html []byte, pageURL string) (ingest.Candidate, error) {
	doc, err := newDocument(html)
	if err != nil {
		return ingest.Candidate{}, err
	}
	cand, err := xunlei8Fields(doc, pageURL, ".b586afc9 > a > span", "p.b86e6c a", "h2.b5f5b3 + p.b1f40f7888")
	if err != nil {
		return ingest.Candidate{}, err
	}
	href := strings.TrimSpace(doc.Find(".bf8243b9 a.baf6e960dd").First().AttrOr("href", ""))
	if href == "" {
		return ingest.Candidate{}, fmt.Errorf("%w: %s has no download link", ErrNotDetailPage, cand.Name)
	}
	cand.DownloadLink = catalog.SingleLink(href)
	return cand, nil
}

// Xunlei8Show parses a xunlei8 TV show detail page. Each list item carries the
// episode title and a copyable link.
func Xunlei8Show(html []byte, pageURL string) (ingest.Candidate, error) {
	doc, err := newDocument(html)
	if err != nil {
		return ingest.Candidate{}, err
	}
	cand, err := xunlei8Fields(doc, pageURL, ".b1cd81aa6c19b > span", `p.b86e6c:contains("主演：") a`, `h2.b5f5b3:contains("剧情简介") + p`)
	if err != nil {
		return ingest.Candidate{}, err
	}
	var episodes []catalog.Episode
	doc.Find(".bf8243b9 li").Each(func(_ int, item *goquery.Selection) {
		title := item.Find("a.baf6e960dd").First().AttrOr("title", "")
		// Titles append the file size after a double space.
		title, _, _ = strings.Cut(title, "  ")
		title = normSpace(title)
		link := strings.TrimSpace(item.Find("label.copylabel a.copylink").First().AttrOr("alt", ""))
		if title == "" || link == "" {
			return
		}
		episodes = append(episodes, catalog.Episode{Name: title, Link: link})
	})
	if len(episodes) == 0 {
		return ingest.Candidate{}, fmt.Errorf("%w: %s has no episode links", ErrNotDetailPage, cand.Name)
	}
	cand.DownloadLink = catalog.EpisodeLinks(episodes...)
	return cand, nil
}

func xunlei8Fields(doc *goquery.Document, pageURL, scoreSel, actorsSel, summarySel string) (ingest.Candidate, error) {
	name := normSpace(doc.Find(".b586afc9 > h1").First().Text())
	if name == "" {
		return ingest.Candidate{}, fmt.Errorf("%w: missing title heading", ErrNotDetailPage)
	}
	language := normSpace(doc.Find(`p:contains("语言：") a`).First().Text())
	return ingest.Candidate{
		Name:        name,
		Director:    joinList(texts(doc.Find(`p:contains("导演：") a`))),
		Score:       firstScore(doc.Find(scoreSel).First().Text()),
		Area:        joinList(texts(doc.Find(`p:contains("地区：") a`))),
		Language:    joinList(strings.Split(language, "/")),
		Category:    joinList(texts(doc.Find(`p:contains("类型：") a`))),
		ReleaseDate: normSpace(doc.Find(`p:contains("上映：") .b06d85d1bf6`).First().Text()),
		Duration:    normSpace(doc.Find(`p:contains("片长：") .b06d85d1bf6`).First().Text()),
		Actors:      joinList(texts(doc.Find(actorsSel))),
		Summary:     stripSpace(doc.Find(summarySel).First().Text()),
		Cover:       resolveURL(pageURL, doc.Find(".ba330 > img").First().AttrOr("src", "")),
		Source:      SourceXunlei8,
	}, nil
}
