package extract_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinema/internal/catalog"
	"cinema/internal/extract"
	"cinema/internal/ingest"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err, "read fixture %s", name)
	return data
}

func TestDyttMovie(t *testing.T) {
	cand, err := extract.DyttMovie(fixture(t, "dytt_movie.html"), "https://www.dytt8899.com/i/123.html")
	require.NoError(t, err)

	assert.Equal(t, "流浪地球2", cand.Name)
	assert.Equal(t, "郭帆", cand.Director)
	assert.Equal(t, 8.3, cand.Score)
	assert.Equal(t, "中国大陆", cand.Area)
	assert.Equal(t, "汉语普通话/英语", cand.Language)
	assert.Equal(t, "科幻/冒险/灾难", cand.Category)
	assert.Equal(t, "2023-01-22(中国大陆)", cand.ReleaseDate)
	assert.Equal(t, "173分钟", cand.Duration)
	assert.Equal(t, "吴京", cand.Actors)
	assert.Equal(t, "太阳即将毁灭，人类在地球表面建造出巨大的推进器，寻找新的家园。", cand.Summary)
	assert.Equal(t, "https://www.dytt8899.com/uploads/cover/wandering2.jpg", cand.Cover)
	assert.Equal(t, extract.SourceDytt, cand.Source)
	assert.Equal(t, catalog.SingleLink("magnet:?xt=urn:btih:AAAA&dn=wandering.earth.2.mkv"), cand.DownloadLink)
}

func TestDyttShowNamesEpisodesFromMagnet(t *testing.T) {
	cand, err := extract.DyttShow(fixture(t, "dytt_tvshow.html"), "https://www.dytt8899.com/i/9.html")
	require.NoError(t, err)

	assert.Equal(t, "三体", cand.Name)
	assert.Equal(t, 8.7, cand.Score)
	assert.Equal(t, "物理学家汪淼卷入一连串离奇事件。", cand.Summary)
	require.True(t, cand.DownloadLink.IsList())
	require.Len(t, cand.DownloadLink.Episodes, 2)
	assert.Equal(t, "三体第01集", cand.DownloadLink.Episodes[0].Name)
	assert.Equal(t, "三体第02集", cand.DownloadLink.Episodes[1].Name)
}

func TestXunlei8Movie(t *testing.T) {
	cand, err := extract.Xunlei8Movie(fixture(t, "xunlei8_movie.html"), "https://xunlei8.cc/movie/1.html")
	require.NoError(t, err)

	assert.Equal(t, "奥本海默", cand.Name)
	assert.Equal(t, "克里斯托弗·诺兰", cand.Director)
	assert.Equal(t, 8.8, cand.Score)
	assert.Equal(t, "美国, 英国", cand.Area)
	assert.Equal(t, "英语, 德语", cand.Language)
	assert.Equal(t, "剧情, 传记, 历史", cand.Category)
	assert.Equal(t, "2023-08-30", cand.ReleaseDate)
	assert.Equal(t, "180分钟", cand.Duration)
	assert.Equal(t, "基里安·墨菲, 艾米莉·布朗特", cand.Actors)
	assert.Equal(t, "讲述美国原子弹之父的故事。", cand.Summary)
	assert.Equal(t, "https://img.example.com/cdn/oppenheimer.jpg", cand.Cover)
	assert.Equal(t, extract.SourceXunlei8, cand.Source)
	assert.Equal(t, "magnet:?xt=urn:btih:OPP", cand.DownloadLink.URI)
}

func TestXunlei8Show(t *testing.T) {
	cand, err := extract.Xunlei8Show(fixture(t, "xunlei8_tvshow.html"), "https://xunlei8.cc/tv/99.html")
	require.NoError(t, err)

	assert.Equal(t, "繁花", cand.Name)
	assert.Equal(t, "王家卫", cand.Director)
	assert.Equal(t, 8.0, cand.Score)
	assert.Equal(t, "汉语普通话, 上海话", cand.Language)
	assert.Equal(t, "胡歌, 马伊琍", cand.Actors)
	assert.Equal(t, "九十年代的上海，阿宝的故事。", cand.Summary)
	assert.Equal(t, "https://xunlei8.cc/covers/fanhua.jpg", cand.Cover)
	assert.Equal(t, []catalog.Episode{
		{Name: "第01集", Link: "magnet:?xt=urn:btih:F1"},
		{Name: "第02集", Link: "magnet:?xt=urn:btih:F2"},
	}, cand.DownloadLink.Episodes)
}

func TestParsersRejectNonDetailPages(t *testing.T) {
	page := fixture(t, "list_page.html")
	for _, name := range extract.Layouts() {
		parser, err := extract.Lookup(name)
		require.NoError(t, err)
		_, err = parser(page, "https://example.com/list.html")
		assert.True(t, errors.Is(err, extract.ErrNotDetailPage), "%s: got %v", name, err)

		_, err = parser(nil, "https://example.com/")
		assert.True(t, errors.Is(err, extract.ErrNotDetailPage), "%s empty: got %v", name, err)
	}
	_, err := extract.Lookup("imdb")
	require.Error(t, err)
}

func TestExtractedCandidatesNormalize(t *testing.T) {
	cand, err := extract.Xunlei8Show(fixture(t, "xunlei8_tvshow.html"), "https://xunlei8.cc/tv/99.html")
	require.NoError(t, err)
	normalized, err := ingest.Normalize(cand)
	require.NoError(t, err)
	assert.Equal(t, "汉语普通话, 上海话", normalized.Language)

	movie, err := extract.DyttMovie(fixture(t, "dytt_movie.html"), "https://www.dytt8899.com/i/123.html")
	require.NoError(t, err)
	normalizedMovie, err := ingest.Normalize(movie)
	require.NoError(t, err)
	assert.Equal(t, "科幻, 冒险, 灾难", normalizedMovie.Category)
}
