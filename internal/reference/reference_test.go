package reference_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/phrazzld/portrait-generator/internal/domain"
	"github.com/phrazzld/portrait-generator/internal/mocks"
	"github.com/phrazzld/portrait-generator/internal/platform/logger"
	"github.com/phrazzld/portrait-generator/internal/reference"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSubject() *domain.SubjectData {
	return &domain.SubjectData{
		Name:      "Ada Lovelace",
		BirthYear: 1815,
		DeathYear: domain.IntPtr(1852),
		Era:       "Victorian Era",
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestBuildQueries(t *testing.T) {
	t.Parallel()

	queries := reference.BuildQueries(testSubject())

	require.Len(t, queries, 5)
	assert.Equal(t, "Ada Lovelace historical photograph", queries[0])
	assert.Equal(t, "Ada Lovelace portrait Victorian Era", queries[1])
	assert.Equal(t, "Ada Lovelace photo 1815", queries[2])
}

func TestParseSearchResults(t *testing.T) {
	t.Parallel()

	response := `Found these:
1. https://loc.gov/pictures/ada.jpg - Library of Congress
2. <https://example.org/a/b/portrait.PNG> not matched because of case
3. http://museum.example.com/ada_1840.png
4. https://loc.gov/pictures/ada.jpg
5. https://a.com/1.gif https://a.com/2.jpeg https://a.com/3.jpg`

	images := reference.ParseSearchResults(response, testSubject())

	require.Len(t, images, 5, "at most five URLs per answer")
	assert.Equal(t, "https://loc.gov/pictures/ada.jpg", images[0].URL)
	assert.Equal(t, "loc.gov", images[0].Source)
	assert.Equal(t, "museum.example.com", images[1].Source)
	assert.InDelta(t, 0.85, images[0].AuthenticityScore, 1e-9)
	assert.True(t, images[0].EraMatch)
	assert.Equal(t, "Historical image of Ada Lovelace", images[0].Description)
}

func TestParseSearchResultsNoURLs(t *testing.T) {
	t.Parallel()

	images := reference.ParseSearchResults("I could not find any images.", testSubject())
	assert.Empty(t, images)
}

func TestRankAndFilter(t *testing.T) {
	t.Parallel()

	images := []domain.ReferenceImage{
		{URL: "low", AuthenticityScore: 0.3, QualityScore: 0.3, RelevanceScore: 0.3},
		{URL: "mid", AuthenticityScore: 0.7, QualityScore: 0.7, RelevanceScore: 0.7},
		{URL: "high", AuthenticityScore: 0.9, QualityScore: 0.9, RelevanceScore: 0.9, EraMatch: true},
		{URL: "mid", AuthenticityScore: 1, QualityScore: 1, RelevanceScore: 1},
	}

	ranked := reference.RankAndFilter(images)

	require.Len(t, ranked, 2)
	assert.Equal(t, "high", ranked[0].URL)
	assert.Equal(t, "mid", ranked[1].URL)
	assert.InDelta(t, 0.7, ranked[1].AuthenticityScore, 1e-9, "first occurrence of a duplicate wins")
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	summary := reference.Summarize([]domain.ReferenceImage{
		{AuthenticityScore: 0.9, QualityScore: 0.8},
		{AuthenticityScore: 0.5, QualityScore: 0.6},
	})

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.AuthenticCount)
	assert.InDelta(t, 0.7, summary.AverageQuality, 1e-9)
	assert.Equal(t, domain.ReferenceSummary{}, reference.Summarize(nil))
}

func TestFind(t *testing.T) {
	t.Parallel()

	querier := &mocks.MockTextQuerier{
		QueryWithGroundingFn: func(_ context.Context, prompt string) (string, error) {
			switch {
			case strings.Contains(prompt, "Query: Ada Lovelace historical photograph"):
				return "https://a.org/one.jpg https://a.org/two.jpg", nil
			case strings.Contains(prompt, "Query: Ada Lovelace portrait"):
				return "https://a.org/one.jpg", nil
			default:
				return "", errors.New("search unavailable")
			}
		},
	}
	finder, err := reference.NewFinder(querier, logger.Discard(), reference.Options{Grounding: true})
	require.NoError(t, err)

	images := finder.Find(context.Background(), testSubject(), 5)

	assert.Equal(t, 5, querier.GroundedCalls(), "three searches and one fact check per kept reference")
	require.Len(t, images, 2)
	assert.Equal(t, "https://a.org/one.jpg", images[0].URL)
	assert.Equal(t, "https://a.org/two.jpg", images[1].URL)

	limited := finder.Find(context.Background(), testSubject(), 1)
	assert.Len(t, limited, 1)
}

func TestFindDropsUnverifiedReferences(t *testing.T) {
	t.Parallel()

	querier := &mocks.MockTextQuerier{
		QueryWithGroundingFn: func(_ context.Context, prompt string) (string, error) {
			switch {
			case strings.Contains(prompt, "Fact-check this image: https://a.org/fake.jpg"):
				return "NOT_AUTHENTIC: the sitter is someone else", nil
			case strings.Contains(prompt, "Fact-check this image:"):
				return "AUTHENTIC. Nothing suspicious found.", nil
			case strings.Contains(prompt, "Query: Ada Lovelace historical photograph"):
				return "https://a.org/fake.jpg https://a.org/real.jpg", nil
			default:
				return "", nil
			}
		},
	}
	finder, err := reference.NewFinder(querier, logger.Discard(), reference.Options{Grounding: true})
	require.NoError(t, err)

	images := finder.Find(context.Background(), testSubject(), 5)

	require.Len(t, images, 1)
	assert.Equal(t, "https://a.org/real.jpg", images[0].URL)
}

func TestFindWithoutGroundingUsesPlainQueries(t *testing.T) {
	t.Parallel()

	querier := &mocks.MockTextQuerier{Response: "nothing here"}
	finder, err := reference.NewFinder(querier, logger.Discard(), reference.Options{})
	require.NoError(t, err)

	images := finder.Find(context.Background(), testSubject(), 5)

	assert.NotNil(t, images)
	assert.Empty(t, images)
	assert.Equal(t, 3, querier.Calls())
	assert.Zero(t, querier.GroundedCalls())
}

func TestValidateAuthenticity(t *testing.T) {
	t.Parallel()

	img := domain.ReferenceImage{URL: "https://a.org/x.jpg", AuthenticityScore: 0.8}

	testCases := []struct {
		name      string
		grounding bool
		response  string
		err       error
		score     float64
		want      bool
	}{
		{name: "authentic", grounding: true, response: "AUTHENTIC", want: true},
		{name: "not authentic", grounding: true, response: "NOT_AUTHENTIC", want: false},
		{name: "query error falls back to score", grounding: true, err: errors.New("boom"), score: 0.8, want: true},
		{name: "query error with low score", grounding: true, err: errors.New("boom"), score: 0.5, want: false},
		{name: "no grounding uses score", score: 0.75, want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			querier := &mocks.MockTextQuerier{Response: tc.response, Err: tc.err}
			finder, err := reference.NewFinder(querier, logger.Discard(), reference.Options{Grounding: tc.grounding})
			require.NoError(t, err)

			candidate := img
			if tc.score > 0 {
				candidate.AuthenticityScore = tc.score
			}
			assert.Equal(t, tc.want, finder.ValidateAuthenticity(context.Background(), candidate, testSubject()))
		})
	}
}

func TestDownload(t *testing.T) {
	t.Parallel()

	large := pngBytes(t, 300, 400)
	small := pngBytes(t, 100, 400)

	var (
		mu     sync.Mutex
		agents []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents = append(agents, r.UserAgent())
		mu.Unlock()
		switch r.URL.Path {
		case "/large.png":
			_, _ = w.Write(large)
		case "/small.png":
			_, _ = w.Write(small)
		case "/text.jpg":
			_, _ = w.Write([]byte("not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fs := afero.NewMemMapFs()
	finder, err := reference.NewFinder(&mocks.MockTextQuerier{}, logger.Discard(), reference.Options{
		Fs:          fs,
		DownloadDir: "refs",
		HTTPClient:  server.Client(),
	})
	require.NoError(t, err)

	images := []domain.ReferenceImage{
		{URL: server.URL + "/small.png"},
		{URL: server.URL + "/large.png"},
		{URL: server.URL + "/text.jpg"},
		{URL: server.URL + "/missing.png"},
	}

	refs := finder.Download(context.Background(), "Ada Lovelace", images)

	require.Len(t, refs, 1)
	assert.Equal(t, "image/png", refs[0].MIMEType)
	assert.Equal(t, large, refs[0].Data)

	assert.Empty(t, images[0].LocalPath)
	assert.Equal(t, "refs/AdaLovelace_ref_2.png", images[1].LocalPath)
	stored, err := afero.ReadFile(fs, images[1].LocalPath)
	require.NoError(t, err)
	assert.Equal(t, large, stored)

	mu.Lock()
	require.NotEmpty(t, agents)
	assert.Contains(t, agents[0], "PortraitGenerator")
	mu.Unlock()

	downloaded := images[1].LocalPath
	finder.Cleanup(context.Background(), images)
	assert.Empty(t, images[1].LocalPath)
	exists, err := afero.Exists(fs, downloaded)
	require.NoError(t, err)
	assert.False(t, exists, "downloaded reference removed after use")
}

func TestNewFinderRequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := reference.NewFinder(nil, logger.Discard(), reference.Options{})
	assert.Error(t, err)

	_, err = reference.NewFinder(&mocks.MockTextQuerier{}, nil, reference.Options{})
	assert.Error(t, err)
}
