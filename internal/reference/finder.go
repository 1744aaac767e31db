package reference

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/phrazzld/portrait-generator/internal/domain"
	"github.com/phrazzld/portrait-generator/internal/generation"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const (
	// queriesUsed is how many of the built queries are actually searched.
	queriesUsed = 3

	// MinReferenceSide is the smallest width or height accepted for a download.
	MinReferenceSide = 256

	downloadTimeout  = 30 * time.Second
	maxDownloadBytes = 20 << 20
	userAgent        = "Mozilla/5.0 (compatible; PortraitGenerator/1.0)"
)

// Options configures a Finder.
type Options struct {
	// Grounding selects search-grounded queries; without it authenticity
	// checks fall back to score thresholds.
	Grounding bool

	// DownloadDir receives downloaded references on Fs.
	DownloadDir string
	Fs          afero.Fs

	// HTTPClient is used for downloads; nil means a client with a 30s timeout.
	HTTPClient *http.Client
}

// Finder locates and downloads reference images.
type Finder struct {
	querier     generation.TextQuerier
	logger      *slog.Logger
	grounding   bool
	downloadDir string
	fs          afero.Fs
	httpClient  *http.Client
}

// NewFinder creates a Finder.
func NewFinder(querier generation.TextQuerier, logger *slog.Logger, opts Options) (*Finder, error) {
	if querier == nil {
		return nil, errors.New("text querier cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	f := &Finder{
		querier:     querier,
		logger:      logger.With("component", "reference_finder"),
		grounding:   opts.Grounding,
		downloadDir: opts.DownloadDir,
		fs:          opts.Fs,
		httpClient:  opts.HTTPClient,
	}
	if f.downloadDir == "" {
		f.downloadDir = filepath.Join(".cpf", "reference_images")
	}
	if f.fs == nil {
		f.fs = afero.NewOsFs()
	}
	if f.httpClient == nil {
		f.httpClient = &http.Client{Timeout: downloadTimeout}
	}
	return f, nil
}

// Find searches for up to maxImages references for subject. The first
// three queries run concurrently; failed searches are logged and skipped.
// Ranked candidates are kept only if ValidateAuthenticity accepts them.
// An empty result is normal.
func (f *Finder) Find(ctx context.Context, subject *domain.SubjectData, maxImages int) []domain.ReferenceImage {
	if subject == nil || maxImages <= 0 {
		return []domain.ReferenceImage{}
	}

	queries := BuildQueries(subject)[:queriesUsed]
	perQuery := make([][]domain.ReferenceImage, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(queriesUsed)
	for i, query := range queries {
		g.Go(func() error {
			perQuery[i] = f.search(gctx, query, subject)
			return nil
		})
	}
	_ = g.Wait()

	var candidates []domain.ReferenceImage
	for _, found := range perQuery {
		candidates = append(candidates, found...)
	}
	if len(candidates) == 0 {
		f.logger.WarnContext(ctx, "no reference images found", "subject", subject.Name)
		return []domain.ReferenceImage{}
	}

	ranked := RankAndFilter(candidates)
	verified := make([]domain.ReferenceImage, 0, min(len(ranked), maxImages))
	for _, img := range ranked {
		if len(verified) == maxImages {
			break
		}
		if !f.ValidateAuthenticity(ctx, img, subject) {
			f.logger.DebugContext(ctx, "reference rejected as inauthentic", "url", img.URL)
			continue
		}
		verified = append(verified, img)
	}

	f.logger.InfoContext(ctx, "found reference images",
		"subject", subject.Name,
		"candidates", len(candidates),
		"ranked", len(ranked),
		"kept", len(verified))
	return verified
}

func (f *Finder) search(ctx context.Context, query string, subject *domain.SubjectData) []domain.ReferenceImage {
	prompt := fmt.Sprintf(`Search for authentic historical images of %s.

Query: %s

Please identify 2-3 authentic historical images from reputable sources like:
- National archives
- Library of Congress
- University collections
- Museums
- Historical societies

For each image found, provide:
1. URL (if available in your knowledge)
2. Source
3. Authenticity confidence (0.0-1.0)
4. Brief description

Focus on images from %s showing %s's face clearly.
`, subject.Name, query, subject.Era, subject.Name)

	response, err := f.query(ctx, prompt)
	if err != nil {
		f.logger.WarnContext(ctx, "image search failed", "query", query, "error", err)
		return nil
	}
	return ParseSearchResults(response, subject)
}

// ValidateAuthenticity fact-checks a reference with a grounded query.
// Without grounding, or when the query fails, it falls back to the
// reference's authenticity score.
func (f *Finder) ValidateAuthenticity(ctx context.Context, img domain.ReferenceImage, subject *domain.SubjectData) bool {
	if !f.grounding {
		return img.AuthenticityScore >= AuthenticityThreshold
	}

	prompt := fmt.Sprintf(`Fact-check this image: %s

Subject: %s
Era: %s
Years: %s

Use Google Search to verify:
1. Is this image really of %s?
2. Is the source reputable?
3. Does it match the historical era?
4. Are there any red flags or inconsistencies?

Respond with: AUTHENTIC or NOT_AUTHENTIC
`, img.URL, subject.Name, subject.Era, subject.FormattedYears(), subject.Name)

	response, err := f.querier.QueryWithGrounding(ctx, prompt)
	if err != nil {
		f.logger.WarnContext(ctx, "authenticity validation failed", "url", img.URL, "error", err)
		return img.AuthenticityScore >= AuthenticityThreshold
	}

	lower := strings.ToLower(response)
	return strings.Contains(lower, "authentic") &&
		!strings.Contains(lower, "not_authentic") &&
		!strings.Contains(lower, "not authentic")
}

func (f *Finder) query(ctx context.Context, prompt string) (string, error) {
	if f.grounding {
		return f.querier.QueryWithGrounding(ctx, prompt)
	}
	return f.querier.QueryText(ctx, prompt)
}

// Download fetches each reference, rejects images smaller than
// MinReferenceSide on either side, stores the accepted ones under the
// download directory and returns them as inline reference data. The
// LocalPath of accepted images is updated in place. Failures are logged and
// skipped.
func (f *Finder) Download(ctx context.Context, subjectName string, images []domain.ReferenceImage) []generation.ReferenceData {
	if len(images) == 0 {
		return nil
	}
	if err := f.fs.MkdirAll(f.downloadDir, 0o755); err != nil {
		f.logger.WarnContext(ctx, "cannot create reference directory", "dir", f.downloadDir, "error", err)
		return nil
	}

	prefix := domain.SanitizeFilename(subjectName)
	var refs []generation.ReferenceData
	for i := range images {
		data, format, err := f.fetch(ctx, images[i].URL)
		if err != nil {
			f.logger.WarnContext(ctx, "failed to download reference", "url", images[i].URL, "error", err)
			continue
		}

		path := filepath.Join(f.downloadDir, fmt.Sprintf("%s_ref_%d.%s", prefix, i+1, format))
		if err := afero.WriteFile(f.fs, path, data, 0o644); err != nil {
			f.logger.WarnContext(ctx, "failed to store reference", "path", path, "error", err)
			continue
		}
		images[i].LocalPath = path

		refs = append(refs, generation.ReferenceData{Data: data, MIMEType: "image/" + format})
		f.logger.DebugContext(ctx, "downloaded reference", "url", images[i].URL, "path", path)
	}
	return refs
}

// Cleanup removes the files Download stored for images and clears their
// LocalPath. References are only needed while a subject is being generated.
func (f *Finder) Cleanup(ctx context.Context, images []domain.ReferenceImage) {
	for i := range images {
		if images[i].LocalPath == "" {
			continue
		}
		if err := f.fs.Remove(images[i].LocalPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			f.logger.WarnContext(ctx, "failed to remove reference", "path", images[i].LocalPath, "error", err)
			continue
		}
		images[i].LocalPath = ""
	}
}

// fetch downloads and sanity checks one image, returning its bytes and
// decoded format name.
func (f *Finder) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, "", err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("not a decodable image: %w", err)
	}
	if cfg.Width < MinReferenceSide || cfg.Height < MinReferenceSide {
		return nil, "", fmt.Errorf("image too small (%dx%d)", cfg.Width, cfg.Height)
	}
	return data, format, nil
}
