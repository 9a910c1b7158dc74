// Package pipeline joins the fetcher and the extraction engine into the
// "fetch and extract" operation used by the server and the CLI.
package pipeline

import (
	"bytes"
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"pagecontent/internal/crawler"
	"pagecontent/internal/extractor"
	"pagecontent/internal/models"
	"pagecontent/pkg/logger"
)

// Fetcher retrieves a page. *crawler.HTTPClient satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*crawler.Response, error)
}

type Pipeline struct {
	fetcher Fetcher
	engine  *extractor.Engine
	log     *logger.Logger
}

func New(f Fetcher, e *extractor.Engine, l *logger.Logger) *Pipeline {
	if l == nil {
		l = logger.Nop()
	}
	return &Pipeline{fetcher: f, engine: e, log: l}
}

// FetchAndExtract fetches rawURL and extracts it. A fetch failure is returned
// as is and extraction never starts. The record's URL is the final URL after
// redirects.
func (p *Pipeline) FetchAndExtract(ctx context.Context, rawURL string) (models.PageContent, error) {
	if p.fetcher == nil {
		return models.PageContent{}, errors.New("no fetcher configured")
	}
	resp, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		p.log.Warnf("fetch %s: %v", rawURL, err)
		return models.PageContent{}, err
	}
	finalURL := resp.FinalURL
	if finalURL == "" {
		finalURL = rawURL
	}
	pc, err := p.engine.ExtractReader(bytes.NewReader(resp.Body), resp.ContentType, finalURL)
	if err != nil {
		return models.PageContent{}, err
	}
	p.log.Debugf("extracted %s as %s in %s", finalURL, pc.PageType, resp.Elapsed)
	return pc, nil
}

// ExtractHTML runs the engine on markup that is already in hand.
func (p *Pipeline) ExtractHTML(html, rawURL string) (models.PageContent, error) {
	return p.engine.ExtractHTML(html, rawURL)
}

// Batch fetches and extracts urls with at most concurrency in flight. Results
// keep the input order; one failure does not stop the others.
func (p *Pipeline) Batch(ctx context.Context, urls []string, concurrency int) []models.BatchItem {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]models.BatchItem, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, u := range urls {
		i, u := i, u // per-iteration copies (go 1.21 loop semantics)
		g.Go(func() error {
			results[i] = p.one(gctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Stream is Batch delivering each item to emit as soon as it is ready.
// emit is never called concurrently.
func (p *Pipeline) Stream(ctx context.Context, urls []string, concurrency int, emit func(models.BatchItem)) {
	if concurrency <= 0 {
		concurrency = 1
	}
	out := make(chan models.BatchItem)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	go func() {
		for _, u := range urls {
			u := u // per-iteration copy (go 1.21 loop semantics)
			g.Go(func() error {
				out <- p.one(gctx, u)
				return nil
			})
		}
		_ = g.Wait()
		close(out)
	}()
	for item := range out {
		emit(item)
	}
}

func (p *Pipeline) one(ctx context.Context, u string) models.BatchItem {
	if u == "" {
		return models.BatchItem{URL: u, Error: "empty url"}
	}
	pc, err := p.FetchAndExtract(ctx, u)
	if err != nil {
		return models.BatchItem{URL: u, Error: err.Error()}
	}
	return models.BatchItem{URL: u, Result: &pc}
}
