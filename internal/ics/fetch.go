package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sourcegraph/conc/pool"

	appLog "weekgrid/internal/log"
)

const (
	defaultFetchWorkers  = 4
	defaultFetchAttempts = 3
)

// Source is one ICS subscription feeding the store.
type Source struct {
	ID    string
	URL   string
	Color string
}

// FetchResult is the body obtained for a source.
type FetchResult struct {
	Source    Source
	Body      []byte
	FromCache bool
}

// cacheMeta is persisted next to each cached body.
type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads feeds with conditional requests and a disk cache, so a
// flaky or unchanged feed still yields its last good body.
type Fetcher struct {
	client   *http.Client
	cacheDir string

	Workers    int
	Attempts   uint
	RetryDelay time.Duration
}

// NewFetcher returns a Fetcher caching under cacheDir.
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/ics-cache"
	}
	return &Fetcher{
		client:     &http.Client{Timeout: 15 * time.Second},
		cacheDir:   cacheDir,
		Workers:    defaultFetchWorkers,
		Attempts:   defaultFetchAttempts,
		RetryDelay: 500 * time.Millisecond,
	}
}

// FetchAll fetches sources concurrently. Results keep the order of sources
// and only include sources that produced a body.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]FetchResult, []error) {
	workers := f.Workers
	if workers <= 0 {
		workers = defaultFetchWorkers
	}

	slots := make([]*FetchResult, len(sources))
	var (
		errsMu sync.Mutex
		errs   []error
	)

	p := pool.New().WithMaxGoroutines(workers)
	for i, src := range sources {
		p.Go(func() {
			res, err := f.FetchOne(ctx, src)
			if err != nil {
				appLog.Error("ics fetch failed", err, "id", src.ID, "url", redactURL(src.URL))
				errsMu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", src.ID, err))
				errsMu.Unlock()
				return
			}
			slots[i] = &res
		})
	}
	p.Wait()

	results := make([]FetchResult, 0, len(sources))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results, errs
}

// FetchOne fetches a single source, retrying transient failures and falling
// back to the cached body when the network gives up.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, errors.New("source URL is empty")
	}

	cachePath := f.cachePathForURL(src.URL)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return FetchResult{}, err
	}
	meta, _ := loadCacheMeta(cachePath)
	cached, _ := os.ReadFile(filepath.Join(cachePath, "body.ics"))

	var res FetchResult
	err := retry.Do(
		func() error {
			var err error
			res, err = f.fetchOnce(ctx, src, cachePath, meta, cached)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(max(1, f.Attempts)),
		retry.Delay(f.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err == nil {
		return res, nil
	}

	if len(cached) > 0 {
		appLog.Error("ics fetch gave up, using cached body", err, "id", src.ID, "url", redactURL(src.URL))
		return FetchResult{Source: src, Body: cached, FromCache: true}, nil
	}
	return FetchResult{}, err
}

func (f *Fetcher) fetchOnce(ctx context.Context, src Source, cachePath string, meta cacheMeta, cached []byte) (FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return FetchResult{}, retry.Unrecoverable(err)
	}
	if meta.ETag != "" && len(cached) > 0 {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" && len(cached) > 0 {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return FetchResult{}, err
		}
		newMeta := cacheMeta{
			URL:          src.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := saveCache(cachePath, newMeta, body); err != nil {
			appLog.Error("ics cache save failed", err, "id", src.ID)
		}
		appLog.Info("ics fetch success", "id", src.ID, "url", redactURL(src.URL), "bytes", len(body))
		return FetchResult{Source: src, Body: body}, nil

	case resp.StatusCode == http.StatusNotModified:
		if len(cached) == 0 {
			return FetchResult{}, retry.Unrecoverable(errors.New("304 Not Modified without cached body"))
		}
		appLog.Info("ics fetch not modified", "id", src.ID, "url", redactURL(src.URL))
		return FetchResult{Source: src, Body: cached, FromCache: true}, nil

	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return FetchResult{}, errors.New(resp.Status)

	default:
		return FetchResult{}, retry.Unrecoverable(errors.New(resp.Status))
	}
}

func (f *Fetcher) cachePathForURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCacheMeta(cachePath string) (cacheMeta, error) {
	var meta cacheMeta
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheMeta{}, err
	}
	return meta, nil
}

func saveCache(cachePath string, meta cacheMeta, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.ics"), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL keeps only scheme and host; feed URLs often embed secrets.
func redactURL(u string) string {
	scheme, rest, ok := strings.Cut(u, "://")
	if !ok {
		return "ics://...(redacted)"
	}
	host, _, _ := strings.Cut(rest, "/")
	host, _, _ = strings.Cut(host, "?")
	return scheme + "://" + host + "/...(redacted)"
}
