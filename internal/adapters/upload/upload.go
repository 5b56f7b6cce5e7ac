// Package upload pushes recorded session videos to the pose-inference
// backend's batch endpoint and decodes the classification response.
//
// Uploads run in the background behind a cancellable handle that exposes
// coalesced progress, so large files neither block the caller nor flood
// it with per-chunk notifications.
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/model"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/normalize"
	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/logger"
	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/metrics"
)

// Result is the decoded batch response for one uploaded video. Exactly
// one of Hand or Body is populated, matching the requested domain.
type Result struct {
	Domain model.Domain
	Hand   *normalize.HandVideoResult
	Body   []model.BodyRecord
}

// Uploader sends videos to {base}/analyze/{domain}. One upload may run
// at a time per uploader.
type Uploader struct {
	baseURL  string
	client   *http.Client
	maxBytes int64
	logger   logger.Logger

	inFlight atomic.Bool
}

// NewUploader builds an uploader for the given backend base URL.
func NewUploader(baseURL string, opts ...Option) *Uploader {
	u := &Uploader{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: 10 * time.Minute},
		maxBytes: 100 << 20,
		logger:   logger.Get().Named("upload"),
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

// Start validates the request and launches the transfer in the
// background, returning a handle immediately. It fails fast when another
// upload is running, when no file was given, or when the declared size
// exceeds the limit.
func (u *Uploader) Start(ctx context.Context, domain model.Domain, file io.Reader, size int64, name string) (*Upload, error) {
	if file == nil {
		return nil, ErrNoFile
	}
	if u.maxBytes > 0 && size > u.maxBytes {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, size, u.maxBytes)
	}
	if !u.inFlight.CompareAndSwap(false, true) {
		return nil, ErrUploadInFlight
	}

	runCtx, cancel := context.WithCancel(ctx)
	up := &Upload{
		progress: make(chan float64, 1),
		done:     make(chan struct{}),
		cancel:   cancel,
	}

	metrics.RecordUploadStarted()
	u.logger.Info(ctx, "upload started",
		logger.String("domain", string(domain)),
		logger.String("file", name),
		logger.Int64("bytes", size),
	)

	go func() {
		defer u.inFlight.Store(false)
		defer cancel()

		started := time.Now()
		result, err := u.transfer(runCtx, domain, file, size, name, up)
		up.finish(result, err)

		if err != nil {
			metrics.RecordUploadFailed()
			u.logger.Error(runCtx, "upload failed", logger.Error(err))
			return
		}
		metrics.RecordUploadCompleted(float64(time.Since(started).Milliseconds()))
		u.logger.Info(runCtx, "upload completed",
			logger.Duration("elapsed", time.Since(started)))
	}()

	return up, nil
}

// transfer streams the multipart body and decodes the response.
func (u *Uploader) transfer(ctx context.Context, domain model.Domain, file io.Reader, size int64, name string, up *Upload) (*Result, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	counted := &progressReader{r: file, total: size, report: up.report}

	go func() {
		part, err := form.CreateFormFile("file", name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, counted); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(form.Close())
	}()

	url := fmt.Sprintf("%s/analyze/%s", u.baseURL, domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCanceled
		}
		return nil, fmt.Errorf("post video: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	metrics.RecordUploadBytes(counted.count.Load())
	return decode(domain, body)
}

func decode(domain model.Domain, body []byte) (*Result, error) {
	switch domain {
	case model.DomainHand:
		var resp normalize.HandVideoResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode hand response: %w", err)
		}
		res := normalize.HandVideo(resp)
		return &Result{Domain: domain, Hand: &res}, nil
	case model.DomainBody:
		var resp normalize.BodyVideoResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode body response: %w", err)
		}
		return &Result{Domain: domain, Body: normalize.BodyVideo(resp)}, nil
	default:
		return nil, fmt.Errorf("unknown domain %q", domain)
	}
}

// Upload is the handle for one background transfer.
type Upload struct {
	progress chan float64
	done     chan struct{}
	cancel   context.CancelFunc

	mu      sync.Mutex
	last    float64
	result  *Result
	err     error
	settled bool
}

// Progress returns a channel of fractions in [0,1]. Values are monotonic
// and coalesced: a slow consumer sees the latest fraction, not every
// intermediate one. The channel closes when the transfer settles.
func (up *Upload) Progress() <-chan float64 { return up.progress }

// Cancel aborts the transfer. Safe to call at any point, any number of
// times.
func (up *Upload) Cancel() { up.cancel() }

// Wait blocks until the transfer settles or ctx is done, then returns
// the decoded result or the terminal error.
func (up *Upload) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-up.done:
		up.mu.Lock()
		defer up.mu.Unlock()
		return up.result, up.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// report publishes a progress fraction, clamped and kept monotonic. A
// pending stale value is replaced rather than queued behind. The mutex
// also fences the channel against finish closing it mid-send.
func (up *Upload) report(frac float64) {
	up.mu.Lock()
	defer up.mu.Unlock()

	if up.settled {
		return
	}
	if frac < up.last {
		frac = up.last
	}
	if frac > 1 {
		frac = 1
	}
	up.last = frac

	select {
	case up.progress <- frac:
	default:
		select {
		case <-up.progress:
		default:
		}
		select {
		case up.progress <- frac:
		default:
		}
	}
}

func (up *Upload) finish(result *Result, err error) {
	if err == nil {
		up.report(1)
	}

	up.mu.Lock()
	up.settled = true
	up.result = result
	up.err = err
	close(up.progress)
	up.mu.Unlock()

	close(up.done)
}

// progressReader counts bytes as the multipart writer drains the file.
type progressReader struct {
	r      io.Reader
	total  int64
	count  atomic.Int64
	report func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		read := p.count.Add(int64(n))
		if p.total > 0 {
			p.report(float64(read) / float64(p.total))
		}
	}
	return n, err
}
