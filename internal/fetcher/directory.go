package fetcher

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/jpalmerr/walkin/directory"
)

// Directory fetches and decodes the clinic directory, memoized with [Once].
//
// Fetch cannot be cancelled by its caller: the shared request runs on a
// context detached from the caller's cancellation and is bounded only by the
// configured timeout. No retries are performed.
type Directory struct {
	url     string
	timeout time.Duration
	client  *Client
	logger  *slog.Logger
	once    *Once[[]directory.Location]
}

// NewDirectory creates a [Directory] for the given endpoint.
//
// If client is nil a new [Client] is created. If logger is nil,
// slog.Default() is used.
func NewDirectory(url string, timeout time.Duration, client *Client, logger *slog.Logger) *Directory {
	if client == nil {
		client = NewClient()
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Directory{
		url:     url,
		timeout: timeout,
		client:  client,
		logger:  logger,
	}
	d.once = NewOnce(d.load)
	return d
}

// URL returns the directory endpoint.
func (d *Directory) URL() string {
	return d.url
}

// Fetch returns the tagged directory, performing the network request only if
// no successful result is memoized.
func (d *Directory) Fetch(ctx context.Context) ([]directory.Location, error) {
	return d.once.Do(context.WithoutCancel(ctx))
}

// Reset drops the memoized directory so the next [Directory.Fetch] goes to
// the network again.
func (d *Directory) Reset() {
	d.once.Reset()
}

// Requests reports how many network fetches have been started.
func (d *Directory) Requests() int64 {
	return d.once.Calls()
}

// Close releases idle connections held by the underlying client.
func (d *Directory) Close() {
	d.client.Close()
}

func (d *Directory) load(ctx context.Context) ([]directory.Location, error) {
	resp, err := d.client.Get(ctx, d.url, d.timeout)
	if err != nil {
		return nil, err
	}

	locs, err := directory.Decode(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, err
	}

	d.logger.Info("directory fetched",
		"url", d.url,
		"count", len(locs),
		"bytes", len(resp.Body),
		"latency_ms", resp.Latency.Milliseconds(),
	)
	return locs, nil
}
