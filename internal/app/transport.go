package app

import (
	"context"
	"net/url"
	"path"
	"time"

	ts "tickspot-scraper/internal/adapter/tickspot"
	"tickspot-scraper/internal/metrics"
)

// observedTransport records every Tickspot call in the sync metrics.
type observedTransport struct {
	next    ts.Transport
	metrics *metrics.Sync
}

func (t observedTransport) PostForm(ctx context.Context, target string, form url.Values) (int, []byte, error) {
	start := time.Now()
	status, body, err := t.next.PostForm(ctx, target, form)
	t.metrics.ObserveCall(apiMethod(target), status, time.Since(start))
	return status, body, err
}

// apiMethod extracts "clients" from https://x.tickspot.com/api/clients.
func apiMethod(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return "unknown"
	}
	return path.Base(u.Path)
}
