package main

import (
	"fmt"
	"io"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"
)

// newHTTPClient returns the client used for http(s) descriptors. When a
// latency or bandwidth limit is configured, responses are slowed down so the
// effect of the cache on a remote source can be observed locally.
func newHTTPClient(cfg config) *nethttp.Client {
	transport := nethttp.DefaultTransport
	if base, ok := transport.(*nethttp.Transport); ok {
		transport = base.Clone()
	}
	if cfg.httpLatency > 0 || cfg.httpBPS > 0 {
		transport = &slowTransport{
			base:           transport,
			latency:        cfg.httpLatency,
			bytesPerSecond: cfg.httpBPS,
		}
	}
	return &nethttp.Client{Transport: transport}
}

type slowTransport struct {
	base           nethttp.RoundTripper
	latency        time.Duration
	bytesPerSecond int64
}

func (t *slowTransport) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) {
	if t.latency > 0 {
		timer := time.NewTimer(t.latency)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if t.bytesPerSecond > 0 && resp.Body != nil {
		resp.Body = &slowBody{
			rc:             resp.Body,
			bytesPerSecond: t.bytesPerSecond,
			start:          time.Now(),
		}
	}
	return resp, nil
}

type slowBody struct {
	rc             io.ReadCloser
	bytesPerSecond int64
	start          time.Time
	read           int64
}

func (b *slowBody) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if n > 0 {
		b.read += int64(n)
		due := time.Duration(float64(b.read) / float64(b.bytesPerSecond) * float64(time.Second))
		if wait := due - time.Since(b.start); wait > 0 {
			time.Sleep(wait)
		}
	}
	return n, err
}

func (b *slowBody) Close() error {
	return b.rc.Close()
}

var byteUnits = []struct {
	suffix string
	scale  int64
}{
	{"kb", 1 << 10},
	{"k", 1 << 10},
	{"mb", 1 << 20},
	{"m", 1 << 20},
	{"gb", 1 << 30},
	{"g", 1 << 30},
}

// parseBytesPerSecond parses values such as "512", "64k", "10MBps" or
// "1g/s". Units are binary.
func parseBytesPerSecond(value string) (int64, error) {
	text := strings.TrimSpace(value)
	for _, suffix := range []string{"Bps", "bps", "/s"} {
		text = strings.TrimSuffix(text, suffix)
	}
	text = strings.TrimSpace(text)

	scale := int64(1)
	lower := strings.ToLower(text)
	for _, u := range byteUnits {
		if strings.HasSuffix(lower, u.suffix) {
			scale = u.scale
			text = strings.TrimSpace(text[:len(text)-len(u.suffix)])
			break
		}
	}

	raw, err := strconv.ParseInt(text, 10, 64)
	if err != nil || raw <= 0 {
		return 0, fmt.Errorf("invalid bytes-per-second %q", value)
	}
	return raw * scale, nil
}
