package seekcache

import (
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/metric"

	seekhttp "github.com/meigma/seekcache/http"
	"github.com/meigma/seekcache/oci"
	"github.com/meigma/seekcache/store"
)

// Option configures a Session.
type Option func(*config)

type config struct {
	logger        *slog.Logger
	meterProvider metric.MeterProvider
	store         store.Store
	storeDir      string
	openers       map[string]Opener
	httpOpts      []seekhttp.Option
	ociOpts       []oci.Option
}

func newConfig(opts []Option) *config {
	cfg := &config{
		logger:  slog.New(slog.DiscardHandler),
		openers: make(map[string]Opener),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	return cfg
}

// WithLogger sets the logger used for diagnostics and the statistics
// reported on Close. Defaults to discarding everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider used to record
// hit and miss counters. Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) {
		c.meterProvider = mp
	}
}

// WithStore makes Open use s as the backing store instead of allocating a
// temporary file. The session takes ownership of s and closes it on Close.
func WithStore(s store.Store) Option {
	return func(c *config) {
		c.store = s
	}
}

// WithStoreDir sets the directory for the anonymous backing file.
// Defaults to os.TempDir.
func WithStoreDir(dir string) Option {
	return func(c *config) {
		c.storeDir = dir
	}
}

// WithOpener registers an opener for descriptors with the given scheme,
// replacing the built-in one if any.
func WithOpener(scheme string, o Opener) Option {
	return func(c *config) {
		c.openers[strings.ToLower(scheme)] = o
	}
}

// WithHTTPOptions sets options for http and https inner streams.
func WithHTTPOptions(opts ...seekhttp.Option) Option {
	return func(c *config) {
		c.httpOpts = append(c.httpOpts, opts...)
	}
}

// WithOCIOptions sets options for oci inner streams.
func WithOCIOptions(opts ...oci.Option) Option {
	return func(c *config) {
		c.ociOpts = append(c.ociOpts, opts...)
	}
}
