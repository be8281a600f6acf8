package seekcache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/meigma/seekcache/store"
)

// descriptorPrefix is accepted and ignored in front of any descriptor.
const descriptorPrefix = "cache:"

// Open allocates a backing store and opens the inner stream named by
// descriptor through the opener registered for its scheme.
//
// Descriptors without a scheme are local paths. Built-in schemes are file,
// http, https and oci. ctx is forwarded to the opener and stays bound to the
// inner stream's requests for the session's lifetime.
func Open(ctx context.Context, descriptor string, mode AccessMode, opts ...Option) (*Session, error) {
	cfg := newConfig(opts)
	target := strings.TrimPrefix(descriptor, descriptorPrefix)

	scheme, _ := splitScheme(target)
	opener, ok := cfg.opener(scheme)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}

	st := cfg.store
	if st == nil {
		tmp, err := store.NewTempFile(cfg.storeDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrResourceAllocation, err)
		}
		st = tmp
	}

	inner, err := opener.Open(ctx, target, mode)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("%w: open %q: %w", ErrInnerStream, target, err)
	}

	cfg.logger.Debug("session opened",
		slog.String("descriptor", target),
		slog.String("mode", mode.String()))
	return newSession(inner, st, cfg), nil
}

// splitScheme splits "scheme://rest" into its parts. Descriptors without
// "://" are file paths.
func splitScheme(descriptor string) (scheme, rest string) {
	if s, r, ok := strings.Cut(descriptor, "://"); ok && s != "" && !strings.ContainsAny(s, `/\`) {
		return strings.ToLower(s), r
	}
	return schemeFile, descriptor
}

func (c *config) opener(scheme string) (Opener, bool) {
	if o, ok := c.openers[scheme]; ok && o != nil {
		return o, true
	}
	switch scheme {
	case schemeFile:
		return OpenerFunc(openFile), true
	case schemeHTTP, schemeHTTPS:
		return httpOpener(c.httpOpts), true
	case schemeOCI:
		return ociOpener(c.ociOpts), true
	default:
		return nil, false
	}
}
