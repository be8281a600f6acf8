package seekcache

import (
	"context"
	"fmt"
	"os"

	seekhttp "github.com/meigma/seekcache/http"
	"github.com/meigma/seekcache/oci"
)

// Built-in descriptor schemes.
const (
	schemeFile  = "file"
	schemeHTTP  = "http"
	schemeHTTPS = "https"
	schemeOCI   = "oci"
)

func openFile(_ context.Context, descriptor string, mode AccessMode) (Stream, error) {
	_, path := splitScheme(descriptor)

	var flag int
	switch mode {
	case ReadOnly:
		flag = os.O_RDONLY
	case WriteOnly:
		flag = os.O_WRONLY
	case ReadWrite:
		flag = os.O_RDWR
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMode, mode)
	}
	f, err := os.OpenFile(path, flag, 0) //nolint:gosec // path is chosen by the caller
	if err != nil {
		return nil, err
	}
	return f, nil
}

func httpOpener(opts []seekhttp.Option) Opener {
	return OpenerFunc(func(ctx context.Context, descriptor string, mode AccessMode) (Stream, error) {
		if mode != ReadOnly {
			return nil, fmt.Errorf("%w: http streams are %s", ErrUnsupportedMode, ReadOnly)
		}
		src, err := seekhttp.Open(ctx, descriptor, opts...)
		if err != nil {
			return nil, err
		}
		return src, nil
	})
}

func ociOpener(opts []oci.Option) Opener {
	return OpenerFunc(func(ctx context.Context, descriptor string, mode AccessMode) (Stream, error) {
		if mode != ReadOnly {
			return nil, fmt.Errorf("%w: oci streams are %s", ErrUnsupportedMode, ReadOnly)
		}
		_, ref := splitScheme(descriptor)
		b, err := oci.New(opts...).Open(ctx, ref)
		if err != nil {
			return nil, err
		}
		return b, nil
	})
}
