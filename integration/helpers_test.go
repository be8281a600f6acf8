//go:build integration

package integration

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/registry/remote"

	"github.com/meigma/seekcache"
	"github.com/meigma/seekcache/oci"
)

var (
	registryOnce sync.Once
	registryAddr string
	registryErr  error
)

// getRegistry returns the shared registry address, starting the container if needed.
func getRegistry(tb testing.TB) string {
	tb.Helper()

	if os.Getenv("SKIP_DOCKER_TESTS") == "1" {
		tb.Skip("SKIP_DOCKER_TESTS is set")
	}

	registryOnce.Do(func() {
		registryAddr, registryErr = startRegistryContainer(context.Background())
	})
	if registryErr != nil {
		tb.Fatalf("start registry container: %v", registryErr)
	}
	return registryAddr
}

// startRegistryContainer starts a registry:2 container and returns the host:port address.
// Cleanup is left to the testcontainers reaper.
func startRegistryContainer(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "registry:2",
		ExposedPorts: []string{"5000/tcp"},
		WaitingFor:   wait.ForHTTP("/v2/").WithPort("5000/tcp").WithStatusCodeMatcher(isOKStatus),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start registry container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve registry host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5000/tcp")
	if err != nil {
		return "", fmt.Errorf("resolve registry port: %w", err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}

func isOKStatus(status int) bool {
	return status >= 200 && status < 300
}

// pushBlob uploads data to repository test/<name> and returns its descriptor.
func pushBlob(tb testing.TB, addr, name string, data []byte) ocispec.Descriptor {
	tb.Helper()

	repo, err := remote.NewRepository(fmt.Sprintf("%s/test/%s", addr, name))
	require.NoError(tb, err)
	repo.PlainHTTP = true

	desc := content.NewDescriptorFromBytes("application/octet-stream", data)
	require.NoError(tb, repo.Blobs().Push(context.Background(), desc, bytes.NewReader(data)), "push blob")
	return desc
}

// blobDescriptor returns the seekcache descriptor for a blob in test/<name>.
func blobDescriptor(addr, name string, dgst digest.Digest) string {
	return fmt.Sprintf("oci://%s/test/%s@%s", addr, name, dgst)
}

// openSession opens a cached session against the local registry.
func openSession(tb testing.TB, descriptor string, opts ...seekcache.Option) *seekcache.Session {
	tb.Helper()

	all := append([]seekcache.Option{
		seekcache.WithStoreDir(tb.TempDir()),
		seekcache.WithOCIOptions(oci.WithPlainHTTP(true), oci.WithAnonymous()),
	}, opts...)
	s, err := seekcache.Open(context.Background(), descriptor, seekcache.ReadOnly, all...)
	require.NoError(tb, err, "open %s", descriptor)
	tb.Cleanup(func() { _ = s.Close() })
	return s
}

func digestOf(data []byte) digest.Digest {
	return digest.FromBytes(data)
}
