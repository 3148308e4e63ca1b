package objectstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/book-expert/speech-desk/internal/objectstore"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

// startTestServer starts an in-memory NATS server with JetStream.
func startTestServer(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	natsServer := test.RunServer(&opts)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	if err != nil {
		natsServer.Shutdown()
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	t.Cleanup(func() {
		natsConnection.Close()
		natsServer.Shutdown()
	})

	return natsServer, natsConnection
}

func TestBucket_UploadDownloadDelete(t *testing.T) {
	t.Parallel()

	_, natsConnection := startTestServer(t)

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	bucket, err := objectstore.Open(jetstreamContext, "speech-audio", time.Hour)
	require.NoError(t, err)
	require.Equal(t, "speech-audio", bucket.Name())

	ctx := context.Background()
	payload := []byte("RIFF....WAVEfmt fake audio")

	require.NoError(t, bucket.Upload(ctx, "clip.wav", payload))

	downloaded, err := bucket.Download(ctx, "clip.wav")
	require.NoError(t, err)
	require.Equal(t, payload, downloaded)

	require.NoError(t, bucket.Delete(ctx, "clip.wav"))
	require.NoError(t, bucket.Delete(ctx, "clip.wav"))

	_, err = bucket.Download(ctx, "clip.wav")
	require.Error(t, err)
}

func TestOpen_BindsToExistingBucket(t *testing.T) {
	t.Parallel()

	_, natsConnection := startTestServer(t)

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	first, err := objectstore.Open(jetstreamContext, "speech-text", time.Hour)
	require.NoError(t, err)
	require.NoError(t, first.Upload(context.Background(), "a.txt", []byte("hello")))

	second, err := objectstore.Open(jetstreamContext, "speech-text", time.Hour)
	require.NoError(t, err)

	data, err := second.Download(context.Background(), "a.txt")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)
}
