package channel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jitsucom/crashnative/storages"
	"github.com/jitsucom/crashnative/timestamp"
	"github.com/jitsucom/crashnative/transport"
	"github.com/stretchr/testify/require"
)

type scriptedTransport struct {
	mu     sync.Mutex
	bodies []string
	fail   map[string]error
}

func (st *scriptedTransport) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	body := string(req.Body)
	st.bodies = append(st.bodies, body)
	if err, ok := st.fail[body]; ok {
		return nil, err
	}
	return &transport.Response{StatusCode: 200}, nil
}

func (st *scriptedTransport) sent() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]string{}, st.bodies...)
}

func newTestSender(t *testing.T, tr transport.Sender) (*Storage, *Sender, *storages.InMemory) {
	fs := storages.NewInMemory()
	storage, err := NewStorage(context.Background(), fs, "", 0, 0)
	require.NoError(t, err)

	sender, err := NewSender(storage, tr, nil, SenderConfig{PoolSize: 1})
	require.NoError(t, err)
	t.Cleanup(sender.Close)

	return storage, sender, fs
}

func TestSenderDeliversAndDeletes(t *testing.T) {
	ctx := context.Background()
	tr := &scriptedTransport{}
	storage, sender, fs := newTestSender(t, tr)

	require.True(t, storage.Enqueue(ctx, testTransmission("a")))
	require.True(t, storage.Enqueue(ctx, testTransmission("b")))

	require.Equal(t, 2, sender.SendPending(ctx))
	require.ElementsMatch(t, []string{"a", "b"}, tr.sent())

	names, err := fs.ListFiles(ctx, DefaultFolder, "*.trn")
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestSenderKeepsTransientFailures(t *testing.T) {
	ctx := context.Background()
	tr := &scriptedTransport{fail: map[string]error{
		"retry":    transport.ServerError.New("service unavailable").WithProperty(transport.StatusCode, 503),
		"rejected": transport.Rejected.New("bad request").WithProperty(transport.StatusCode, 400),
	}}
	storage, sender, fs := newTestSender(t, tr)

	timestamp.SetFreezedTime(time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC))
	defer timestamp.UnfreezeTime()
	require.True(t, storage.Enqueue(ctx, testTransmission("rejected")))
	timestamp.Advance(time.Second)
	require.True(t, storage.Enqueue(ctx, testTransmission("retry")))

	require.Equal(t, 0, sender.SendPending(ctx))

	names, err := fs.ListFiles(ctx, DefaultFolder, "*.trn")
	require.NoError(t, err)
	require.Len(t, names, 1, "only the transient failure is kept")

	kept := storage.Peek(ctx)
	require.NotNil(t, kept, "kept transmission must be released for the next pass")
	require.Equal(t, "retry", string(kept.Content))
}

func TestSenderOffline(t *testing.T) {
	ctx := context.Background()
	tr := &scriptedTransport{}
	fs := storages.NewInMemory()
	storage, err := NewStorage(ctx, fs, "", 0, 0)
	require.NoError(t, err)
	sender, err := NewSender(storage, tr, transport.NewStaticConnectivity(false), SenderConfig{})
	require.NoError(t, err)
	defer sender.Close()

	require.True(t, storage.Enqueue(ctx, testTransmission("a")))
	require.Equal(t, 0, sender.SendPending(ctx))
	require.Empty(t, tr.sent())
}
