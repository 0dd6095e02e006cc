package realtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-foodcourt/internal/logger"
	"ms-foodcourt/internal/models"
	"ms-foodcourt/internal/realtime"
)

// fakeTransport is an in-memory Transport for exercising the client
// without Redis.
type fakeTransport struct {
	mu           sync.Mutex
	connectCalls int
	failConnects int
	joins        []string
	leaves       []string
	messages     chan realtime.Message
	closed       bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{}
}

func (f *fakeTransport) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectCalls++
	if f.connectCalls <= f.failConnects {
		return errors.New("connection refused")
	}
	if f.messages == nil || f.closed {
		f.messages = make(chan realtime.Message, 8)
		f.closed = false
	}
	return nil
}

func (f *fakeTransport) JoinRoom(ctx context.Context, room string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joins = append(f.joins, room)
	return nil
}

func (f *fakeTransport) LeaveRoom(ctx context.Context, room string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaves = append(f.leaves, room)
	return nil
}

func (f *fakeTransport) Messages() <-chan realtime.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	close(f.messages)
	f.closed = true
	return nil
}

func (f *fakeTransport) push(msg realtime.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages <- msg
}

func (f *fakeTransport) joinCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.joins)
}

func testConfig() realtime.Config {
	return realtime.Config{
		MaxConnectAttempts: 3,
		RetryDelay:         time.Millisecond,
		ConnectTimeout:     time.Second,
	}
}

func testClient(t *testing.T, transport realtime.Transport) *realtime.Client {
	t.Helper()
	return realtime.NewClient(transport, testConfig(), logger.NewLogger("realtime-test"))
}

func TestConnectIsIdempotent(t *testing.T) {
	transport := newFakeTransport()
	client := testClient(t, transport)

	require.NoError(t, client.Connect())
	require.NoError(t, client.Connect())
	require.NoError(t, client.Connect())

	assert.Equal(t, 1, transport.connectCalls)
}

func TestConnectWithoutTransportFails(t *testing.T) {
	client := testClient(t, nil)
	assert.ErrorIs(t, client.Connect(), realtime.ErrNoTransport)
}

func TestConnectRetriesAreBounded(t *testing.T) {
	transport := newFakeTransport()
	transport.failConnects = 10
	client := testClient(t, transport)

	err := client.Connect()
	require.Error(t, err)
	assert.Equal(t, 3, transport.connectCalls)

	// The failed attempt is not cached: a new call retries from scratch
	// and succeeds once the transport recovers.
	transport.mu.Lock()
	transport.failConnects = 3
	transport.mu.Unlock()
	require.NoError(t, client.Connect())
	assert.Equal(t, 4, transport.connectCalls)
}

func TestLikeUpdateFanOut(t *testing.T) {
	transport := newFakeTransport()
	client := testClient(t, transport)
	require.NoError(t, client.Connect())

	first := make(chan models.LikeUpdate, 4)
	second := make(chan models.LikeUpdate, 4)
	unsubFirst := client.OnProductLikeUpdate(func(u models.LikeUpdate) { first <- u })
	client.OnProductLikeUpdate(func(u models.LikeUpdate) { second <- u })

	transport.push(realtime.Message{
		Room:  realtime.ProductRoom(7),
		Event: models.EventProductLikeUpdate,
		Data:  []byte(`{"isLiked":true,"likeCount":12}`),
	})

	for _, ch := range []chan models.LikeUpdate{first, second} {
		select {
		case got := <-ch:
			assert.True(t, got.IsLiked)
			assert.Equal(t, 12, got.LikeCount)
		case <-time.After(time.Second):
			t.Fatal("callback was not invoked")
		}
	}

	// Unsubscribing one callback leaves the other receiving.
	unsubFirst()
	transport.push(realtime.Message{
		Room:  realtime.ProductRoom(7),
		Event: models.EventProductLikeUpdate,
		Data:  []byte(`{"isLiked":false,"likeCount":11}`),
	})

	select {
	case got := <-second:
		assert.Equal(t, 11, got.LikeCount)
	case <-time.After(time.Second):
		t.Fatal("remaining callback was not invoked")
	}

	select {
	case got := <-first:
		t.Fatalf("unsubscribed callback still invoked: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRatingUpdateDecoding(t *testing.T) {
	transport := newFakeTransport()
	client := testClient(t, transport)
	require.NoError(t, client.Connect())

	got := make(chan models.RatingUpdate, 1)
	client.OnProductRatingUpdate(func(u models.RatingUpdate) { got <- u })

	transport.push(realtime.Message{
		Room:  realtime.ProductRoom(3),
		Event: models.EventProductRatingUpdate,
		Data:  []byte(`{"rating":4.5,"numReviews":20}`),
	})

	select {
	case update := <-got:
		assert.Equal(t, 4.5, update.Rating)
		assert.Equal(t, 20, update.NumReviews)
	case <-time.After(time.Second):
		t.Fatal("rating callback was not invoked")
	}
}

func TestJoinInvalidProductRoomIsNoOp(t *testing.T) {
	transport := newFakeTransport()
	client := testClient(t, transport)

	client.JoinProductRoom(-1)
	client.JoinProductRoom(0)
	client.LeaveProductRoom(-1)

	assert.Equal(t, 0, transport.connectCalls)
	assert.Empty(t, transport.joins)
	assert.Empty(t, transport.leaves)
}

func TestJoinConnectsFirst(t *testing.T) {
	transport := newFakeTransport()
	client := testClient(t, transport)

	client.JoinProductRoom(42)

	assert.Equal(t, 1, transport.connectCalls)
	assert.Contains(t, transport.joins, "product:42")
}

func TestLeaveWithoutConnectionEmitsNothing(t *testing.T) {
	transport := newFakeTransport()
	client := testClient(t, transport)

	client.LeaveProductRoom(42)

	assert.Equal(t, 0, transport.connectCalls)
	assert.Empty(t, transport.leaves)
}

func TestReconnectResumesRooms(t *testing.T) {
	transport := newFakeTransport()
	client := testClient(t, transport)

	client.JoinProductRoom(5)
	require.NoError(t, client.Disconnect())

	joinsBefore := transport.joinCount()
	require.NoError(t, client.Connect())
	assert.Greater(t, transport.joinCount(), joinsBefore, "rooms should be re-joined after reconnect")
	assert.Contains(t, transport.joins, "product:5")

	// Callbacks registered before the disconnect still fire.
	got := make(chan models.LikeUpdate, 1)
	client.OnProductLikeUpdate(func(u models.LikeUpdate) { got <- u })
	transport.push(realtime.Message{
		Room:  realtime.ProductRoom(5),
		Event: models.EventProductLikeUpdate,
		Data:  []byte(`{"isLiked":true,"likeCount":1}`),
	})
	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("callback did not survive reconnect")
	}
}

func TestMalformedPayloadIsDropped(t *testing.T) {
	transport := newFakeTransport()
	client := testClient(t, transport)
	require.NoError(t, client.Connect())

	got := make(chan models.LikeUpdate, 1)
	client.OnProductLikeUpdate(func(u models.LikeUpdate) { got <- u })

	transport.push(realtime.Message{
		Room:  realtime.ProductRoom(1),
		Event: models.EventProductLikeUpdate,
		Data:  []byte(`{not json`),
	})
	transport.push(realtime.Message{
		Room:  realtime.ProductRoom(1),
		Event: models.EventProductLikeUpdate,
		Data:  []byte(`{"isLiked":true,"likeCount":2}`),
	})

	select {
	case update := <-got:
		assert.Equal(t, 2, update.LikeCount, "only the well-formed payload should be delivered")
	case <-time.After(time.Second):
		t.Fatal("callback was not invoked")
	}
}
