package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/outbox"
	"stayhub/internal/app/uow"
)

type fakeIdempotencyStore struct {
	mu    sync.Mutex
	items map[string]IdempotencyRecord
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{items: make(map[string]IdempotencyRecord)}
}

func (s *fakeIdempotencyStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *fakeIdempotencyStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Key] = rec
	return nil
}

type testResult struct {
	Value string `json:"value"`
}

type testCommand struct {
	IDKey string
	Fail  bool
}

func (testCommand) Key() string { return "test.command" }

func (c testCommand) IdempotencyKey() string { return c.IDKey }

func (testCommand) ResultPrototype() any { return &testResult{} }

func testBus(calls *int) *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, "test.command", commands.HandlerFunc[testCommand, *testResult](
		func(ctx context.Context, cmd testCommand) (*testResult, error) {
			*calls++
			if cmd.Fail {
				return nil, errors.New("handler exploded")
			}
			return &testResult{Value: "done"}, nil
		}))
	return bus
}

func TestIdempotencyReplaysResult(t *testing.T) {
	var calls int
	bus := ChainCommands(testBus(&calls), Idempotency(newFakeIdempotencyStore(), nil))

	first, err := commands.Dispatch[testCommand, *testResult](context.Background(), bus, testCommand{IDKey: "k1"})
	require.NoError(t, err)
	assert.Equal(t, "done", first.Value)

	second, err := commands.Dispatch[testCommand, *testResult](context.Background(), bus, testCommand{IDKey: "k1"})
	require.NoError(t, err)
	assert.Equal(t, "done", second.Value)

	// Handler ran once; the retry was served from the store.
	assert.Equal(t, 1, calls)
}

func TestIdempotencyReplaysStoredError(t *testing.T) {
	var calls int
	bus := ChainCommands(testBus(&calls), Idempotency(newFakeIdempotencyStore(), nil))

	_, err := commands.Dispatch[testCommand, *testResult](context.Background(), bus, testCommand{IDKey: "k1", Fail: true})
	require.EqualError(t, err, "handler exploded")

	// Retrying with the same key surfaces the recorded error without a rerun,
	// even when the retry itself would succeed.
	_, err = commands.Dispatch[testCommand, *testResult](context.Background(), bus, testCommand{IDKey: "k1"})
	require.EqualError(t, err, "handler exploded")
	assert.Equal(t, 1, calls)
}

func TestIdempotencyWithoutKeyRunsEveryTime(t *testing.T) {
	var calls int
	bus := ChainCommands(testBus(&calls), Idempotency(newFakeIdempotencyStore(), nil))

	for range 3 {
		_, err := commands.Dispatch[testCommand, *testResult](context.Background(), bus, testCommand{})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
}

func TestIdempotencyDistinctKeys(t *testing.T) {
	var calls int
	bus := ChainCommands(testBus(&calls), Idempotency(newFakeIdempotencyStore(), nil))

	_, err := commands.Dispatch[testCommand, *testResult](context.Background(), bus, testCommand{IDKey: "a"})
	require.NoError(t, err)
	_, err = commands.Dispatch[testCommand, *testResult](context.Background(), bus, testCommand{IDKey: "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

type fakeUnit struct {
	uow.UnitOfWork
	committed  bool
	rolledBack bool
}

func (u *fakeUnit) Commit(ctx context.Context) error {
	u.committed = true
	return nil
}

func (u *fakeUnit) Rollback(ctx context.Context) error {
	u.rolledBack = true
	return nil
}

type fakeFactory struct {
	last *fakeUnit
	opts uow.TxOptions
}

func (f *fakeFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	f.opts = opts
	f.last = &fakeUnit{}
	return f.last, nil
}

func TestTransactionCommitsOnSuccess(t *testing.T) {
	factory := &fakeFactory{}
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, "test.command", commands.HandlerFunc[testCommand, *testResult](
		func(ctx context.Context, cmd testCommand) (*testResult, error) {
			unit, ok := uow.FromContext(ctx)
			require.True(t, ok)
			assert.Same(t, factory.last, unit)
			return &testResult{Value: "ok"}, nil
		}))

	chained := ChainCommands(bus, Transaction(factory, nil))
	_, err := commands.Dispatch[testCommand, *testResult](context.Background(), chained, testCommand{})
	require.NoError(t, err)
	assert.True(t, factory.last.committed)
	assert.False(t, factory.last.rolledBack)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	factory := &fakeFactory{}
	var calls int
	chained := ChainCommands(testBus(&calls), Transaction(factory, nil))

	_, err := commands.Dispatch[testCommand, *testResult](context.Background(), chained, testCommand{Fail: true})
	require.Error(t, err)
	assert.False(t, factory.last.committed)
	assert.True(t, factory.last.rolledBack)
}

func TestTransactionOptsProvider(t *testing.T) {
	factory := &fakeFactory{}
	var calls int
	chained := ChainCommands(testBus(&calls), Transaction(factory, func(cmd commands.Command) uow.TxOptions {
		return uow.TxOptions{ReadOnly: true}
	}))

	_, err := commands.Dispatch[testCommand, *testResult](context.Background(), chained, testCommand{})
	require.NoError(t, err)
	assert.True(t, factory.opts.ReadOnly)
}

type fakeOutbox struct {
	flushes int
}

func (o *fakeOutbox) Add(ctx context.Context, record outbox.EventRecord) error { return nil }

func (o *fakeOutbox) Flush(ctx context.Context) error {
	o.flushes++
	return nil
}

func TestOutboxFlushAfterSuccess(t *testing.T) {
	box := &fakeOutbox{}
	var calls int
	chained := ChainCommands(testBus(&calls), OutboxFlush(box))

	_, err := commands.Dispatch[testCommand, *testResult](context.Background(), chained, testCommand{})
	require.NoError(t, err)
	assert.Equal(t, 1, box.flushes)
}

func TestOutboxNotFlushedAfterFailure(t *testing.T) {
	box := &fakeOutbox{}
	var calls int
	chained := ChainCommands(testBus(&calls), OutboxFlush(box))

	_, err := commands.Dispatch[testCommand, *testResult](context.Background(), chained, testCommand{Fail: true})
	require.Error(t, err)
	assert.Zero(t, box.flushes)
}
