package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luther0929/Fake-Store/api"
)

func TestStore_FetchReplacesItems(t *testing.T) {
	fake := newFakeCartAPI()
	fake.setServer(api.CartLine{ID: 5, Price: 10, Count: 3})
	store := NewStore(fake)
	store.Add(backpack)

	require.NoError(t, store.Fetch(context.Background(), "tok"))

	st := store.Snapshot()
	want := []LineItem{{RawLine: RawLine{ID: 5, Price: 10, Quantity: 3}}}
	if diff := cmp.Diff(want, st.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, st.TotalQuantity)
	assert.Equal(t, 30.0, st.TotalPrice)
	assert.False(t, st.IsLoading)
	assert.NoError(t, st.LastError)
}

func TestStore_FetchIdempotent(t *testing.T) {
	fake := newFakeCartAPI()
	fake.setServer(api.CartLine{ID: 5, Price: 10, Count: 3}, api.CartLine{ID: 2, Price: 22.3, Count: 1})
	store := NewStore(fake)
	ctx := context.Background()

	require.NoError(t, store.Fetch(ctx, "tok"))
	first := store.Snapshot()
	require.NoError(t, store.Fetch(ctx, "tok"))

	if diff := cmp.Diff(first, store.Snapshot()); diff != "" {
		t.Errorf("second fetch changed state (-first +second):\n%s", diff)
	}
}

func TestStore_FetchFailureKeepsItems(t *testing.T) {
	fake := newFakeCartAPI()
	fake.getErr = errBackend
	store := NewStore(fake)
	store.Add(shirt)

	err := store.Fetch(context.Background(), "tok")
	require.ErrorIs(t, err, errBackend)

	st := store.Snapshot()
	assert.Len(t, st.Items, 1)
	assert.Equal(t, 1, st.TotalQuantity)
	assert.ErrorIs(t, st.LastError, errBackend)
	assert.False(t, st.IsLoading)
}

func TestStore_FetchSuccessClearsLastError(t *testing.T) {
	fake := newFakeCartAPI()
	fake.getErr = errBackend
	store := NewStore(fake)
	ctx := context.Background()

	require.Error(t, store.Fetch(ctx, "tok"))
	fake.mu.Lock()
	fake.getErr = nil
	fake.mu.Unlock()
	require.NoError(t, store.Fetch(ctx, "tok"))

	assert.NoError(t, store.Snapshot().LastError)
}

func TestStore_PushWireShape(t *testing.T) {
	fake := newFakeCartAPI()
	store := NewStore(fake)
	store.Add(shirt)
	store.Add(shirt)
	store.Add(backpack)

	require.NoError(t, store.Push(context.Background(), "tok"))

	want := []api.CartLine{{ID: 2, Price: 22.3, Count: 2}, {ID: 1, Price: 109.95, Count: 1}}
	assert.Equal(t, want, fake.lastPush())
	assert.Len(t, store.Snapshot().Items, 2)
}

func TestStore_PushFailureKeepsLocalState(t *testing.T) {
	fake := newFakeCartAPI()
	fake.putErr = errBackend
	store := NewStore(fake)
	store.Add(shirt)
	before := store.Snapshot()

	err := store.Push(context.Background(), "tok")
	require.ErrorIs(t, err, errBackend)

	after := store.Snapshot()
	assert.Equal(t, before.Items, after.Items)
	assert.ErrorIs(t, after.LastError, errBackend)
}

func TestStore_LoadingFlag(t *testing.T) {
	fake := newFakeCartAPI()
	release := make(chan struct{})
	fake.setBlock(release)
	store := NewStore(fake)

	done := make(chan error, 1)
	go func() { done <- store.Push(context.Background(), "tok") }()
	<-fake.started

	assert.True(t, store.Snapshot().IsLoading)
	close(release)
	require.NoError(t, <-done)
	assert.False(t, store.Snapshot().IsLoading)
}

func TestStore_SubscribeOrder(t *testing.T) {
	store := NewStore(newFakeCartAPI())

	var kinds []ChangeKind
	var quantities []int
	cancel := store.Subscribe(func(c Change) {
		kinds = append(kinds, c.Kind)
		quantities = append(quantities, c.State.TotalQuantity)
	})

	store.Add(shirt)
	store.Add(shirt)
	store.Remove(shirt)
	store.Clear()
	cancel()
	store.Add(shirt)

	assert.Equal(t, []ChangeKind{ChangeAdd, ChangeAdd, ChangeRemove, ChangeClear}, kinds)
	assert.Equal(t, []int{1, 2, 1, 0}, quantities)
}

func TestStore_CancelIsIdempotent(t *testing.T) {
	store := NewStore(newFakeCartAPI())
	calls := 0
	cancel := store.Subscribe(func(Change) { calls++ })
	cancel()
	cancel()
	store.Add(shirt)
	assert.Zero(t, calls)
}

func TestStore_ResetIsNotLocal(t *testing.T) {
	fake := newFakeCartAPI()
	fake.putErr = errBackend
	store := NewStore(fake)
	store.Add(shirt)
	_ = store.Push(context.Background(), "tok")

	var kinds []ChangeKind
	store.Subscribe(func(c Change) { kinds = append(kinds, c.Kind) })
	st := store.Reset()

	assert.True(t, st.IsEmpty())
	assert.NoError(t, st.LastError)
	assert.Equal(t, []ChangeKind{ChangeReset}, kinds)
	assert.False(t, ChangeReset.IsLocal())
	assert.False(t, ChangeCheckout.IsLocal())
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	store := NewStore(newFakeCartAPI())
	store.Add(shirt)

	snap := store.Snapshot()
	snap.Items[0].Quantity = 99

	assert.Equal(t, 1, store.Snapshot().Items[0].Quantity)
}

func TestStore_ConcurrentMutations(t *testing.T) {
	store := NewStore(newFakeCartAPI())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Add(shirt)
			store.Add(backpack)
			store.Remove(backpack)
		}()
	}
	wg.Wait()

	st := store.Snapshot()
	checkTotals(t, st)
	item, ok := st.Item(shirt.ID)
	require.True(t, ok)
	assert.Equal(t, 50, item.Quantity)
}

func TestStore_SubscriberMaySnapshot(t *testing.T) {
	store := NewStore(newFakeCartAPI())
	var seen sync.Map
	cancel := store.Subscribe(func(c Change) {
		seen.Store(store.Snapshot().TotalQuantity, true)
	})
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					store.Add(shirt)
				}
			}()
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("mutations stalled while a subscriber read the store")
	}
	assert.Equal(t, 400, store.Snapshot().TotalQuantity)
	_, ok := seen.Load(400)
	assert.True(t, ok)
}

func TestStore_FetchAndPushNeverOverlap(t *testing.T) {
	fake := newFakeCartAPI()
	release := make(chan struct{})
	fake.setBlock(release)
	store := NewStore(fake)
	store.Add(shirt)
	ctx := context.Background()

	pushDone := make(chan error, 1)
	go func() { pushDone <- store.Push(ctx, "tok") }()
	<-fake.started

	fetchDone := make(chan error, 1)
	go func() { fetchDone <- store.Fetch(ctx, "tok") }()

	select {
	case <-fetchDone:
		t.Fatal("fetch completed while a push was in flight")
	case <-time.After(30 * time.Millisecond):
	}
	assert.Zero(t, fake.getCount())

	close(release)
	require.NoError(t, <-pushDone)
	require.NoError(t, <-fetchDone)
	assert.Equal(t, 1, fake.maxConcurrent())

	// The fetch ran second and saw the pushed cart.
	item, ok := store.Snapshot().Item(shirt.ID)
	require.True(t, ok)
	assert.Nil(t, item.Details)
}

func TestChangeKind_String(t *testing.T) {
	kinds := map[ChangeKind]string{
		ChangeAdd:      "add",
		ChangeRemove:   "remove",
		ChangeClear:    "clear",
		ChangeFetch:    "fetch",
		ChangePush:     "push",
		ChangeLoading:  "loading",
		ChangeReset:    "reset",
		ChangeCheckout: "checkout",
		ChangeKind(42): "unknown",
	}
	for k, want := range kinds {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", k, got, want)
		}
	}
}

func TestCommandError(t *testing.T) {
	var ce *CommandError
	require.True(t, errors.As(ErrEmptyCart, &ce))
	assert.Equal(t, StatusFailedPrecondition, ce.Code)
	assert.Equal(t, "FAILED_PRECONDITION", ce.Code.String())
	assert.Equal(t, ErrMsgCartEmpty, ErrEmptyCart.Error())
	assert.Equal(t, "INVALID_ARGUMENT", ErrTokenRequired.Code.String())
	assert.Equal(t, ErrMsgTokenRequired, ErrTokenRequired.Error())
}

func TestStore_NetworkCallsRequireToken(t *testing.T) {
	fake := newFakeCartAPI()
	store := NewStore(fake)
	store.Add(shirt)
	ctx := context.Background()

	require.ErrorIs(t, store.Fetch(ctx, ""), ErrTokenRequired)
	require.ErrorIs(t, store.Push(ctx, ""), ErrTokenRequired)

	assert.Zero(t, fake.getCount())
	assert.Zero(t, fake.pushCount())
	st := store.Snapshot()
	assert.False(t, st.IsLoading)
	assert.NoError(t, st.LastError)
	assert.Equal(t, 1, st.TotalQuantity)
}
