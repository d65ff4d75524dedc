package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/luther0929/Fake-Store/api"
)

// fakeCartAPI records calls and can block pushes until released.
type fakeCartAPI struct {
	mu        sync.Mutex
	server    []api.CartLine
	pushes    [][]api.CartLine
	tokens    []string
	gets      int
	getErr    error
	putErr    error
	block     chan struct{}
	started   chan struct{}
	active    int
	maxActive int
}

func newFakeCartAPI() *fakeCartAPI {
	return &fakeCartAPI{started: make(chan struct{}, 64)}
}

func (f *fakeCartAPI) enter() {
	f.mu.Lock()
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	f.mu.Unlock()
}

func (f *fakeCartAPI) leave() {
	f.mu.Lock()
	f.active--
	f.mu.Unlock()
}

func (f *fakeCartAPI) GetCart(ctx context.Context, token string) ([]api.CartLine, error) {
	f.enter()
	defer f.leave()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	f.tokens = append(f.tokens, token)
	if f.getErr != nil {
		return nil, f.getErr
	}
	return append([]api.CartLine{}, f.server...), nil
}

func (f *fakeCartAPI) UpdateCart(ctx context.Context, token string, lines []api.CartLine) error {
	f.enter()
	defer f.leave()

	f.mu.Lock()
	block := f.block
	f.pushes = append(f.pushes, append([]api.CartLine(nil), lines...))
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()

	select {
	case f.started <- struct{}{}:
	default:
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.server = append([]api.CartLine(nil), lines...)
	return nil
}

func (f *fakeCartAPI) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes)
}

func (f *fakeCartAPI) lastPush() []api.CartLine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pushes) == 0 {
		return nil
	}
	return f.pushes[len(f.pushes)-1]
}

func (f *fakeCartAPI) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

func (f *fakeCartAPI) setServer(lines ...api.CartLine) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.server = lines
}

func (f *fakeCartAPI) setBlock(ch chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block = ch
}

func (f *fakeCartAPI) maxConcurrent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxActive
}

var errBackend = errors.New("backend down")

// fakeOrders is an OrderCreator. during, when set, runs while the order is
// in flight.
type fakeOrders struct {
	mu     sync.Mutex
	calls  [][]api.OrderLine
	ack    *api.OrderAck
	err    error
	during func()
}

func (f *fakeOrders) CreateOrder(ctx context.Context, token string, lines []api.OrderLine) (*api.OrderAck, error) {
	if f.during != nil {
		f.during()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, lines)
	if f.err != nil {
		return nil, f.err
	}
	if f.ack != nil {
		return f.ack, nil
	}
	return &api.OrderAck{}, nil
}
