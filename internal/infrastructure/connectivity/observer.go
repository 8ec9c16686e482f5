package connectivity

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/repository"
)

var (
	_ repository.ConnectivityObserver = (*Manual)(nil)
	_ repository.ConnectivityChecker  = (*Manual)(nil)
	_ repository.ConnectivityObserver = (*Prober)(nil)
	_ repository.ConnectivityChecker  = (*Prober)(nil)
)

// broadcaster holds the current state and the subscriber list.
type broadcaster struct {
	mu     sync.Mutex
	online bool
	nextID int
	subs   map[int]func(bool)
}

func newBroadcaster(initial bool) *broadcaster {
	return &broadcaster{online: initial, subs: make(map[int]func(bool))}
}

func (b *broadcaster) Online() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.online
}

func (b *broadcaster) Subscribe(fn func(online bool)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// set stores the new state; subscribers are called outside the lock and only
// on an actual change.
func (b *broadcaster) set(online bool) {
	b.mu.Lock()
	if b.online == online {
		b.mu.Unlock()
		return
	}
	b.online = online
	subs := make([]func(bool), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}

// Manual is a connectivity observer driven by explicit SetOnline calls. It also serves as
// the "always online" observer when no probe URL is configured.
type Manual struct {
	*broadcaster
}

func NewManual(online bool) *Manual {
	return &Manual{broadcaster: newBroadcaster(online)}
}

func (m *Manual) SetOnline(online bool) { m.set(online) }

func (m *Manual) Check(ctx context.Context) bool { return m.Online() }

// Prober polls a URL and flips the state on reachability changes.
type Prober struct {
	*broadcaster
	url      string
	interval time.Duration
	client   *http.Client
}

func NewProber(url string, interval time.Duration) *Prober {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Prober{
		broadcaster: newBroadcaster(true),
		url:         url,
		interval:    interval,
		client:      &http.Client{Timeout: 5 * time.Second},
	}
}

// Check probes once and updates the state.
func (p *Prober) Check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		log.Printf("[connectivity] bad probe url %q: %v", p.url, err)
		p.set(false)
		return false
	}
	resp, err := p.client.Do(req)
	online := err == nil
	if resp != nil {
		resp.Body.Close()
		online = resp.StatusCode < http.StatusInternalServerError
	}
	p.set(online)
	return online
}

// Run probes every interval until ctx is done.
func (p *Prober) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			was := p.Online()
			if now := p.Check(ctx); now != was {
				log.Printf("[connectivity] online=%v", now)
			}
		}
	}
}
