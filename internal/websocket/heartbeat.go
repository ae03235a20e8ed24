package websocket

import (
	"log"
	"sync"
	"time"
)

// Monitor probes every tracked connection on a fixed interval. A
// connection that did not answer the previous probe is terminated,
// which surfaces as a transport close to the read pump and from
// there triggers registry cleanup and offline logic. Registry
// staleness is therefore bounded to roughly one interval.
type Monitor struct {
	registry *Registry
	interval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewMonitor creates a heartbeat monitor over the registry.
func NewMonitor(registry *Registry, interval time.Duration) *Monitor {
	return &Monitor{
		registry: registry,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the probe loop.
func (m *Monitor) Start() {
	go m.run()
	log.Printf("💓 Heartbeat monitor started (interval: %v)", m.interval)
}

// Stop halts the probe loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	<-m.done
}

func (m *Monitor) run() {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stop:
			return
		}
	}
}

// sweep terminates connections whose previous probe went unanswered
// and sends a fresh probe to the rest.
func (m *Monitor) sweep() {
	pruned := 0
	for _, conn := range m.registry.Snapshot() {
		if !conn.TakeAlive() {
			log.Printf("💔 Terminating unresponsive connection: %s", conn.ID)
			conn.Close()
			pruned++
			continue
		}
		conn.RequestPing()
	}

	if pruned > 0 {
		log.Printf("💓 Heartbeat sweep: %d connection(s) terminated", pruned)
	}
}
