package trace

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Heartbeat periodically emits an event naming the oldest span still open, so
// the trace of a hung run shows which module load or stage it is stuck in.
type Heartbeat struct {
	tracer   Tracer
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
}

// StartHeartbeat starts emitting heartbeat events every interval. It returns
// nil when tracing is off; Stop on nil is a no-op.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Heartbeat{
		tracer:   tracer,
		interval: interval,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go h.run(ctx)
	return h
}

func (h *Heartbeat) run(ctx context.Context) {
	defer close(h.done)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var beat uint64
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			beat++
			h.tracer.Emit(heartbeatEvent(now, beat, Inflight()))
		}
	}
}

func heartbeatEvent(now time.Time, beat uint64, open []OpenSpan) *Event {
	ev := &Event{
		Time:   now,
		Seq:    NextSeq(),
		Kind:   KindHeartbeat,
		Scope:  ScopeDriver,
		GID:    getGoroutineID(),
		Name:   "heartbeat",
		Detail: fmt.Sprintf("#%d open=%d", beat, len(open)),
	}
	if len(open) > 0 {
		oldest := open[0]
		ev.ParentID = oldest.ID
		ev.Extra = map[string]string{
			"oldest": oldest.Scope.String() + "/" + oldest.Name,
			"age":    now.Sub(oldest.Started).Round(time.Millisecond).String(),
		}
	}
	return ev
}

// Stop ends the heartbeat goroutine and waits for it. Safe to call twice.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(h.cancel)
	<-h.done
}
