package server

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event types recorded in the stats ledger.
const (
	EvtConnect    = "connect"
	EvtDisconnect = "disconnect"
	EvtTimeout    = "timeout"
	EvtKill       = "kill"
	EvtDeath      = "death"
)

const (
	ledgerBuf        = 1024
	ledgerBatch      = 50
	ledgerFlushEvery = 5 * time.Second
)

// Event is one thing that happened to a named player.
type Event struct {
	Type      string
	Username  string
	Timestamp time.Time
}

// Ledger records session events with batched background writes, so the tick
// loop never waits on the database.
type Ledger struct {
	db     *DB
	log    *zap.SugaredLogger
	events chan Event
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewLedger starts the background writer.
func NewLedger(db *DB, log *zap.SugaredLogger) *Ledger {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	l := &Ledger{
		db:     db,
		log:    log,
		events: make(chan Event, ledgerBuf),
		stop:   make(chan struct{}),
	}
	l.wg.Add(1)
	go l.writer()
	return l
}

// Track enqueues an event. It never blocks; when the buffer is full the
// event is dropped. A nil ledger ignores everything.
func (l *Ledger) Track(evtType, username string) {
	if l == nil {
		return
	}
	select {
	case l.events <- Event{Type: evtType, Username: username, Timestamp: time.Now().UTC()}:
	default:
	}
}

// Stop flushes what is queued and waits for the writer to exit.
func (l *Ledger) Stop() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		close(l.stop)
		l.wg.Wait()
	})
}

func (l *Ledger) writer() {
	defer l.wg.Done()

	batch := make([]Event, 0, ledgerBatch)
	ticker := time.NewTicker(ledgerFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case evt := <-l.events:
			batch = append(batch, evt)
			if len(batch) >= ledgerBatch {
				l.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				l.flush(batch)
				batch = batch[:0]
			}
		case <-l.stop:
			l.flush(l.drain(batch))
			return
		}
	}
}

// drain appends whatever is still buffered.
func (l *Ledger) drain(batch []Event) []Event {
	for {
		select {
		case evt := <-l.events:
			batch = append(batch, evt)
		default:
			return batch
		}
	}
}

func (l *Ledger) flush(events []Event) {
	if l.db == nil || len(events) == 0 {
		return
	}
	if err := l.db.WriteEvents(events); err != nil {
		l.log.Warnf("ledger: write %d events: %v", len(events), err)
	}
}
