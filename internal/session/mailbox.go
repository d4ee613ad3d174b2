package session

// mailbox is a latest-wins, capacity-one job queue. A newly enqueued write
// displaces any pending one for the same collection: since every write
// carries a full-collection snapshot, only the most recent matters.
type mailbox struct {
	jobs chan func()
}

func newMailbox() *mailbox {
	return &mailbox{jobs: make(chan func(), 1)}
}

func (m *mailbox) put(job func()) {
	for {
		select {
		case m.jobs <- job:
			return
		default:
		}
		// Full: drop the superseded pending write and retry.
		select {
		case <-m.jobs:
		default:
		}
	}
}

func (m *mailbox) close() {
	close(m.jobs)
}
