package chatclient

import "sync"

// Feed merges the one-time history fetch with the live stream into a
// single ordered view: history first (already ascending), then live
// messages in arrival order.
//
// The two sources race: a live message can arrive before the history
// response. Live messages are therefore buffered separately and only
// concatenated after history resolves, instead of interleaving
// speculatively. Messages appearing in both (sent in the window the
// history request covers) are deduplicated by id.
type Feed struct {
	mu       sync.Mutex
	history  []Message
	live     []Message
	resolved bool
	seen     map[string]bool
}

func NewFeed() *Feed {
	return &Feed{seen: make(map[string]bool)}
}

// SetHistory installs the history result. Live messages buffered before
// this point stay after the history block; duplicates are dropped.
func (f *Feed) SetHistory(messages []Message) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.history = f.history[:0]
	for _, m := range messages {
		if m.ID != "" && f.seen[m.ID] {
			continue
		}
		f.markSeen(m)
		f.history = append(f.history, m)
	}

	// Re-filter the live buffer: anything the history now covers is a
	// duplicate from the race window.
	kept := f.live[:0]
	for _, m := range f.live {
		duplicate := false
		for _, h := range f.history {
			if h.ID != "" && h.ID == m.ID {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, m)
		}
	}
	f.live = kept
	f.resolved = true
}

// HistoryFailed marks the history as resolved-empty so the live feed
// renders on its own.
func (f *Feed) HistoryFailed() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = true
}

// Append adds a live message in arrival order.
func (f *Feed) Append(m Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID != "" && f.seen[m.ID] {
		return
	}
	f.markSeen(m)
	f.live = append(f.live, m)
}

// Messages returns the ordered view: history, then live. Before the
// history resolves only the live buffer is returned, so the UI never
// shows a speculative interleaving it would have to reshuffle.
func (f *Feed) Messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.resolved {
		out := make([]Message, len(f.live))
		copy(out, f.live)
		return out
	}
	out := make([]Message, 0, len(f.history)+len(f.live))
	out = append(out, f.history...)
	out = append(out, f.live...)
	return out
}

// Counterpart returns the first sender other than the viewer, which is
// how a two-party ticket conversation labels "the other side".
func (f *Feed) Counterpart(viewerID string) (Sender, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, list := range [][]Message{f.history, f.live} {
		for _, m := range list {
			if m.Sender.ID != viewerID {
				return m.Sender, true
			}
		}
	}
	return Sender{}, false
}

func (f *Feed) markSeen(m Message) {
	if m.ID != "" {
		f.seen[m.ID] = true
	}
}
