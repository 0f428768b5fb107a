package chatclient

import (
	"testing"
	"time"
)

func msg(id, text, senderID string, seq int64) Message {
	return Message{
		ID:        id,
		Seq:       seq,
		Message:   text,
		Sender:    Sender{ID: senderID},
		CreatedAt: time.Unix(seq, 0),
	}
}

func texts(messages []Message) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.Message
	}
	return out
}

func assertOrder(t *testing.T, got []Message, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("feed has %d messages %v, want %d %v", len(got), texts(got), len(want), want)
	}
	for i, text := range want {
		if got[i].Message != text {
			t.Fatalf("message %d = %q, want %q (full order %v)", i, got[i].Message, text, texts(got))
		}
	}
}

func TestFeedHistoryThenLiveOrder(t *testing.T) {
	t.Parallel()
	f := NewFeed()
	f.SetHistory([]Message{
		msg("h1", "T1", "u1", 1),
		msg("h2", "T2", "u2", 2),
		msg("h3", "T3", "u1", 3),
	})
	f.Append(msg("l1", "T4", "u2", 4))
	f.Append(msg("l2", "T5", "u1", 5))

	assertOrder(t, f.Messages(), "T1", "T2", "T3", "T4", "T5")
}

func TestFeedLiveBeforeHistoryResolves(t *testing.T) {
	t.Parallel()
	f := NewFeed()

	// Socket wins the race: live messages land first.
	f.Append(msg("l1", "early-1", "u2", 4))
	f.Append(msg("l2", "early-2", "u1", 5))

	// Until history resolves, only the live buffer is visible.
	assertOrder(t, f.Messages(), "early-1", "early-2")

	f.SetHistory([]Message{
		msg("h1", "old-1", "u1", 1),
		msg("h2", "old-2", "u2", 2),
	})
	assertOrder(t, f.Messages(), "old-1", "old-2", "early-1", "early-2")
}

func TestFeedDeduplicatesByID(t *testing.T) {
	t.Parallel()

	t.Run("live then history", func(t *testing.T) {
		t.Parallel()
		f := NewFeed()
		// The message sent during the history request window shows up
		// both on the socket and in the history body.
		f.Append(msg("m1", "racy", "u1", 3))
		f.SetHistory([]Message{
			msg("h1", "old", "u2", 1),
			msg("m1", "racy", "u1", 3),
		})
		assertOrder(t, f.Messages(), "old", "racy")
	})

	t.Run("repeated live frame", func(t *testing.T) {
		t.Parallel()
		f := NewFeed()
		f.HistoryFailed()
		f.Append(msg("m1", "once", "u1", 1))
		f.Append(msg("m1", "once", "u1", 1))
		assertOrder(t, f.Messages(), "once")
	})
}

func TestFeedHistoryFailureLeavesLiveWorking(t *testing.T) {
	t.Parallel()
	f := NewFeed()
	f.Append(msg("l1", "before", "u2", 1))
	f.HistoryFailed()
	f.Append(msg("l2", "after", "u1", 2))

	assertOrder(t, f.Messages(), "before", "after")
}

func TestFeedCounterpart(t *testing.T) {
	t.Parallel()
	f := NewFeed()

	if _, ok := f.Counterpart("u1"); ok {
		t.Fatal("empty feed reported a counterpart")
	}

	f.SetHistory([]Message{
		msg("h1", "mine", "u1", 1),
		msg("h2", "theirs", "u2", 2),
	})
	got, ok := f.Counterpart("u1")
	if !ok || got.ID != "u2" {
		t.Fatalf("Counterpart = %+v ok=%v, want sender u2", got, ok)
	}
}

func TestFeedMessagesReturnsCopy(t *testing.T) {
	t.Parallel()
	f := NewFeed()
	f.HistoryFailed()
	f.Append(msg("m1", "original", "u1", 1))

	view := f.Messages()
	view[0].Message = "mutated"

	if got := f.Messages()[0].Message; got != "original" {
		t.Fatalf("feed content changed through returned slice: %q", got)
	}
}
