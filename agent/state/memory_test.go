package state

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

func TestMergedCombinesOriginalAndAnswers(t *testing.T) {
	t.Parallel()

	pending := &PendingRequest{
		Original: "send the report to Sarah",
		Answers:  []string{"the Q2 report"},
	}

	got := pending.Merged("sarah@example.com")
	want := "send the report to Sarah the Q2 report sarah@example.com"
	if got != want {
		t.Fatalf("Merged() = %q, want %q", got, want)
	}
}

func TestMergedNilPending(t *testing.T) {
	t.Parallel()

	var pending *PendingRequest
	if got := pending.Merged("  hello  "); got != "hello" {
		t.Fatalf("Merged() = %q, want %q", got, "hello")
	}
}

func TestSetPendingReplacesPrevious(t *testing.T) {
	t.Parallel()

	mem := NewConversationMemory("s1", testNow)
	mem.SetPending("book a meeting", "What time?", testNow)
	mem.SetPending("email Bob", "What about?", testNow.Add(time.Minute))

	if mem.Pending == nil {
		t.Fatal("expected pending request")
	}
	if mem.Pending.Original != "email Bob" {
		t.Fatalf("unexpected original: %q", mem.Pending.Original)
	}
	if len(mem.Pending.Answers) != 0 {
		t.Fatalf("expected no accumulated answers, got %d", len(mem.Pending.Answers))
	}
}

func TestKeepPendingAccumulatesAnswers(t *testing.T) {
	t.Parallel()

	mem := NewConversationMemory("s1", testNow)
	mem.SetPending("schedule a sync with the team", "What day?", testNow)
	mem.KeepPending("tomorrow", "What time?", testNow.Add(time.Minute))

	if mem.Pending.Original != "schedule a sync with the team" {
		t.Fatalf("original changed: %q", mem.Pending.Original)
	}
	if len(mem.Pending.Answers) != 1 || mem.Pending.Answers[0] != "tomorrow" {
		t.Fatalf("unexpected answers: %v", mem.Pending.Answers)
	}
	if mem.Pending.Question != "What time?" {
		t.Fatalf("question not updated: %q", mem.Pending.Question)
	}

	merged := mem.Pending.Merged("3pm")
	want := "schedule a sync with the team tomorrow 3pm"
	if merged != want {
		t.Fatalf("Merged() = %q, want %q", merged, want)
	}
}

func TestKeepPendingWithoutPendingIsNoop(t *testing.T) {
	t.Parallel()

	mem := NewConversationMemory("s1", testNow)
	mem.KeepPending("tomorrow", "What time?", testNow)
	if mem.Pending != nil {
		t.Fatal("expected no pending request")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	mem := NewConversationMemory("s1", testNow)
	mem.SetPending("original", "q1", testNow)
	mem.Pending.Answers = []string{"a1"}

	clone := mem.Clone()
	clone.Pending.Answers[0] = "changed"
	clone.Pending.Original = "other"
	clone.LastContext = "dirty"

	if mem.Pending.Answers[0] != "a1" {
		t.Fatalf("answers shared with clone: %v", mem.Pending.Answers)
	}
	if mem.Pending.Original != "original" {
		t.Fatalf("original shared with clone: %q", mem.Pending.Original)
	}
	if mem.LastContext != "" {
		t.Fatalf("last context shared with clone: %q", mem.LastContext)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	mem := NewConversationMemory("", testNow)
	if err := mem.Validate(); err == nil {
		t.Fatal("expected error for empty session id")
	}

	mem = NewConversationMemory("s1", testNow)
	if err := mem.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	mem.Pending = &PendingRequest{Question: "q"}
	if err := mem.Validate(); err == nil {
		t.Fatal("expected error for pending without original")
	}
}
