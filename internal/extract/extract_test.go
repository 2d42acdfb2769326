package extract

import (
	"testing"
	"time"
)

// Fixed reference time: Friday 2025-03-14.
var refNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func TestEmails(t *testing.T) {
	emails := Emails("cc john@example.com and sara.lee+x@corp.co.uk please")
	if len(emails) != 2 {
		t.Fatalf("expected 2 emails, got %d: %v", len(emails), emails)
	}
	if emails[0] != "john@example.com" {
		t.Errorf("expected john@example.com first, got %q", emails[0])
	}

	if got := Emails("no addresses here"); len(got) != 0 {
		t.Errorf("expected no emails, got %v", got)
	}
}

func TestTimeCanonicalization(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"meet at 3pm", "15:00", true},
		{"meet at 3:30 PM", "15:30", true},
		{"meet at 12pm", "12:00", true},
		{"meet at 12am", "00:00", true},
		{"meet at 15:00", "15:00", true},
		{"meet at 9:05am", "09:05", true},
		{"25:00 is not a time", "", false},
		{"no clock here", "", false},
	}
	for _, c := range cases {
		got, ok := Time(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("Time(%q) = %q, %v; want %q, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestDateRelative(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"book it for today", "2025-03-14"},
		{"book it for tomorrow", "2025-03-15"},
		{"sometime next week", "2025-03-21"},
		{"on Monday please", "2025-03-17"},  // next Monday after Friday
		{"on friday", "2025-03-21"},        // same weekday rolls a week ahead
		{"on 2025-04-01", "2025-04-01"},
		{"on March 20", "2025-03-20"},
	}
	for _, c := range cases {
		got, ok := Date(c.in, refNow)
		if !ok {
			t.Errorf("Date(%q) not found", c.in)
			continue
		}
		if got != c.want {
			t.Errorf("Date(%q) = %q, want %q", c.in, got, c.want)
		}
	}

	if got, ok := Date("Project kickoff", refNow); ok {
		t.Errorf("expected no date in plain title text, got %q", got)
	}
}

func TestDateDeterminism(t *testing.T) {
	first, _ := Date("next tuesday", refNow)
	for i := 0; i < 5; i++ {
		again, _ := Date("next tuesday", refNow)
		if again != first {
			t.Fatalf("Date not deterministic: %q vs %q", first, again)
		}
	}
}

func TestDateTwoWeekdaysFirstMentionWins(t *testing.T) {
	// Friday + "monday" resolves to the following Monday.
	for i := 0; i < 50; i++ {
		got, ok := Date("move the meeting from monday to wednesday", refNow)
		if !ok {
			t.Fatal("expected a date")
		}
		if got != "2025-03-17" {
			t.Fatalf("expected first-mentioned weekday 2025-03-17, got %q", got)
		}
	}
}

func TestIndexWordBoundaries(t *testing.T) {
	// The embedded hit in "mondays" is skipped in favor of the whole word.
	if idx := indexWord("mondays then monday", "monday"); idx != 13 {
		t.Errorf("expected match at 13, got %d", idx)
	}
	if idx := indexWord("mondays only", "monday"); idx != -1 {
		t.Errorf("expected no whole-word match, got %d", idx)
	}
}

func TestParticipants(t *testing.T) {
	got, ok := Participants("schedule a meeting with John tomorrow at 3pm")
	if !ok || got != "John" {
		t.Errorf("expected participants John, got %q (ok=%v)", got, ok)
	}

	got, ok = Participants("a sync with Alice and Bob")
	if !ok || got != "Alice, Bob" {
		t.Errorf("expected Alice, Bob, got %q (ok=%v)", got, ok)
	}

	got, ok = Participants("invite john@example.com and sara@corp.io")
	if !ok || got != "john@example.com, sara@corp.io" {
		t.Errorf("expected joined emails, got %q (ok=%v)", got, ok)
	}

	if got, ok := Participants("schedule a meeting"); ok {
		t.Errorf("expected no participants, got %q", got)
	}
}

func TestMeetingTitle(t *testing.T) {
	got, ok := MeetingTitle(`schedule "Project kickoff" for tomorrow`)
	if !ok || got != "Project kickoff" {
		t.Errorf("expected quoted title, got %q (ok=%v)", got, ok)
	}

	got, ok = MeetingTitle("book a meeting about quarterly planning tomorrow")
	if !ok || got != "quarterly planning" {
		t.Errorf("expected cue title, got %q (ok=%v)", got, ok)
	}

	// A bare scheduling command carries no title.
	if got, ok := MeetingTitle("schedule a meeting with John tomorrow at 3pm"); ok {
		t.Errorf("expected no title, got %q", got)
	}
}

func TestRecipientAndBody(t *testing.T) {
	got, ok := Recipient("send an email to john@example.com saying hello")
	if !ok || got != "john@example.com" {
		t.Errorf("expected address recipient, got %q (ok=%v)", got, ok)
	}

	got, ok = Recipient("send an email to Sara")
	if !ok || got != "Sara" {
		t.Errorf("expected name recipient, got %q (ok=%v)", got, ok)
	}

	body, ok := Body("send an email to john@example.com saying the demo is ready")
	if !ok || body != "the demo is ready" {
		t.Errorf("expected body, got %q (ok=%v)", body, ok)
	}

	if body, ok := Body("send an email to john@example.com"); ok {
		t.Errorf("expected no body, got %q", body)
	}
}
