package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/AvaWorks/TaskAssist/internal/models"
)

func TestOutboxWritesActionFile(t *testing.T) {
	dir := t.TempDir()
	o, err := NewOutbox(dir)
	if err != nil {
		t.Fatalf("NewOutbox error: %v", err)
	}

	rec := models.ActionRecord{
		ID:        "abc123",
		SessionID: "s1",
		Type:      models.ActionTypeMeeting,
		Fields:    map[string]string{"type": "meeting", "title": "Kickoff"},
		CreatedAt: time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC),
	}
	if err := o.WriteAction(rec); err != nil {
		t.Fatalf("WriteAction error: %v", err)
	}

	path := filepath.Join(dir, "meeting_20250314_150000_abc123.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected action file at %s: %v", path, err)
	}
	var fields map[string]string
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("action file is not valid JSON: %v", err)
	}
	if fields["title"] != "Kickoff" {
		t.Errorf("unexpected file contents: %v", fields)
	}
}

func TestOutboxConcurrentWrites(t *testing.T) {
	o, err := NewOutbox(t.TempDir())
	if err != nil {
		t.Fatalf("NewOutbox error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := models.ActionRecord{
				ID:        string(rune('a' + i)),
				SessionID: "s1",
				Type:      models.ActionTypeEmail,
				Fields:    map[string]string{"type": "email", "body": "x"},
				CreatedAt: time.Date(2025, 3, 14, 15, 0, i, 0, time.UTC),
			}
			if err := o.WriteAction(rec); err != nil {
				t.Errorf("WriteAction error: %v", err)
			}
		}(i)
	}
	wg.Wait()
}

func TestNewOutboxEmptyDir(t *testing.T) {
	if _, err := NewOutbox(""); err == nil {
		t.Errorf("expected error for empty outbox dir")
	}
}
