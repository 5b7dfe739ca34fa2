package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quentinwalden/thingsync/pkg/things"
)

func TestFilterExcludesUnchangedTasks(t *testing.T) {
	c := Open(t.TempDir())
	c.entries["uuid-1"] = Entry{Modified: "100"}

	tasks := []things.Task{
		{UUID: "uuid-1", Modified: "100"},
		{UUID: "uuid-2", Modified: "200"},
		{UUID: "uuid-1b", Modified: "150"},
	}
	got := c.Filter(tasks)
	if len(got) != 2 {
		t.Fatalf("Filter kept %d tasks, want 2", len(got))
	}
	for _, task := range got {
		if task.UUID == "uuid-1" {
			t.Error("unchanged task survived the filter")
		}
	}
}

func TestFilterIncludesChangedTask(t *testing.T) {
	c := Open(t.TempDir())
	c.entries["uuid-1"] = Entry{Modified: "100"}

	got := c.Filter([]things.Task{{UUID: "uuid-1", Modified: "101"}})
	if len(got) != 1 {
		t.Errorf("changed task filtered out")
	}
}

func TestMarkSeenPersistsOnlyOnSave(t *testing.T) {
	dir := t.TempDir()
	c := Open(dir)
	c.MarkSeen(things.Task{UUID: "uuid-1", Modified: "100"})

	// Nothing flushed yet: a fresh load still treats the task as changed.
	fresh := Open(dir)
	if got := fresh.Filter([]things.Task{{UUID: "uuid-1", Modified: "100"}}); len(got) != 1 {
		t.Error("entry leaked to disk before Save")
	}

	if err := c.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	reloaded := Open(dir)
	if got := reloaded.Filter([]things.Task{{UUID: "uuid-1", Modified: "100"}}); len(got) != 0 {
		t.Error("saved entry not honored after reload")
	}
}

func TestMarkSeenRecordsSyncTime(t *testing.T) {
	c := Open(t.TempDir())
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.MarkSeen(things.Task{UUID: "uuid-1", Modified: "100"})
	e := c.entries["uuid-1"]
	if e.Modified != "100" || !e.LastSyncedAt.Equal(now) {
		t.Errorf("entry = %+v", e)
	}
}

func TestCorruptEntryIsColdStart(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "uuid-1"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := Open(dir)
	got := c.Filter([]things.Task{{UUID: "uuid-1", Modified: "100"}})
	if len(got) != 1 {
		t.Error("task behind a corrupt entry was not treated as changed")
	}
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	c := Open(dir)
	c.MarkSeen(things.Task{UUID: "uuid-1", Modified: "100"})
	if err := c.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	reloaded := Open(dir)
	if got := reloaded.Filter([]things.Task{{UUID: "uuid-1", Modified: "100"}}); len(got) != 1 {
		t.Error("cleared entry still filters tasks")
	}
}
