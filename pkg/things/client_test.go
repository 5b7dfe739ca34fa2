package things

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func packDate(year, month, day int) int64 {
	return int64(year)<<16 | int64(month)<<12 | int64(day)<<7
}

func newTestDB(t *testing.T) (*Client, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.sqlite")

	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	const ddl = `CREATE TABLE TMTask (
		uuid TEXT PRIMARY KEY,
		title TEXT,
		type INTEGER NOT NULL DEFAULT 0,
		status INTEGER NOT NULL DEFAULT 0,
		startDate INTEGER,
		deadline INTEGER,
		project TEXT,
		heading TEXT,
		start INTEGER NOT NULL DEFAULT 0,
		userModificationDate REAL,
		trashed INTEGER NOT NULL DEFAULT 0
	);`
	if _, err := db.Exec(ddl); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	client, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	client.now = func() time.Time {
		return time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	}
	return client, db
}

func insertTask(t *testing.T, db *sql.DB, uuid, title string, typ, status int, startDate, deadline int64, project, heading string, start int, modified float64, trashed int) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO TMTask
		(uuid, title, type, status, startDate, deadline, project, heading, start, userModificationDate, trashed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid, title, typ, status, nullable(startDate), nullable(deadline),
		nullString(project), nullString(heading), start, modified, trashed)
	if err != nil {
		t.Fatalf("insert task: %v", err)
	}
}

func nullable(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func TestListTasksReadsAllKinds(t *testing.T) {
	client, db := newTestDB(t)
	insertTask(t, db, "proj-1", "Renovation", rawTypeProject, rawStatusIncomplete, 0, 0, "", "", 0, 100.5, 0)
	insertTask(t, db, "head-1", "Kitchen", rawTypeHeading, rawStatusIncomplete, 0, 0, "proj-1", "", 0, 101, 0)
	insertTask(t, db, "todo-1", "Paint walls", rawTypeTodo, rawStatusIncomplete, packDate(2025, 3, 12), 0, "", "head-1", 0, 102, 0)

	tasks, err := client.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(tasks))
	}

	byUUID := map[string]Task{}
	for _, task := range tasks {
		byUUID[task.UUID] = task
	}
	if byUUID["head-1"].Kind != KindHeading {
		t.Errorf("head-1 kind = %v, want heading", byUUID["head-1"].Kind)
	}
	if byUUID["head-1"].ProjectTitle != "Renovation" {
		t.Errorf("head-1 project title = %q, want Renovation", byUUID["head-1"].ProjectTitle)
	}
	todo := byUUID["todo-1"]
	if todo.HeadingRef != "head-1" {
		t.Errorf("todo-1 heading = %q, want head-1", todo.HeadingRef)
	}
	if todo.StartDate.String() != "2025-03-12" {
		t.Errorf("todo-1 start date = %q, want 2025-03-12", todo.StartDate.String())
	}
	if todo.Modified == "" {
		t.Error("todo-1 modification token is empty")
	}
}

func TestListTasksFiltersStatusAndTrash(t *testing.T) {
	client, db := newTestDB(t)
	insertTask(t, db, "a", "Open", rawTypeTodo, rawStatusIncomplete, 0, 0, "", "", 0, 1, 0)
	insertTask(t, db, "b", "Done", rawTypeTodo, rawStatusCompleted, 0, 0, "", "", 0, 2, 0)
	insertTask(t, db, "c", "Trashed", rawTypeTodo, rawStatusIncomplete, 0, 0, "", "", 0, 3, 1)

	tasks, err := client.ListTasks(StatusIncomplete)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].UUID != "a" {
		t.Fatalf("got %+v, want only task a", tasks)
	}

	all, err := client.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d untrashed tasks, want 2", len(all))
	}
}

func TestTodayFlag(t *testing.T) {
	client, db := newTestDB(t)
	// Anytime bucket with an arrived start date: in Today.
	insertTask(t, db, "today", "Due now", rawTypeTodo, rawStatusIncomplete, packDate(2025, 3, 9), 0, "", "", rawStartAnytime, 1, 0)
	// Start date still in the future: not yet surfaced.
	insertTask(t, db, "later", "Due later", rawTypeTodo, rawStatusIncomplete, packDate(2025, 3, 15), 0, "", "", rawStartAnytime, 2, 0)
	// Arrived start date but parked in the Inbox bucket.
	insertTask(t, db, "inbox", "Unsorted", rawTypeTodo, rawStatusIncomplete, packDate(2025, 3, 9), 0, "", "", 0, 3, 0)

	tasks, err := client.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	flags := map[string]bool{}
	for _, task := range tasks {
		flags[task.UUID] = task.Today
	}
	if !flags["today"] {
		t.Error("task with arrived start date not flagged Today")
	}
	if flags["later"] || flags["inbox"] {
		t.Errorf("unexpected Today flags: %v", flags)
	}
}

func TestMtime(t *testing.T) {
	client, _ := newTestDB(t)
	mtime, ok := client.Mtime()
	if !ok || mtime.IsZero() {
		t.Errorf("Mtime = %v, %v; want a real timestamp", mtime, ok)
	}
}
