package things

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Things on-disk encodings. Type and status are small integers in TMTask;
// start distinguishes the Inbox/Anytime/Someday buckets.
const (
	rawTypeTodo    = 0
	rawTypeProject = 1
	rawTypeHeading = 2

	rawStatusIncomplete = 0
	rawStatusCanceled   = 2
	rawStatusCompleted  = 3

	rawStartAnytime = 1
)

// Client reads tasks from the Things SQLite database. The database belongs
// to Things; it is only ever opened read-only.
type Client struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

func Open(path string) (*Client, error) {
	if path == "" {
		return nil, errors.New("things database path is empty")
	}
	db, err := sql.Open("sqlite", readOnlyDSN(path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return &Client{db: db, path: path, now: time.Now}, nil
}

func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func readOnlyDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: path}
	q := u.Query()
	q.Set("mode", "ro")
	u.RawQuery = q.Encode()
	return u.String()
}

// Mtime returns the modification time of the database file, or ok=false when
// it cannot be determined.
func (c *Client) Mtime() (time.Time, bool) {
	info, err := os.Stat(c.path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// ListTasks returns untrashed to-dos, projects, and headings uniformly,
// optionally restricted to the given statuses. The owning project's title is
// resolved in the same query so a task record is self-contained.
func (c *Client) ListTasks(statuses ...Status) ([]Task, error) {
	q := `SELECT t.uuid, t.title, t.type, t.status, t.startDate, t.deadline,
	             t.project, t.heading, t.start, t.userModificationDate,
	             p.title
	      FROM TMTask t
	      LEFT JOIN TMTask p ON p.uuid = t.project
	      WHERE t.trashed = 0`
	var args []any
	if len(statuses) > 0 {
		marks := make([]string, len(statuses))
		for i, s := range statuses {
			marks[i] = "?"
			args = append(args, rawStatus(s))
		}
		q += " AND t.status IN (" + strings.Join(marks, ",") + ")"
	}
	q += " ORDER BY t.uuid"

	rows, err := c.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("things query failed: %w", err)
	}
	defer rows.Close()

	today := DateOf(c.now())
	var tasks []Task
	for rows.Next() {
		var (
			uuid, title                     sql.NullString
			rawType, rawStat                int
			startDate, deadline             sql.NullInt64
			project, heading, projectTitle  sql.NullString
			startBucket                     sql.NullInt64
			modified                        sql.NullFloat64
		)
		if err := rows.Scan(&uuid, &title, &rawType, &rawStat, &startDate, &deadline,
			&project, &heading, &startBucket, &modified, &projectTitle); err != nil {
			return nil, fmt.Errorf("things row scan failed: %w", err)
		}

		t := Task{
			UUID:         uuid.String,
			Title:        title.String,
			Kind:         kindFromRaw(rawType),
			Status:       statusFromRaw(rawStat),
			StartDate:    unpackDate(startDate.Int64),
			Deadline:     unpackDate(deadline.Int64),
			ProjectRef:   project.String,
			ProjectTitle: projectTitle.String,
			HeadingRef:   heading.String,
		}
		if modified.Valid {
			t.Modified = strconv.FormatFloat(modified.Float64, 'f', -1, 64)
		}
		// Things surfaces a task in Today once its start date has arrived
		// and it sits in the Anytime bucket.
		if startBucket.Int64 == rawStartAnytime && t.StartDate.Valid &&
			!t.StartDate.DateOnly().After(today.Time) {
			t.Today = true
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func kindFromRaw(v int) Kind {
	switch v {
	case rawTypeProject:
		return KindProject
	case rawTypeHeading:
		return KindHeading
	default:
		return KindTodo
	}
}

func statusFromRaw(v int) Status {
	switch v {
	case rawStatusCompleted:
		return StatusCompleted
	case rawStatusCanceled:
		return StatusCanceled
	default:
		return StatusIncomplete
	}
}

func rawStatus(s Status) int {
	switch s {
	case StatusCompleted:
		return rawStatusCompleted
	case StatusCanceled:
		return rawStatusCanceled
	default:
		return rawStatusIncomplete
	}
}
