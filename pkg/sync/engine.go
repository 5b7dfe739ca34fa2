// Package sync reconciles the Things task list against a Notion database.
// The sync is one-directional: every local to-do becomes or updates a remote
// record correlated by the task uuid stored in a "Things UUID" property, and
// remote records are only ever read to decide whether a write is needed.
package sync

import (
	"context"
	"log"
	"time"

	"github.com/fatih/color"

	"github.com/quentinwalden/thingsync/pkg/notion"
	"github.com/quentinwalden/thingsync/pkg/things"
)

// Remote property names, fixed by the Notion database schema.
const (
	propName    = "Name"
	propStatus  = "Status"
	propUUID    = "Things UUID"
	propProject = "Projects"
	propDate    = "Date"
)

// Store is the remote database surface the engine needs. *notion.Client
// satisfies it; tests inject fakes.
type Store interface {
	Query(ctx context.Context, databaseID, cursor string) (*notion.QueryPage, error)
	CreatePage(ctx context.Context, databaseID string, props notion.Properties) (string, error)
	UpdatePage(ctx context.Context, pageID string, props notion.Properties) error
	ArchivePage(ctx context.Context, pageID string) error
}

// Cache filters tasks that have not changed since the last run. The engine
// marks a task seen before attempting its remote write.
type Cache interface {
	Filter(tasks []things.Task) []things.Task
	MarkSeen(t things.Task)
}

// Engine owns one reconciliation run. The remote index, project index, and
// heading lookup are built fresh per run and treated as a consistent
// snapshot; nothing is shared across runs except what Cache persists.
type Engine struct {
	Store              Store
	TasksDatabaseID    string
	ProjectsDatabaseID string
	Cache              Cache // nil disables change detection

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

// RunOpts are the per-run control knobs.
type RunOpts struct {
	// BypassCache reconciles every task even if it is unchanged per the
	// cache. Independent of the gate's force flag.
	BypassCache bool
}

// Report summarizes one run.
type Report struct {
	Created  int
	Updated  int
	Skipped  int
	Archived int
	Failed   int
}

type action int

const (
	actionSkipped action = iota
	actionCreated
	actionUpdated
)

// Run reconciles the given task set (to-dos, headings, and projects, as
// returned by the local source) against the remote database. Individual
// task failures are logged and counted, never fatal; only the up-front
// remote reads can fail the run.
func (e *Engine) Run(ctx context.Context, tasks []things.Task) (*Report, error) {
	return e.RunWith(ctx, tasks, RunOpts{})
}

func (e *Engine) RunWith(ctx context.Context, tasks []things.Task, opts RunOpts) (*Report, error) {
	report := &Report{}
	headings := things.BuildHeadingLookup(tasks)

	var todos []things.Task
	for _, t := range tasks {
		if t.Kind == things.KindTodo {
			todos = append(todos, t)
		}
	}

	index, err := e.buildRemoteIndex(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := e.loadProjectIndex(ctx)
	if err != nil {
		return nil, err
	}

	eligible := todos
	if e.Cache != nil && !opts.BypassCache {
		eligible = e.Cache.Filter(todos)
	}

	for _, t := range eligible {
		if t.UUID == "" || t.Title == "" {
			log.Printf("skipping malformed task (uuid %q, title %q)", t.UUID, t.Title)
			report.Failed++
			continue
		}
		if e.Cache != nil {
			e.Cache.MarkSeen(t)
		}
		act, err := e.reconcile(ctx, t, index, projects, headings)
		if err != nil {
			log.Printf("sync %q failed: %v", t.Title, err)
			report.Failed++
			continue
		}
		switch act {
		case actionCreated:
			color.Green("Created: %s", t.Title)
			report.Created++
		case actionUpdated:
			color.Yellow("Updated: %s", t.Title)
			report.Updated++
		default:
			report.Skipped++
		}
	}

	// Remote records whose task no longer exists locally are archived.
	// The full to-do set is used here, not the cache-filtered one, so an
	// unchanged task is never mistaken for a deleted one.
	local := make(map[string]bool, len(todos))
	for _, t := range todos {
		local[t.UUID] = true
	}
	for uuid, pg := range index {
		if local[uuid] {
			continue
		}
		if err := e.Store.ArchivePage(ctx, pg.ID); err != nil {
			log.Printf("archive %s failed: %v", pg.ID, err)
			report.Failed++
			continue
		}
		color.Red("Archived: %s", pg.PlainTitle(propName))
		report.Archived++
	}

	return report, nil
}

// remoteFields is the comparable projection of a task onto the remote
// schema: what the record should look like, or what it currently looks like.
type remoteFields struct {
	Title     string
	Status    string
	ProjectID string
	Date      things.Date
}

func (f remoteFields) equal(o remoteFields) bool {
	if f.Title != o.Title || f.Status != o.Status || f.ProjectID != o.ProjectID {
		return false
	}
	if f.Date.Valid != o.Date.Valid {
		return false
	}
	if !f.Date.Valid {
		return true
	}
	return f.Date.SameDay(o.Date)
}

// statusLabel maps the three-way task status onto the remote select options.
func statusLabel(s things.Status) string {
	switch s {
	case things.StatusCompleted:
		return "Done"
	case things.StatusCanceled:
		return "Canceled"
	default:
		return "To Do"
	}
}

func (e *Engine) reconcile(ctx context.Context, t things.Task, index map[string]notion.Page, projects *ProjectIndex, headings map[string]things.HeadingInfo) (action, error) {
	projectID, err := e.resolveProject(ctx, t, headings, projects)
	if err != nil {
		return actionSkipped, err
	}

	target := remoteFields{
		Title:     t.Title,
		Status:    statusLabel(t.Status),
		ProjectID: projectID,
		Date:      displayDate(t, e.clock()),
	}

	page, exists := index[t.UUID]
	if !exists {
		props := notion.Properties{
			propName:   notion.TitleProperty(target.Title),
			propStatus: notion.SelectProperty(target.Status),
			propUUID:   notion.TextProperty(t.UUID),
		}
		if target.ProjectID != "" {
			props[propProject] = notion.RelationProperty(target.ProjectID)
		}
		if target.Date.Valid {
			props[propDate] = notion.DateProperty(target.Date.String())
		}
		if _, err := e.Store.CreatePage(ctx, e.TasksDatabaseID, props); err != nil {
			return actionSkipped, err
		}
		return actionCreated, nil
	}

	current := remoteFields{
		Title:     page.PlainTitle(propName),
		Status:    page.SelectName(propStatus),
		ProjectID: page.RelationID(propProject),
		Date:      things.ParseDate(page.DateStart(propDate)),
	}
	if target.equal(current) {
		return actionSkipped, nil
	}

	// The external identifier is set once at creation and never rewritten.
	props := notion.Properties{
		propName:    notion.TitleProperty(target.Title),
		propStatus:  notion.SelectProperty(target.Status),
		propProject: notion.RelationProperty(),
	}
	if target.ProjectID != "" {
		props[propProject] = notion.RelationProperty(target.ProjectID)
	}
	switch {
	case target.Date.Valid && target.Date.SameDay(current.Date):
		// Same calendar day: leave the date property out entirely so a
		// time-of-day added on the remote side survives the run.
	case target.Date.Valid:
		props[propDate] = notion.DateProperty(target.Date.String())
	case current.Date.Valid:
		props[propDate] = notion.ClearDateProperty()
	}

	if err := e.Store.UpdatePage(ctx, page.ID, props); err != nil {
		return actionSkipped, err
	}
	return actionUpdated, nil
}

func (e *Engine) clock() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
