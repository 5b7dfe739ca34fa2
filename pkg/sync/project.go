package sync

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/quentinwalden/thingsync/pkg/notion"
	"github.com/quentinwalden/thingsync/pkg/things"
)

// ProjectIndex maps normalized project names to remote project ids. It is
// seeded from a bulk read once per run and grows in memory as projects are
// created; the remote side stays the source of truth for existence.
type ProjectIndex struct {
	ids map[string]string
}

func NewProjectIndex() *ProjectIndex {
	return &ProjectIndex{ids: make(map[string]string)}
}

func (ix *ProjectIndex) Lookup(name string) (string, bool) {
	id, ok := ix.ids[normalizeProject(name)]
	return id, ok
}

func (ix *ProjectIndex) Add(name, id string) {
	ix.ids[normalizeProject(name)] = id
}

func normalizeProject(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// loadProjectIndex seeds the index from the remote projects database. Two
// remote projects with the same normalized name is a data-quality problem;
// the first one read wins and the collision is logged.
func (e *Engine) loadProjectIndex(ctx context.Context) (*ProjectIndex, error) {
	ix := NewProjectIndex()
	cursor := ""
	for {
		page, err := e.Store.Query(ctx, e.ProjectsDatabaseID, cursor)
		if err != nil {
			return nil, fmt.Errorf("load project index: %w", err)
		}
		for _, pg := range page.Results {
			name := pg.PlainTitle(propName)
			if name == "" {
				continue
			}
			if existing, ok := ix.Lookup(name); ok && existing != pg.ID {
				log.Printf("ambiguous project name %q on remote, keeping first match", strings.TrimSpace(name))
				continue
			}
			ix.Add(name, pg.ID)
		}
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}
	return ix, nil
}

// resolveProject returns the remote project id for a task, creating the
// remote project when no case-insensitive match exists. An absent effective
// project name resolves to "" with no remote call.
func (e *Engine) resolveProject(ctx context.Context, t things.Task, headings map[string]things.HeadingInfo, ix *ProjectIndex) (string, error) {
	name := effectiveProjectName(t, headings)
	if strings.TrimSpace(name) == "" {
		return "", nil
	}
	if id, ok := ix.Lookup(name); ok {
		return id, nil
	}
	name = strings.TrimSpace(name)
	props := notion.Properties{propName: notion.TitleProperty(name)}
	id, err := e.Store.CreatePage(ctx, e.ProjectsDatabaseID, props)
	if err != nil {
		return "", fmt.Errorf("create project %q: %w", name, err)
	}
	log.Printf("created project %q on remote", name)
	ix.Add(name, id)
	return id, nil
}

// effectiveProjectName is the task's direct project title, or the owning
// project of the heading the task is nested under.
func effectiveProjectName(t things.Task, headings map[string]things.HeadingInfo) string {
	if t.ProjectRef != "" && t.ProjectTitle != "" {
		return t.ProjectTitle
	}
	if t.HeadingRef != "" {
		if h, ok := headings[t.HeadingRef]; ok {
			return h.ProjectTitle
		}
	}
	return ""
}
