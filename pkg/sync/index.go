package sync

import (
	"context"
	"fmt"

	"github.com/quentinwalden/thingsync/pkg/notion"
)

// buildRemoteIndex reads the whole remote task database, page by page, and
// keys the records by their external identifier. Records missing the
// identifier cannot be correlated with a local task; they are left alone.
func (e *Engine) buildRemoteIndex(ctx context.Context) (map[string]notion.Page, error) {
	index := make(map[string]notion.Page)
	cursor := ""
	for {
		page, err := e.Store.Query(ctx, e.TasksDatabaseID, cursor)
		if err != nil {
			return nil, fmt.Errorf("build remote index: %w", err)
		}
		for _, pg := range page.Results {
			if pg.Archived {
				continue
			}
			uuid := pg.PlainText(propUUID)
			if uuid == "" {
				continue
			}
			index[uuid] = pg
		}
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}
	return index, nil
}
