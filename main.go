package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/quentinwalden/thingsync/pkg/cache"
	"github.com/quentinwalden/thingsync/pkg/config"
	"github.com/quentinwalden/thingsync/pkg/focus"
	"github.com/quentinwalden/thingsync/pkg/gate"
	"github.com/quentinwalden/thingsync/pkg/notion"
	"github.com/quentinwalden/thingsync/pkg/sync"
	"github.com/quentinwalden/thingsync/pkg/things"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	var (
		force       bool
		bypassCache bool
		clearCache  bool
	)

	cmd := &cobra.Command{
		Use:           "thingsync",
		Short:         "Push the Things task list into a Notion database",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), force, bypassCache, clearCache)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "run even if the gate would skip")
	cmd.Flags().BoolVar(&bypassCache, "bypass-cache", false, "reconcile tasks the change cache would skip")
	cmd.Flags().BoolVar(&clearCache, "clear-cache", false, "drop the change cache before running")
	return cmd
}

func runSync(ctx context.Context, force, bypassCache, clearCache bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	source, err := things.Open(cfg.ThingsDB)
	if err != nil {
		return fmt.Errorf("open things database: %w", err)
	}
	defer source.Close()

	c := cache.Open(cfg.CacheDir())
	if clearCache {
		if err := c.Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	}

	g := gate.Open(cfg.GateDir())
	g.Cooldown = cfg.Cooldown
	g.Focus = focus.TargetActive
	g.SourceMtime = source.Mtime

	if ok, reason := g.ShouldRun(force); !ok {
		log.Printf("skipping run: %s", reason)
		return nil
	}

	tasks, err := source.ListTasks()
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	engine := &sync.Engine{
		Store:              notion.NewClient(ctx, cfg.NotionToken),
		TasksDatabaseID:    cfg.TasksDatabaseID,
		ProjectsDatabaseID: cfg.ProjectsDatabaseID,
		Cache:              c,
	}

	report, err := engine.RunWith(ctx, tasks, sync.RunOpts{BypassCache: bypassCache})
	if err != nil {
		return err
	}

	if err := c.Save(); err != nil {
		log.Printf("warning: could not save cache: %v", err)
	}
	if err := g.MarkSynced(); err != nil {
		log.Printf("warning: could not save gate state: %v", err)
	}

	fmt.Fprintf(os.Stdout, "created %d, updated %d, skipped %d, archived %d, failed %d\n",
		report.Created, report.Updated, report.Skipped, report.Archived, report.Failed)
	return nil
}
