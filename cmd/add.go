package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vkx/internal/formatter"
	"github.com/desertthunder/vkx/internal/session"
	"github.com/desertthunder/vkx/internal/shared"
	"github.com/desertthunder/vkx/internal/tasks"
)

// Add puts one external item into a collection, or a whole CSV with --from-file.
func (r *Runner) Add(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "collection-id")
	if err != nil {
		return err
	}

	m, s, err := r.current()
	if err != nil {
		return err
	}
	defer r.persist(m, s)

	if _, err := ownedCollection(ctx, s, id); err != nil {
		return err
	}
	content, err := r.contentEngine(s)
	if err != nil {
		return err
	}

	if path := cmd.String("from-file"); path != "" {
		return r.bulkAdd(ctx, cmd, s, content, id, path)
	}

	externalID := cmd.StringArg("external-id")
	if externalID == "" {
		return fmt.Errorf("%w: external-id (or --from-file)", shared.ErrMissingArgument)
	}
	req, err := addRequest(cmd, externalID)
	if err != nil {
		return err
	}
	return r.report(content.AddItem(ctx, id, req))
}

func (r *Runner) bulkAdd(ctx context.Context, cmd *cli.Command, s *session.Session, content *tasks.ContentEngine, id int64, path string) error {
	reqs, err := formatter.ReadImportFile(path)
	if err != nil {
		return err
	}

	r.logger.Info("starting bulk import", "collection", id, "rows", len(reqs), "user", s.User().Username)
	r.writePlain("Importing %d rows into collection %d...\n\n", len(reqs), id)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progressCh {
			switch update.Phase {
			case tasks.ValidateItems:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.ImportItems:
				r.writePlain("   %s\n", update.Message)
			case tasks.Reconcile:
				r.writePlain("\n🔄 %s\n", update.Message)
			}
		}
	}()

	result, err := content.BulkImport(ctx, progressCh, id, reqs, tasks.ImportOpts{
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	})
	close(progressCh)
	wg.Wait()

	if result != nil {
		r.writePlain("\n")
		r.writePlainHeader("Import Complete!")
		r.writePlain("Rows: %d\n", result.Total)
		r.writePlain("Added: %d\n", result.Added)
		r.writePlain("Already present: %d\n", result.Existing)
		r.writePlain("Skipped: %d\n", result.Skipped)
		r.writePlain("Failed: %d\n", result.Failed)
	}
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%w: %d of %d rows failed", shared.ErrAPIRequest, result.Failed, result.Total)
	}
	return nil
}

func addCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add an album or artist to one of your collections",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "collection-id"},
			&cli.StringArg{Name: "external-id"},
		},
		Flags: flags(itemFlags(), conditionFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:    "from-file",
				Aliases: []string{"f"},
				Usage:   "CSV of items to import (columns: external_id, entity_type, title, source, ...)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent requests for --from-file",
				Value: 4,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Requests per second for --from-file",
				Value: 5,
			},
		}),
		Action: r.Add,
	}
}
