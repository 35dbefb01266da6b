package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vkx/internal/repositories"
)

// HistoryList prints the local search history of the logged-in user.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	_, s, err := r.current()
	if err != nil {
		return err
	}
	db, err := r.database()
	if err != nil {
		return err
	}

	scope := cmd.String("scope")
	if id := cmd.Int("collection"); id > 0 {
		scope = historyScope(int64(id))
	}

	entries, err := repositories.NewSearchHistoryRepository(db).List(map[string]any{
		"user_id": s.User().ID,
		"scope":   scope,
		"limit":   cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	if useJSON, pretty := wantJSON(cmd); useJSON {
		type row struct {
			Scope   string `json:"scope"`
			Query   string `json:"query"`
			Results int    `json:"results"`
			At      string `json:"created_at"`
		}
		rows := make([]row, len(entries))
		for i, e := range entries {
			rows[i] = row{Scope: e.Scope(), Query: e.Query(), Results: e.ResultCount(), At: e.CreatedAt().Format("2006-01-02 15:04")}
		}
		return r.writeJSON(rows, pretty)
	}

	r.writePlainHeader(fmt.Sprintf("Search history (%d)", len(entries)))
	for _, e := range entries {
		r.writePlain("%s  %-16s %-32q %d results\n", e.CreatedAt().Format("2006-01-02 15:04"), e.Scope(), e.Query(), e.ResultCount())
	}
	return nil
}

// HistoryClear deletes the logged-in user's search history.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	_, s, err := r.current()
	if err != nil {
		return err
	}
	db, err := r.database()
	if err != nil {
		return err
	}

	n, err := repositories.NewSearchHistoryRepository(db).Clear(s.User().ID)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Removed %d searches\n", n)
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Local search history used for recall in the TUI",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent searches",
				Flags: flags(outputFlags(), []cli.Flag{
					&cli.StringFlag{
						Name:  "scope",
						Usage: "Only this scope (proxy or collection:<id>)",
					},
					&cli.IntFlag{
						Name:  "collection",
						Usage: "Only searches inside this collection",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries",
						Value: 50,
					},
				}),
				Action: r.HistoryList,
			},
			{
				Name:   "clear",
				Usage:  "Delete your search history",
				Action: r.HistoryClear,
			},
		},
	}
}
