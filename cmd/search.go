package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/query"
	"github.com/desertthunder/vkx/internal/shared"
)

// Search queries the backend's metadata proxy for albums, or artists with --artists.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	q := shared.NormalizeQuery(cmd.StringArg("query"))
	if shared.RuneLen(q) < r.config.UI.SearchMinLength {
		return fmt.Errorf("%w: type at least %d characters", shared.ErrQueryTooShort, r.config.UI.SearchMinLength)
	}
	artists := cmd.Bool("artists")

	m, s, err := r.current()
	if err != nil {
		return err
	}
	defer r.persist(m, s)

	cache, err := r.queryClient()
	if err != nil {
		return err
	}
	hits, err := query.Fetch(ctx, cache, query.MusicSearchKey(q, artists), func(ctx context.Context) ([]models.ExternalItem, error) {
		return s.Service().SearchMusic(ctx, q, artists)
	})
	if err != nil {
		return err
	}
	r.recordSearch(s, historyScope(0), q, len(hits))

	if useJSON, pretty := wantJSON(cmd); useJSON {
		return r.writeJSON(hits, pretty)
	}

	if len(hits) == 0 {
		return r.writePlain("No results for %q\n", q)
	}
	r.writePlainHeader(fmt.Sprintf("%d results for %q", len(hits), q))
	for _, h := range hits {
		title := h.Title
		if h.Artist != "" {
			title += " - " + h.Artist
		}
		r.writePlain("%-12s %-6s %-48s %s\n", h.ExternalID, h.EntityType, shared.Truncate(title, 48), h.Source)
	}
	r.writePlainln("Add one with: vkx add <collection-id> <external-id> --title \"...\" --source %s", hitSource(hits))
	return nil
}

func hitSource(hits []models.ExternalItem) models.ExternalSource {
	if len(hits) > 0 && hits[0].Source != "" {
		return hits[0].Source
	}
	return models.SourceDeezer
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the music metadata proxy",
		Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
		Flags: flags(outputFlags(), []cli.Flag{
			&cli.BoolFlag{
				Name:    "artists",
				Aliases: []string{"a"},
				Usage:   "Search artists instead of albums",
			},
		}),
		Action: r.Search,
	}
}
