package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vkx/internal/formatter"
	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/query"
	"github.com/desertthunder/vkx/internal/services"
	"github.com/desertthunder/vkx/internal/session"
	"github.com/desertthunder/vkx/internal/shared"
)

// Export writes a collection with all of its albums and artists to disk.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	format := cmd.String("format")
	if !slices.Contains(formatter.Formats, format) && format != "md" && format != "text" {
		return fmt.Errorf("%w: --format must be one of %v", shared.ErrInvalidFlag, formatter.Formats)
	}

	m, s, err := r.current()
	if err != nil {
		return err
	}
	defer r.persist(m, s)

	export, err := r.collectExport(ctx, s, id)
	if err != nil {
		return err
	}

	imageURL := ""
	if cmd.Bool("cover") && len(export.Albums) > 0 {
		imageURL = export.Albums[0].ImageURL
	}

	r.logger.Info("exporting collection", "id", id, "format", format, "albums", len(export.Albums), "artists", len(export.Artists))
	files, err := formatter.WriteExport(export, format, cmd.String("output"), imageURL)
	if err != nil {
		return err
	}

	r.writePlain("✓ Exported %s (%d albums, %d artists)\n", export.Collection.Name, len(export.Albums), len(export.Artists))
	for _, f := range files {
		if f != "" {
			r.writePlain("  %s\n", f)
		}
	}
	return nil
}

// collectExport reads every page of a collection. Pages after the first load in parallel.
func (r *Runner) collectExport(ctx context.Context, s *session.Session, id int64) (*models.CollectionExport, error) {
	cache, err := r.queryClient()
	if err != nil {
		return nil, err
	}
	limit := 100
	svc := s.Service()

	detail, err := query.Fetch(ctx, cache, query.CollectionDetailKey(id), func(ctx context.Context) (*models.CollectionDetail, error) {
		return svc.CollectionDetails(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	first, err := query.Fetch(ctx, cache, query.CollectionAlbumsKey(id, 1, limit), func(ctx context.Context) (*models.Paginated[models.CollectionAlbum], error) {
		return svc.CollectionAlbums(ctx, id, services.PageQuery{Page: 1, Limit: limit})
	})
	if err != nil {
		return nil, err
	}
	firstArtists, err := query.Fetch(ctx, cache, query.CollectionArtistsKey(id, 1, limit), func(ctx context.Context) (*models.Paginated[models.CollectionArtist], error) {
		return svc.CollectionArtists(ctx, id, services.PageQuery{Page: 1, Limit: limit})
	})
	if err != nil {
		return nil, err
	}

	var jobs []query.Job
	for page := 2; page <= first.TotalPages; page++ {
		jobs = append(jobs, query.Job{
			Key: query.CollectionAlbumsKey(id, page, limit),
			Load: func(ctx context.Context) (any, error) {
				return svc.CollectionAlbums(ctx, id, services.PageQuery{Page: page, Limit: limit})
			},
		})
	}
	for page := 2; page <= firstArtists.TotalPages; page++ {
		jobs = append(jobs, query.Job{
			Key: query.CollectionArtistsKey(id, page, limit),
			Load: func(ctx context.Context) (any, error) {
				return svc.CollectionArtists(ctx, id, services.PageQuery{Page: page, Limit: limit})
			},
		})
	}
	if err := cache.Refresh(ctx, jobs...); err != nil {
		return nil, err
	}

	export := &models.CollectionExport{Collection: *detail, Albums: first.Items, Artists: firstArtists.Items}
	for page := 2; page <= first.TotalPages; page++ {
		p, _, ok := query.Peek[*models.Paginated[models.CollectionAlbum]](cache, query.CollectionAlbumsKey(id, page, limit))
		if !ok {
			return nil, fmt.Errorf("albums page %d missing after refresh", page)
		}
		export.Albums = append(export.Albums, p.Items...)
	}
	for page := 2; page <= firstArtists.TotalPages; page++ {
		p, _, ok := query.Peek[*models.Paginated[models.CollectionArtist]](cache, query.CollectionArtistsKey(id, page, limit))
		if !ok {
			return nil, fmt.Errorf("artists page %d missing after refresh", page)
		}
		export.Artists = append(export.Artists, p.Items...)
	}
	return export, nil
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export a collection as JSON, CSV, Markdown or text",
		Arguments: idArgs(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "json, csv, markdown or txt",
				Value: "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output base path (default collection_<id>)",
			},
			&cli.BoolFlag{
				Name:  "cover",
				Usage: "Download the first album cover alongside a Markdown export",
			},
		},
		Action: r.Export,
	}
}
