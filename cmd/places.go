package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/query"
	"github.com/desertthunder/vkx/internal/shared"
	"github.com/desertthunder/vkx/internal/tasks"
)

// PlacesList prints the moderated places.
func (r *Runner) PlacesList(ctx context.Context, cmd *cli.Command) error {
	m, s, err := r.current()
	if err != nil {
		return err
	}
	defer r.persist(m, s)

	cache, err := r.queryClient()
	if err != nil {
		return err
	}
	places, err := query.Fetch(ctx, cache, query.PlacesKey(), s.Service().Places)
	if err != nil {
		return err
	}

	if useJSON, pretty := wantJSON(cmd); useJSON {
		return r.writeJSON(places, pretty)
	}

	r.writePlainHeader(fmt.Sprintf("Places (%d)", len(places)))
	for _, p := range places {
		r.writePlain("%6d  %-30s %-24s %s\n", p.ID, shared.Truncate(p.Name, 30), shared.Truncate(p.Location(), 24), likeLabel(p.LikeState()))
	}
	return nil
}

// PlacesShow prints one place.
func (r *Runner) PlacesShow(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	m, s, err := r.current()
	if err != nil {
		return err
	}
	defer r.persist(m, s)

	p, err := s.Service().Place(ctx, id)
	if err != nil {
		return err
	}
	if useJSON, pretty := wantJSON(cmd); useJSON {
		return r.writeJSON(p, pretty)
	}

	r.writePlainHeader(p.Name)
	if p.PlaceType.Name != "" {
		r.writePlain("Type: %s\n", p.PlaceType.Name)
	}
	if p.Address != "" {
		r.writePlain("Address: %s\n", p.Address)
	}
	if loc := p.Location(); loc != "" {
		r.writePlain("Location: %s\n", loc)
	}
	r.writePlain("Likes: %s\n", likeLabel(p.LikeState()))
	if p.SourceURL != "" {
		r.writePlain("Link: %s\n", p.SourceURL)
	}
	r.writePlain("Map: %s\n", shared.MapURL(p.Latitude, p.Longitude))
	if p.Description != "" {
		r.writePlain("\n%s\n", p.Description)
	}
	return nil
}

// PlacesLike likes or unlikes a place. Place likes are subject to the configured cooldown.
func (r *Runner) PlacesLike(liked bool) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		id, err := idArg(cmd, "id")
		if err != nil {
			return err
		}
		m, s, err := r.current()
		if err != nil {
			return err
		}
		defer r.persist(m, s)

		p, err := s.Service().Place(ctx, id)
		if err != nil {
			return err
		}
		return r.toggleLike(ctx, s, tasks.PlaceTarget, p.LikeState(), liked, p.Name)
	}
}

// PlacesOpen opens the place's link, or a map pin when it has none, in the system browser.
func (r *Runner) PlacesOpen(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	m, s, err := r.current()
	if err != nil {
		return err
	}
	defer r.persist(m, s)

	p, err := s.Service().Place(ctx, id)
	if err != nil {
		return err
	}
	target := placeURL(*p)
	if err := shared.OpenBrowser(target); err != nil {
		r.writePlain("Open this link manually: %s\n", target)
		return err
	}
	return r.writePlain("✓ Opened %s\n", target)
}

// PlacesAdd submits a place for moderation.
func (r *Runner) PlacesAdd(ctx context.Context, cmd *cli.Command) error {
	req := models.PlaceCreate{
		Name:        cmd.String("name"),
		Address:     cmd.String("address"),
		City:        cmd.String("city"),
		Country:     cmd.String("country"),
		Description: cmd.String("description"),
		SourceURL:   cmd.String("url"),
		PlaceType:   cmd.String("type"),
	}
	if cmd.IsSet("lat") || cmd.IsSet("lng") {
		lat, lng := cmd.Float("lat"), cmd.Float("lng")
		req.Latitude, req.Longitude = &lat, &lng
	}

	m, s, err := r.current()
	if err != nil {
		return err
	}
	defer r.persist(m, s)

	content, err := r.contentEngine(s)
	if err != nil {
		return err
	}
	p, notice, err := content.CreatePlace(ctx, req)
	if err := r.report(notice, err); err != nil {
		return err
	}
	r.writePlain("  id %d\n", p.ID)
	return nil
}

func placeURL(p models.Place) string {
	if p.SourceURL != "" {
		return p.SourceURL
	}
	return shared.MapURL(p.Latitude, p.Longitude)
}

func placesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "places",
		Usage: "Record shops, venues and markets",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List places",
				Flags:  outputFlags(),
				Action: r.PlacesList,
			},
			{
				Name:  "add",
				Usage: "Submit a place for moderation",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Place name", Required: true},
					&cli.StringFlag{Name: "type", Usage: "Place type, such as Shop or Market", Required: true},
					&cli.StringFlag{Name: "city", Usage: "City", Required: true},
					&cli.StringFlag{Name: "country", Usage: "Country", Required: true},
					&cli.StringFlag{Name: "address", Usage: "Street address"},
					&cli.StringFlag{Name: "description", Usage: "Short description"},
					&cli.StringFlag{Name: "url", Usage: "Website or listing link"},
					&cli.FloatFlag{Name: "lat", Usage: "Latitude; geocoded from city and country when omitted"},
					&cli.FloatFlag{Name: "lng", Usage: "Longitude"},
				},
				Action: r.PlacesAdd,
			},
			{
				Name:      "show",
				Usage:     "Show one place",
				Arguments: idArgs(),
				Flags:     outputFlags(),
				Action:    r.PlacesShow,
			},
			{
				Name:      "like",
				Usage:     "Like a place",
				Arguments: idArgs(),
				Action:    r.PlacesLike(true),
			},
			{
				Name:      "unlike",
				Usage:     "Remove your like from a place",
				Arguments: idArgs(),
				Action:    r.PlacesLike(false),
			},
			{
				Name:      "open",
				Usage:     "Open a place's link or map in the browser",
				Arguments: idArgs(),
				Action:    r.PlacesOpen,
			},
		},
	}
}
