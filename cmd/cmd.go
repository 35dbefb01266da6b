// submodule cmd contains command definitions
package main

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/shared"
)

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "page",
			Usage: "Page number, starting at 1",
			Value: 1,
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Items per page (default from ui.page_size)",
		},
	}
}

// itemFlags describe an external album or artist for add commands.
func itemFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "type",
			Usage: "album or artist",
			Value: "album",
		},
		&cli.StringFlag{
			Name:  "title",
			Usage: "Display title",
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "Metadata provider (DEEZER, DISCOGS, MUSICBRAINZ, SPOTIFY, LASTFM)",
			Value: string(models.SourceDeezer),
		},
		&cli.StringFlag{
			Name:  "image",
			Usage: "Cover image URL",
		},
	}
}

func conditionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "record",
			Usage: "Record grade (mint, near_mint, very_good, good, fair, poor)",
		},
		&cli.StringFlag{
			Name:  "cover",
			Usage: "Cover grade",
		},
		&cli.StringFlag{
			Name:  "acquired",
			Usage: "Acquisition month as YYYY-MM",
		},
	}
}

func flags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// addRequest builds an add payload from [itemFlags] and, for albums, [conditionFlags].
func addRequest(cmd *cli.Command, externalID string) (models.AddItemRequest, error) {
	kind, err := models.ParseEntityType(cmd.String("type"))
	if err != nil {
		return models.AddItemRequest{}, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	req := models.AddItemRequest{
		ExternalID: externalID,
		EntityType: kind,
		Title:      cmd.String("title"),
		ImageURL:   cmd.String("image"),
		Source:     models.ExternalSource(cmd.String("source")),
	}

	update, err := conditionUpdate(cmd)
	if err != nil {
		return req, err
	}
	if !update.IsEmpty() {
		cond := models.Condition{}.Apply(update)
		req.Condition = &cond
	}

	if err := req.Validate(); err != nil {
		return req, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return req, nil
}

// conditionUpdate reads [conditionFlags]; unset flags leave the field alone.
func conditionUpdate(cmd *cli.Command) (models.ConditionUpdate, error) {
	var u models.ConditionUpdate
	if v := cmd.String("record"); v != "" {
		s, err := models.ParseVinylState(v)
		if err != nil {
			return u, fmt.Errorf("%w: --record: %v", shared.ErrInvalidFlag, err)
		}
		u.Record = &s
	}
	if v := cmd.String("cover"); v != "" {
		s, err := models.ParseVinylState(v)
		if err != nil {
			return u, fmt.Errorf("%w: --cover: %v", shared.ErrInvalidFlag, err)
		}
		u.Cover = &s
	}
	if v := cmd.String("acquired"); v != "" {
		ym, err := models.ParseYearMonth(v)
		if err != nil {
			return u, fmt.Errorf("%w: --acquired: %v", shared.ErrInvalidFlag, err)
		}
		u.Acquired = &ym
	}
	if cmd.Bool("clear-acquired") {
		u.ClearAcquired = true
	}
	return u, nil
}

func likeLabel(s models.LikeState) string {
	if s.Liked {
		return fmt.Sprintf("♥ %d", s.LikesCount)
	}
	return fmt.Sprintf("♡ %d", s.LikesCount)
}
