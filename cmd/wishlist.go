package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vkx/internal/query"
	"github.com/desertthunder/vkx/internal/shared"
)

// WishlistList prints the saved wishlist.
func (r *Runner) WishlistList(ctx context.Context, cmd *cli.Command) error {
	m, s, err := r.current()
	if err != nil {
		return err
	}
	defer r.persist(m, s)

	cache, err := r.queryClient()
	if err != nil {
		return err
	}
	items, err := query.Fetch(ctx, cache, query.WishlistKey(), s.Service().Wishlist)
	if err != nil {
		return err
	}

	if useJSON, pretty := wantJSON(cmd); useJSON {
		return r.writeJSON(items, pretty)
	}

	r.writePlainHeader(fmt.Sprintf("Wishlist (%d)", len(items)))
	for _, it := range items {
		r.writePlain("%6d  %-6s %-40s %s\n", it.ID, it.EntityType, shared.Truncate(it.Title, 40), it.Source)
	}
	return nil
}

// WishlistAdd saves an external album or artist to the wishlist.
func (r *Runner) WishlistAdd(ctx context.Context, cmd *cli.Command) error {
	externalID := cmd.StringArg("external-id")
	if externalID == "" {
		return fmt.Errorf("%w: external-id", shared.ErrMissingArgument)
	}
	req, err := addRequest(cmd, externalID)
	if err != nil {
		return err
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
	return r.report(content.AddToWishlist(ctx, req))
}

// WishlistRemove deletes a wishlist entry by id.
func (r *Runner) WishlistRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
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
	return r.report(content.RemoveFromWishlist(ctx, id))
}

func wishlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "wishlist",
		Aliases: []string{"wish"},
		Usage:   "Albums and artists you want to find",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the wishlist",
				Flags:  outputFlags(),
				Action: r.WishlistList,
			},
			{
				Name:      "add",
				Usage:     "Add an external album or artist to the wishlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "external-id"}},
				Flags:     itemFlags(),
				Action:    r.WishlistAdd,
			},
			{
				Name:      "remove",
				Usage:     "Remove a wishlist entry",
				Arguments: idArgs(),
				Action:    r.WishlistRemove,
			},
		},
	}
}
