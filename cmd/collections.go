package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/optimistic"
	"github.com/desertthunder/vkx/internal/query"
	"github.com/desertthunder/vkx/internal/repositories"
	"github.com/desertthunder/vkx/internal/services"
	"github.com/desertthunder/vkx/internal/session"
	"github.com/desertthunder/vkx/internal/shared"
	"github.com/desertthunder/vkx/internal/tasks"
)

// CollectionsList prints the user's collections, or the public ones with --public.
func (r *Runner) CollectionsList(ctx context.Context, cmd *cli.Command) error {
	public := cmd.Bool("public")
	sortBy := models.PublicSort(cmd.String("sort"))
	page := services.PageQuery{Page: cmd.Int("page"), Limit: r.pageSize(cmd)}

	var (
		m   *session.Manager
		s   *session.Session
		err error
	)
	if public {
		m, s, err = r.restoreOrAnonymous()
	} else {
		m, s, err = r.current()
	}
	if err != nil {
		return err
	}
	defer r.persist(m, s)

	cache, err := r.queryClient()
	if err != nil {
		return err
	}

	var res *models.Paginated[models.CollectionListItem]
	if public {
		res, err = query.Fetch(ctx, cache, query.PublicCollectionsKey(page.Page, page.Limit, string(sortBy)),
			func(ctx context.Context) (*models.Paginated[models.CollectionListItem], error) {
				return s.Service().PublicCollections(ctx, page, sortBy)
			})
	} else {
		res, err = query.Fetch(ctx, cache, query.OwnCollectionsKey(page.Page, page.Limit),
			func(ctx context.Context) (*models.Paginated[models.CollectionListItem], error) {
				return s.Service().Collections(ctx, page)
			})
	}
	if err != nil {
		return err
	}

	if useJSON, pretty := wantJSON(cmd); useJSON {
		return r.writeJSON(res, pretty)
	}

	title := "My Collections"
	if public {
		title = "Public Collections"
	}
	r.writePlainHeader(fmt.Sprintf("%s (%d)", title, res.Total))
	for _, c := range res.Items {
		owner := ""
		if public && c.Owner != nil {
			owner = " by " + c.Owner.Username
		}
		r.writePlain("%6d  %-32s %-8s %s  %d albums%s\n",
			c.ID, shared.Truncate(c.Name, 32), shared.VisibilityString(c.IsPublic), likeLabel(c.LikeState()), c.AlbumsCount, owner)
	}
	if res.TotalPages > 1 {
		r.writePlain("\nPage %d of %d\n", res.Page, res.TotalPages)
	}
	return nil
}

// CollectionsShow prints a collection header with its first page of albums and artists.
func (r *Runner) CollectionsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	m, s, err := r.restoreOrAnonymous()
	if err != nil {
		return err
	}
	defer r.persist(m, s)

	page := services.PageQuery{Page: 1, Limit: r.pageSize(cmd)}
	detail, err := s.Service().CollectionDetails(ctx, id)
	if err != nil {
		return err
	}
	albums, err := s.Service().CollectionAlbums(ctx, id, page)
	if err != nil {
		return err
	}
	artists, err := s.Service().CollectionArtists(ctx, id, page)
	if err != nil {
		return err
	}

	if useJSON, pretty := wantJSON(cmd); useJSON {
		return r.writeJSON(models.CollectionExport{Collection: *detail, Albums: albums.Items, Artists: artists.Items}, pretty)
	}

	r.writePlainHeader(detail.Name)
	if detail.Owner != nil {
		r.writePlain("Owner: %s\n", detail.Owner.Username)
	}
	r.writePlain("Visibility: %s\n", shared.VisibilityString(detail.IsPublic))
	r.writePlain("Likes: %s\n", likeLabel(detail.LikeState()))
	if detail.Description != "" {
		r.writePlain("\n%s\n", detail.Description)
	}

	r.writePlainln("Albums (%d)", albums.Total)
	r.writeAlbums(albums.Items)
	r.writePlainln("Artists (%d)", artists.Total)
	for _, a := range artists.Items {
		r.writePlain("%6d  %s\n", a.ID, a.Title)
	}
	return nil
}

func (r *Runner) writeAlbums(albums []models.CollectionAlbum) {
	for _, a := range albums {
		r.writePlain("%6d  %-40s %s\n", a.ID, shared.Truncate(a.Title, 40), conditionLabel(a.Condition))
	}
}

func conditionLabel(c models.Condition) string {
	label := ""
	if c.Record != nil {
		label += "record: " + c.Record.Label()
	}
	if c.Cover != nil {
		if label != "" {
			label += ", "
		}
		label += "cover: " + c.Cover.Label()
	}
	if c.Acquired != nil {
		if label != "" {
			label += ", "
		}
		label += "since " + c.Acquired.String()
	}
	return label
}

// CollectionsAlbums pages through a collection's albums.
func (r *Runner) CollectionsAlbums(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	m, s, err := r.restoreOrAnonymous()
	if err != nil {
		return err
	}
	defer r.persist(m, s)

	res, err := s.Service().CollectionAlbums(ctx, id, services.PageQuery{Page: cmd.Int("page"), Limit: r.pageSize(cmd)})
	if err != nil {
		return err
	}
	if useJSON, pretty := wantJSON(cmd); useJSON {
		return r.writeJSON(res, pretty)
	}

	r.writePlainHeader(fmt.Sprintf("Albums (%d)", res.Total))
	r.writeAlbums(res.Items)
	r.writePlain("\nPage %d of %d\n", res.Page, max(res.TotalPages, 1))
	return nil
}

// CollectionsArtists pages through a collection's artists.
func (r *Runner) CollectionsArtists(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	m, s, err := r.restoreOrAnonymous()
	if err != nil {
		return err
	}
	defer r.persist(m, s)

	res, err := s.Service().CollectionArtists(ctx, id, services.PageQuery{Page: cmd.Int("page"), Limit: r.pageSize(cmd)})
	if err != nil {
		return err
	}
	if useJSON, pretty := wantJSON(cmd); useJSON {
		return r.writeJSON(res, pretty)
	}

	r.writePlainHeader(fmt.Sprintf("Artists (%d)", res.Total))
	for _, a := range res.Items {
		r.writePlain("%6d  %s\n", a.ID, a.Title)
	}
	r.writePlain("\nPage %d of %d\n", res.Page, max(res.TotalPages, 1))
	return nil
}

// CollectionsSearch searches one collection and records the query for recall in the TUI.
func (r *Runner) CollectionsSearch(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	q := shared.NormalizeQuery(cmd.StringArg("query"))
	if shared.RuneLen(q) < r.config.UI.SearchMinLength {
		return fmt.Errorf("%w: type at least %d characters", shared.ErrQueryTooShort, r.config.UI.SearchMinLength)
	}

	m, s, err := r.restoreOrAnonymous()
	if err != nil {
		return err
	}
	defer r.persist(m, s)

	kind := models.SearchType(cmd.String("type"))
	res, err := s.Service().SearchCollection(ctx, id, q, kind)
	if err != nil {
		return err
	}
	r.recordSearch(s, historyScope(id), q, res.Len())

	if useJSON, pretty := wantJSON(cmd); useJSON {
		return r.writeJSON(res, pretty)
	}

	if res.Len() == 0 {
		return r.writePlain("No results for %q\n", q)
	}
	r.writePlain("%d results for %q\n\n", res.Len(), q)
	for _, a := range res.Albums {
		r.writePlain("  ♪ %6d  %s\n", a.ID, a.Title)
	}
	for _, a := range res.Artists {
		r.writePlain("  ☺ %6d  %s\n", a.ID, a.Title)
	}
	return nil
}

func historyScope(collectionID int64) string {
	if collectionID == 0 {
		return "proxy"
	}
	return fmt.Sprintf("collection:%d", collectionID)
}

// recordSearch keeps a committed query in the local history. Failures are only logged.
func (r *Runner) recordSearch(s *session.Session, scope, q string, results int) {
	if !s.Authenticated() {
		return
	}
	db, err := r.database()
	if err != nil {
		return
	}
	entry := models.NewSearchEntry(s.User().ID, scope, q, results)
	if err := repositories.NewSearchHistoryRepository(db).Create(entry); err != nil {
		r.logger.Warn("failed to save search", "scope", scope, "error", err)
	}
}

// CollectionsLike likes or unlikes a collection through the optimistic like engine.
func (r *Runner) CollectionsLike(liked bool) cli.ActionFunc {
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

		detail, err := s.Service().CollectionDetails(ctx, id)
		if err != nil {
			return err
		}
		return r.toggleLike(ctx, s, tasks.CollectionTarget, detail.LikeState(), liked, detail.Name)
	}
}

// toggleLike runs one toggle when the current state differs from the wanted one.
func (r *Runner) toggleLike(ctx context.Context, s *session.Session, t tasks.Target, state models.LikeState, liked bool, name string) error {
	if state.Liked == liked {
		return r.writePlain("• %s is already %s (%s)\n", name, likedWord(liked), likeLabel(state))
	}

	likes, err := r.likeEngine(s)
	if err != nil {
		return err
	}
	cell := likes.Cell(t, state)
	defer cell.Close()

	after, outcome, err := likes.Toggle(ctx, t, cell)
	if err != nil {
		return err
	}
	if outcome != optimistic.Confirmed {
		return fmt.Errorf("%w: could not update like on %s", shared.ErrAPIRequest, name)
	}
	return r.writePlain("✓ %s %s (%s)\n", likedWord(liked), name, likeLabel(after))
}

func likedWord(liked bool) string {
	if liked {
		return "Liked"
	}
	return "Unliked"
}

// ownedCollection fetches a collection and checks the session user owns it.
func ownedCollection(ctx context.Context, s *session.Session, id int64) (*models.CollectionDetail, error) {
	detail, err := s.Service().CollectionDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if !detail.OwnedBy(s.User()) {
		return nil, shared.ErrNotOwner
	}
	return detail, nil
}

// CollectionsVisibility switches a collection between public and private.
func (r *Runner) CollectionsVisibility(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	public, private := cmd.Bool("public"), cmd.Bool("private")
	if public == private {
		return fmt.Errorf("%w: pass exactly one of --public or --private", shared.ErrInvalidArgument)
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
	return r.report(content.SwitchVisibility(ctx, id, public))
}

// CollectionsCondition edits the grading or acquisition month of one album.
func (r *Runner) CollectionsCondition(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	albumID, err := idArg(cmd, "album")
	if err != nil {
		return err
	}
	update, err := conditionUpdate(cmd)
	if err != nil {
		return err
	}

	m, s, err := r.current()
	if err != nil {
		return err
	}
	defer r.persist(m, s)

	detail, err := s.Service().CollectionDetails(ctx, id)
	if err != nil {
		return err
	}
	content, err := r.contentEngine(s)
	if err != nil {
		return err
	}

	cond, notice, err := content.UpdateCondition(ctx, *detail, albumID, update)
	if err := r.report(notice, err); err != nil {
		return err
	}
	if cond != nil {
		r.writePlain("  %s\n", conditionLabel(*cond))
	}
	return nil
}

// CollectionsRemove removes an album or an artist from a collection.
func (r *Runner) CollectionsRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	albumID, artistID := int64(cmd.Int("album")), int64(cmd.Int("artist"))
	if (albumID == 0) == (artistID == 0) {
		return fmt.Errorf("%w: pass exactly one of --album or --artist", shared.ErrInvalidArgument)
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
	if _, err := ownedCollection(ctx, s, id); err != nil {
		return err
	}

	if albumID != 0 {
		return r.report(content.RemoveAlbum(ctx, id, albumID))
	}
	return r.report(content.RemoveArtist(ctx, id, artistID))
}

// CollectionsCreate creates a collection for the session user.
func (r *Runner) CollectionsCreate(ctx context.Context, cmd *cli.Command) error {
	m, s, err := r.current()
	if err != nil {
		return err
	}
	defer r.persist(m, s)

	content, err := r.contentEngine(s)
	if err != nil {
		return err
	}
	id, notice, err := content.CreateCollection(ctx, models.CollectionCreate{
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		IsPublic:    cmd.Bool("public"),
	})
	if err := r.report(notice, err); err != nil {
		return err
	}
	r.writePlain("  id %d\n", id)
	return nil
}

// CollectionsEdit renames a collection or changes its description or visibility.
func (r *Runner) CollectionsEdit(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	var update models.CollectionUpdate
	if cmd.IsSet("name") {
		name := cmd.String("name")
		update.Name = &name
	}
	if cmd.IsSet("description") {
		desc := cmd.String("description")
		update.Description = &desc
	}
	switch public, private := cmd.Bool("public"), cmd.Bool("private"); {
	case public && private:
		return fmt.Errorf("%w: pass at most one of --public or --private", shared.ErrInvalidArgument)
	case public || private:
		update.IsPublic = &public
	}
	if update.IsEmpty() {
		return fmt.Errorf("%w: nothing to change", shared.ErrInvalidArgument)
	}

	m, s, err := r.current()
	if err != nil {
		return err
	}
	defer r.persist(m, s)

	detail, err := s.Service().CollectionDetails(ctx, id)
	if err != nil {
		return err
	}
	content, err := r.contentEngine(s)
	if err != nil {
		return err
	}
	return r.report(content.UpdateCollection(ctx, *detail, update))
}

// CollectionsDelete deletes a collection and everything in it.
func (r *Runner) CollectionsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	m, s, err := r.current()
	if err != nil {
		return err
	}
	defer r.persist(m, s)

	detail, err := s.Service().CollectionDetails(ctx, id)
	if err != nil {
		return err
	}
	content, err := r.contentEngine(s)
	if err != nil {
		return err
	}
	return r.report(content.DeleteCollection(ctx, *detail))
}

func idArgs() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "id"}}
}

func collectionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "collections",
		Aliases: []string{"col"},
		Usage:   "Browse and manage collections",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your collections, or public ones",
				Flags: flags(outputFlags(), pageFlags(), []cli.Flag{
					&cli.BoolFlag{
						Name:  "public",
						Usage: "List public collections instead of your own",
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Public sort order: updated_at, created_at or likes",
						Value: string(models.SortUpdated),
					},
				}),
				Action: r.CollectionsList,
			},
			{
				Name:  "create",
				Usage: "Create a collection",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Collection name", Required: true},
					&cli.StringFlag{Name: "description", Usage: "Short description"},
					&cli.BoolFlag{Name: "public", Usage: "Make the collection public"},
				},
				Action: r.CollectionsCreate,
			},
			{
				Name:      "edit",
				Usage:     "Rename a collection or change its description or visibility",
				Arguments: idArgs(),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "New name"},
					&cli.StringFlag{Name: "description", Usage: "New description"},
					&cli.BoolFlag{Name: "public", Usage: "Make the collection public"},
					&cli.BoolFlag{Name: "private", Usage: "Make the collection private"},
				},
				Action: r.CollectionsEdit,
			},
			{
				Name:      "delete",
				Usage:     "Delete a collection with its albums and artists",
				Arguments: idArgs(),
				Action:    r.CollectionsDelete,
			},
			{
				Name:      "show",
				Usage:     "Show a collection with its first albums and artists",
				Arguments: idArgs(),
				Flags:     flags(outputFlags(), pageFlags()),
				Action:    r.CollectionsShow,
			},
			{
				Name:      "albums",
				Usage:     "Page through a collection's albums",
				Arguments: idArgs(),
				Flags:     flags(outputFlags(), pageFlags()),
				Action:    r.CollectionsAlbums,
			},
			{
				Name:      "artists",
				Usage:     "Page through a collection's artists",
				Arguments: idArgs(),
				Flags:     flags(outputFlags(), pageFlags()),
				Action:    r.CollectionsArtists,
			},
			{
				Name:  "search",
				Usage: "Search albums and artists inside a collection",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "query"},
				},
				Flags: flags(outputFlags(), []cli.Flag{
					&cli.StringFlag{
						Name:  "type",
						Usage: "album, artist or both",
						Value: string(models.SearchBoth),
					},
				}),
				Action: r.CollectionsSearch,
			},
			{
				Name:      "like",
				Usage:     "Like a collection",
				Arguments: idArgs(),
				Action:    r.CollectionsLike(true),
			},
			{
				Name:      "unlike",
				Usage:     "Remove your like from a collection",
				Arguments: idArgs(),
				Action:    r.CollectionsLike(false),
			},
			{
				Name:      "visibility",
				Usage:     "Make a collection public or private",
				Arguments: idArgs(),
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "public", Usage: "Make the collection public"},
					&cli.BoolFlag{Name: "private", Usage: "Make the collection private"},
				},
				Action: r.CollectionsVisibility,
			},
			{
				Name:  "condition",
				Usage: "Edit an album's grading or acquisition month",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "album"},
				},
				Flags: flags(conditionFlags(), []cli.Flag{
					&cli.BoolFlag{Name: "clear-acquired", Usage: "Remove the acquisition month"},
				}),
				Action: r.CollectionsCondition,
			},
			{
				Name:      "remove",
				Usage:     "Remove an album or artist from a collection",
				Arguments: idArgs(),
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "album", Usage: "Album id to remove"},
					&cli.IntFlag{Name: "artist", Usage: "Artist id to remove"},
				},
				Action: r.CollectionsRemove,
			},
		},
	}
}
