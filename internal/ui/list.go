package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/optimistic"
	"github.com/desertthunder/vkx/internal/shared"
)

var (
	_ list.Item = collectionItem{}
	_ list.Item = albumItem{}
	_ list.Item = placeItem{}
	_ list.Item = hitItem{}
)

// likeBadge renders a cell's displayed state. Values come from the cell, never the server copy.
func likeBadge(cell *optimistic.LikeCell) string {
	if cell == nil {
		return ""
	}
	s := cell.State()
	heart := "♡"
	if s.Liked {
		heart = styles.liked.Render("♥")
	}
	badge := fmt.Sprintf("%s %d", heart, s.LikesCount)
	if cell.Pending() {
		badge += styles.pending.Render(" …")
	}
	return badge
}

// collectionItem wraps [models.CollectionListItem] and the row's own like cell to implement [list.Item].
type collectionItem struct {
	collection models.CollectionListItem
	cell       *optimistic.LikeCell
}

func (i collectionItem) FilterValue() string { return i.collection.Name }
func (i collectionItem) Title() string       { return i.collection.Name }
func (i collectionItem) Description() string {
	parts := []string{
		likeBadge(i.cell),
		fmt.Sprintf("%d albums", i.collection.AlbumsCount),
		fmt.Sprintf("%d artists", i.collection.ArtistsCount),
		shared.VisibilityString(i.collection.IsPublic),
	}
	if i.collection.Owner != nil {
		parts = append(parts, "by "+i.collection.Owner.Username)
	}
	return strings.Join(parts, " • ")
}

// albumItem wraps [models.CollectionAlbum] to implement [list.Item].
type albumItem struct {
	album models.CollectionAlbum
}

func (i albumItem) FilterValue() string { return i.album.Title }
func (i albumItem) Title() string       { return i.album.Title }
func (i albumItem) Description() string {
	var parts []string
	if r := i.album.Record; r != nil {
		parts = append(parts, "record "+r.Label())
	}
	if c := i.album.Cover; c != nil {
		parts = append(parts, "cover "+c.Label())
	}
	if a := i.album.Acquired; a != nil {
		parts = append(parts, "acquired "+a.String())
	}
	if len(parts) == 0 {
		return i.album.Source.Name
	}
	return strings.Join(parts, " • ")
}

// artistItem wraps [models.CollectionArtist] to implement [list.Item].
type artistItem struct {
	artist models.CollectionArtist
}

func (i artistItem) FilterValue() string { return i.artist.Title }
func (i artistItem) Title() string       { return i.artist.Title }
func (i artistItem) Description() string { return "artist • " + i.artist.Source.Name }

// placeItem wraps [models.Place] and its like cell to implement [list.Item].
type placeItem struct {
	place models.Place
	cell  *optimistic.LikeCell
}

func (i placeItem) FilterValue() string { return i.place.Name }
func (i placeItem) Title() string       { return i.place.Name }
func (i placeItem) Description() string {
	parts := []string{likeBadge(i.cell), i.place.PlaceType.Name}
	if loc := i.place.Location(); loc != "" {
		parts = append(parts, loc)
	}
	return strings.Join(parts, " • ")
}

// hitItem wraps a metadata proxy search hit to implement [list.Item].
type hitItem struct {
	hit    models.ExternalItem
	adding bool
}

func (i hitItem) FilterValue() string { return i.hit.Title }
func (i hitItem) Title() string {
	if i.adding {
		return i.hit.Title + styles.pending.Render(" (adding…)")
	}
	return i.hit.Title
}
func (i hitItem) Description() string {
	if i.hit.Artist != "" {
		return fmt.Sprintf("%s • %s", i.hit.Artist, i.hit.Source)
	}
	return string(i.hit.Source)
}
