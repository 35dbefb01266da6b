package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/optimistic"
	"github.com/desertthunder/vkx/internal/search"
	"github.com/desertthunder/vkx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCollectionsFetched MsgKind = iota
	MsgDetailFetched
	MsgAlbumsFetched
	MsgSearchTick
	MsgSearchResults
	MsgPlacesFetched
	MsgHitsFetched
	MsgLikeSettled
	MsgNotice
	MsgRecallLoaded
)

type collectionsData struct {
	public bool
	page   *models.Paginated[models.CollectionListItem]
	err    error
}

type detailData struct {
	detail *models.CollectionDetail
	err    error
}

type albumsData struct {
	collectionID int64
	page         *models.Paginated[models.CollectionAlbum]
	err          error
}

// searchScope says which input a debounce tick belongs to.
type searchScope int

const (
	collectionScope searchScope = iota
	proxyScope
)

type tickData struct {
	scope searchScope
	tag   search.Tag
}

type searchData struct {
	collectionID int64
	query        string
	result       *models.CollectionSearch
	err          error
}

type placesData struct {
	places []models.Place
	err    error
}

type hitsData struct {
	query string
	hits  []models.ExternalItem
	err   error
}

type likeData struct {
	target  tasks.Target
	id      int64
	outcome optimistic.Outcome
}

type noticeData struct {
	notice tasks.Notice
	key    string
}

type recallData struct {
	scope   string
	entries []string
}

// collectionsFetchedMsg is the constructor for [MsgCollectionsFetched]
func collectionsFetchedMsg(public bool, page *models.Paginated[models.CollectionListItem], err error) Msg {
	return Msg{kind: MsgCollectionsFetched, data: collectionsData{public, page, err}}
}

// detailFetchedMsg is the constructor for [MsgDetailFetched]
func detailFetchedMsg(detail *models.CollectionDetail, err error) Msg {
	return Msg{kind: MsgDetailFetched, data: detailData{detail, err}}
}

// albumsFetchedMsg is the constructor for [MsgAlbumsFetched]
func albumsFetchedMsg(collectionID int64, page *models.Paginated[models.CollectionAlbum], err error) Msg {
	return Msg{kind: MsgAlbumsFetched, data: albumsData{collectionID, page, err}}
}

// searchTickMsg is the constructor for [MsgSearchTick]
func searchTickMsg(scope searchScope, tag search.Tag) Msg {
	return Msg{kind: MsgSearchTick, data: tickData{scope, tag}}
}

// searchResultsMsg is the constructor for [MsgSearchResults]
func searchResultsMsg(collectionID int64, query string, result *models.CollectionSearch, err error) Msg {
	return Msg{kind: MsgSearchResults, data: searchData{collectionID, query, result, err}}
}

// placesFetchedMsg is the constructor for [MsgPlacesFetched]
func placesFetchedMsg(places []models.Place, err error) Msg {
	return Msg{kind: MsgPlacesFetched, data: placesData{places, err}}
}

// hitsFetchedMsg is the constructor for [MsgHitsFetched]
func hitsFetchedMsg(query string, hits []models.ExternalItem, err error) Msg {
	return Msg{kind: MsgHitsFetched, data: hitsData{query, hits, err}}
}

// likeSettledMsg is the constructor for [MsgLikeSettled]
func likeSettledMsg(target tasks.Target, id int64, outcome optimistic.Outcome) Msg {
	return Msg{kind: MsgLikeSettled, data: likeData{target, id, outcome}}
}

// noticeMsg is the constructor for [MsgNotice]. key names the add target that finished, if any.
func noticeMsg(n tasks.Notice, key string) Msg {
	return Msg{kind: MsgNotice, data: noticeData{n, key}}
}

// recallLoadedMsg is the constructor for [MsgRecallLoaded]
func recallLoadedMsg(scope string, entries []string) Msg {
	return Msg{kind: MsgRecallLoaded, data: recallData{scope, entries}}
}
