package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/litfav/internal/models"
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
	MsgSearchCompleted MsgKind = iota
	MsgAuthorFetched
	MsgToggleCompleted
	MsgNotice
)

type searchData struct {
	query  string
	page   int
	result *models.AuthorSearchResult
	err    error
}

type authorData struct {
	author *models.Author
	err    error
}

type toggleData struct {
	author  models.Author
	present bool
	err     error
}

// searchCompletedMsg is the constructor for [MsgSearchCompleted]
func searchCompletedMsg(query string, page int, result *models.AuthorSearchResult, err error) Msg {
	return Msg{kind: MsgSearchCompleted, data: searchData{query, page, result, err}}
}

// authorFetchedMsg is the constructor for [MsgAuthorFetched]
func authorFetchedMsg(author *models.Author, err error) Msg {
	return Msg{kind: MsgAuthorFetched, data: authorData{author, err}}
}

// toggleCompletedMsg is the constructor for [MsgToggleCompleted]
func toggleCompletedMsg(author models.Author, present bool, err error) Msg {
	return Msg{kind: MsgToggleCompleted, data: toggleData{author, present, err}}
}

// noticeMsg is the constructor for [MsgNotice]
func noticeMsg(n Notice) Msg {
	return Msg{kind: MsgNotice, data: n}
}
