// Package ui implements the terminal presentation layer: styled notifications and an interactive author browser.
//
// [Notifier] prints success, info and error notices to a writer. While the TUI owns the terminal,
// [Notifier.Capture] diverts notices into a channel that the [Model] renders as a status line.
//
// The browser [Model] follows bubbletea's Elm architecture with three views:
//  1. [SearchView] : Enter an author name
//  2. [ResultsView] : Page through matches and toggle favorites
//  3. [DetailView] : Read an author's catalog record
//
// Toggles run as commands so the list stays responsive; an author with a change in flight is marked
// until the favorites cache settles it. Messages flow through the [Msg] union type.
package ui
