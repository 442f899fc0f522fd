// Package database provides SQLite-based run history for web2proposal.
//
// Every completed run is stored with its full JSON dump, a row of summary
// columns for listing, and one row per fetched page so that runs can be
// looked up by the URLs they used.
//
// SQLite (via modernc.org/sqlite) keeps the history in a single file
// without CGO.
package database
