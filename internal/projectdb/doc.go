// Package projectdb stores timeline projects in SQLite.
//
// A project file holds one project: tracks with their events, takes and fades,
// the media pool, the transition catalog, region markers, and the selection.
// Save replaces the stored project inside one transaction. Lock takes an
// exclusive flock next to the database so only one batch run mutates a
// project at a time.
package projectdb
