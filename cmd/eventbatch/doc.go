// Command eventbatch renders every event of the selected timeline tracks as a
// separate file and splices the results back onto new tracks.
//
// Projects live in a SQLite file (see "eventbatch project"). "render" runs a
// batch, "plan" previews it without touching the project, and "presets"
// lists the external command presets used by offline renders. "check"
// verifies tools and templates, and "logs --run" shows one run's records.
package main
