// Package viz renders solved models for the terminal: line plots of
// trajectories, indicator summaries, Braille direction fields and sweep
// tables. Output is plain strings styled with lipgloss, so the same
// renderers serve the CLI and the interactive explorer.
//
// # Themes
//
// Colors come from the current [Theme]. [SetTheme] switches it by name and
// [ThemeNames] lists the built-in schemes.
package viz
