// Package launcher implements the gamepad-driven app menu shown on the
// glasses.
//
// Menu is a two-state machine (Hidden, Visible) over an ordered entry list.
// Navigation wraps around; selecting launches the entry and hides the menu.
// The list comes from a Source, typically a DirSource reading YAML, TOML or
// JSON files, and is sorted with favorites first.
package launcher
