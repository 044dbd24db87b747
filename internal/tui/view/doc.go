// Package view renders the question UI. Each view is a pure function of a
// form.State snapshot and the active styles, so the bubbletea model only
// decides which views to compose.
package view
