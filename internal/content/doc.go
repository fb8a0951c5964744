// Package content holds the in-memory site model: a tree of sections owning
// pages, plus categories derived from page metadata.
//
// Ownership runs strictly downwards. A Site owns its root Section, each
// Section owns its pages and subsections, and a Category owns its items.
// Page.Section, Section.Parent and CategoryItem.Category are back-references
// used for navigation and URL lookup only.
//
// Once a builder has finished (including URL resolution) the model is never
// mutated again, so concurrent readers need no locking.
package content
