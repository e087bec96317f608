// ABOUTME: Checklist entry model
// ABOUTME: Entries are grouped under a calendar date by the checklist package
package models

// ChecklistEntry is one task on a day's checklist.
type ChecklistEntry struct {
	Task string `json:"task"`
	Done bool   `json:"done"`
}
