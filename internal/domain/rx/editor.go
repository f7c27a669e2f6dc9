package rx

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrDrugRequired is returned by Add when the drug name is blank.
var ErrDrugRequired = errors.New("drug name is required")

// Editor holds the ordered prescription lines of the active visit.
// Insertion order is prescription order. At most one line is in edit mode
// at a time; Add commits either an append or, when an edit is pending, an
// in-place update of the edited line.
//
// Editor is not safe for concurrent use; the owning session serializes
// access.
type Editor struct {
	items     []Item
	editingID uuid.UUID
}

func NewEditor() *Editor {
	return &Editor{}
}

// Add commits an item. While an edit is pending the edited line is
// replaced in place, keeping its id and position, and edit mode ends.
// Otherwise the item is appended with a fresh id — after passing the
// allergy gate: a conflict without override aborts the add untouched.
func (e *Editor) Add(item Item, patientAllergies string, override bool) (Item, error) {
	if strings.TrimSpace(item.Drug) == "" {
		return Item{}, ErrDrugRequired
	}

	if e.editingID != uuid.Nil {
		for i := range e.items {
			if e.items[i].ID == e.editingID {
				item.ID = e.editingID
				e.items[i] = item
				e.editingID = uuid.Nil
				return item, nil
			}
		}
		// The edited line vanished (deleted elsewhere); fall through to
		// an append.
		e.editingID = uuid.Nil
	}

	if !override && Check(item.Drug, patientAllergies) {
		return Item{}, &SafetyConflictError{Drug: item.Drug, Allergies: patientAllergies}
	}

	item.ID = uuid.New()
	e.items = append(e.items, item)
	return item, nil
}

// BeginEdit puts the line with the given id into edit mode and returns its
// current values for the edit buffer. A miss is a silent no-op. Starting a
// new edit abandons any prior uncommitted edit.
func (e *Editor) BeginEdit(id uuid.UUID) (Item, bool) {
	for _, it := range e.items {
		if it.ID == id {
			e.editingID = id
			return it, true
		}
	}
	return Item{}, false
}

// CancelEdit leaves edit mode without touching the list.
func (e *Editor) CancelEdit() {
	e.editingID = uuid.Nil
}

// Delete removes the line with the given id, cancelling the edit if that
// line was being edited. Returns false when the id is not present.
func (e *Editor) Delete(id uuid.UUID) bool {
	for i, it := range e.items {
		if it.ID == id {
			e.items = append(e.items[:i], e.items[i+1:]...)
			if e.editingID == id {
				e.editingID = uuid.Nil
			}
			return true
		}
	}
	return false
}

// Append adds lines at the tail without the safety gate or the edit slot.
// This is the protocol-application path; ids are assigned when missing.
func (e *Editor) Append(items ...Item) {
	for _, it := range items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		e.items = append(e.items, it)
	}
}

// Items returns a copy of the list in prescription order.
func (e *Editor) Items() []Item {
	out := make([]Item, len(e.items))
	copy(out, e.items)
	return out
}

// Load replaces the list, used when a historical visit is opened.
func (e *Editor) Load(items []Item) {
	e.items = make([]Item, len(items))
	copy(e.items, items)
	e.editingID = uuid.Nil
}

// Clear empties the list and the edit slot.
func (e *Editor) Clear() {
	e.items = nil
	e.editingID = uuid.Nil
}

// EditingID returns the id in edit mode, or uuid.Nil.
func (e *Editor) EditingID() uuid.UUID {
	return e.editingID
}

// Len returns the number of lines.
func (e *Editor) Len() int {
	return len(e.items)
}
