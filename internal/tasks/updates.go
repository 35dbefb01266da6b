package tasks

import (
	"errors"
	"fmt"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/shared"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ValidateItems Phase = iota
	ImportItems
	Reconcile
)

func (p Phase) String() string {
	switch p {
	case ValidateItems:
		return "validate_items"
	case ImportItems:
		return "import_items"
	case Reconcile:
		return "reconcile"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func validatedUpdate(valid, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ValidateItems,
		Step:    valid,
		Total:   total,
		Message: fmt.Sprintf("%d of %d rows are valid", valid, total),
	}
}

func importedUpdate(step, total int, res ImportItemResult) ProgressUpdate {
	var msg string
	switch {
	case errors.Is(res.Err, shared.ErrDuplicateInFlight):
		msg = fmt.Sprintf("[%d/%d] skipped %s: already being added", step, total, res.Request.Title)
	case res.Err != nil:
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Request.Title, res.Err)
	case res.IsNew:
		msg = fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Request.Title)
	default:
		msg = fmt.Sprintf("[%d/%d] = %s (already present)", step, total, res.Request.Title)
	}
	return ProgressUpdate{Phase: ImportItems, Step: step, Total: total, Message: msg, Data: res}
}

func reconcileUpdate(collectionID int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconcile,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Refreshing collection %d", collectionID),
	}
}

func skippedUpdate(step, total int, req models.AddItemRequest, reason string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ValidateItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] skipped %s: %s", step, total, req.Title, reason),
	}
}
