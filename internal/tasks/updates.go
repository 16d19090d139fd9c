package tasks

import "fmt"

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
	LoadFavorites Phase = iota
	AddFavorites
	RemoveFavorites
	ExportFavorites
)

func (p Phase) String() string {
	switch p {
	case LoadFavorites:
		return "load_favorites"
	case AddFavorites:
		return "add_favorites"
	case RemoveFavorites:
		return "remove_favorites"
	case ExportFavorites:
		return "export_favorites"
	default:
		return ""
	}
}

func bulkPhase(remove bool) Phase {
	if remove {
		return RemoveFavorites
	}
	return AddFavorites
}

func bulkStartUpdate(phase Phase, total int) ProgressUpdate {
	verb := "Adding"
	if phase == RemoveFavorites {
		verb = "Removing"
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("%s %d favorites...", verb, total),
	}
}

func keyCompletedUpdate(phase Phase, step, total int, res KeyResult) ProgressUpdate {
	mark := "✓"
	status := "done"
	switch {
	case res.Error != nil:
		mark, status = "✗", res.Error.Error()
	case !res.Changed:
		mark, status = "·", "unchanged"
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s: %s", step, total, mark, res.Key, status),
		Data:    res,
	}
}

func loadingUpdate(email string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadFavorites,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loading favorites for %s...", email),
	}
}

func exportUpdate(step, total int, msg string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportFavorites,
		Step:    step,
		Total:   total,
		Message: msg,
	}
}
