package tasks

import (
	"github.com/hibiken/asynq"
)

// Task type names shared between the enqueuing side and the worker mux.
const (
	// TypeSceneAutosave flushes cached live scenes of active rooms into DB
	// snapshots. Enqueued periodically; carries no payload, the worker asks
	// the hub which rooms are live.
	TypeSceneAutosave = "scene:autosave"
)

// NewSceneAutosaveTask builds the periodic autosave task.
func NewSceneAutosaveTask() *asynq.Task {
	return asynq.NewTask(TypeSceneAutosave, nil)
}
