package worker

import (
	"context"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/PtahSamora/titcha-studyroom/internal/hub"
	"github.com/PtahSamora/titcha-studyroom/internal/service"
)

// roomAutosaveTimeout bounds one room's flush so a slow DB cannot stall the
// whole sweep.
const roomAutosaveTimeout = 30 * time.Second

// SceneAutosaveHandler flushes the cached live scene of every active room to
// its DB snapshot.
type SceneAutosaveHandler struct {
	hub          *hub.Hub
	sceneService *service.SceneService
}

func NewSceneAutosaveHandler(h *hub.Hub, sceneService *service.SceneService) *SceneAutosaveHandler {
	if h == nil {
		panic("Hub cannot be nil for SceneAutosaveHandler")
	}
	if sceneService == nil {
		panic("SceneService cannot be nil for SceneAutosaveHandler")
	}
	return &SceneAutosaveHandler{hub: h, sceneService: sceneService}
}

// ProcessTask implements asynq.Handler. Per-room failures are logged and do
// not fail the sweep; the next tick retries naturally.
func (h *SceneAutosaveHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := logrus.WithField("task_type", t.Type())

	activeRoomIDs := h.hub.GetActiveRoomIDs()
	if len(activeRoomIDs) == 0 {
		logCtx.Debug("No active rooms, nothing to autosave")
		return nil
	}
	logCtx.WithField("room_count", len(activeRoomIDs)).Info("Autosaving scenes for active rooms")

	var wg sync.WaitGroup
	for _, roomID := range activeRoomIDs {
		wg.Add(1)
		go func(rID uint) {
			defer wg.Done()
			saveCtx, cancel := context.WithTimeout(ctx, roomAutosaveTimeout)
			defer cancel()
			if err := h.sceneService.Autosave(saveCtx, rID); err != nil {
				logCtx.WithField("room_id", rID).WithError(err).Error("Scene autosave failed")
			}
		}(roomID)
	}
	wg.Wait()
	return nil
}
