package worker

import (
	"github.com/spec-kit/trouble-ticket/internal/service"
)

// StartActivityWorker registers the lifecycle event handlers.
func StartActivityWorker(activityService *service.ActivityService) {
	if activityService == nil {
		return
	}
	activityService.RegisterHandlers()
}
