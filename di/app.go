package di

import (
	"roombook/internal/scheduler"
	"roombook/transport/http"
)

// Application is what cmd/app runs. Scheduler is only started when
// SCHEDULER_EMBEDDED is set.
type Application struct {
	HTTP      *http.HTTP
	Scheduler *scheduler.Scheduler
}
