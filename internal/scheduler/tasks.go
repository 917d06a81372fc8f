package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskStaleProjectSweep = "projects.stale_sweep"

// StaleProjectSweepPayload carries the staleness cutoff computed at enqueue
// time, so a delayed task does not shift the window.
type StaleProjectSweepPayload struct {
	Cutoff time.Time `json:"cutoff"`
}

func NewStaleProjectSweepTask(payload StaleProjectSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStaleProjectSweep, data), nil
}

func ParseStaleProjectSweepPayload(task *asynq.Task) (StaleProjectSweepPayload, error) {
	var payload StaleProjectSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return StaleProjectSweepPayload{}, err
	}
	return payload, nil
}
