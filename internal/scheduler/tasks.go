package scheduler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
)

const TaskReclassifyLead = "leads.reclassify"

const reclassifyMaxRetry = 3

type ReclassifyLeadPayload struct {
	LeadID      string `json:"leadId"`
	RequestedBy string `json:"requestedBy"`
}

func NewReclassifyLeadTask(payload ReclassifyLeadPayload) (*asynq.Task, error) {
	if strings.TrimSpace(payload.LeadID) == "" {
		return nil, fmt.Errorf("lead id is required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReclassifyLead, data, asynq.MaxRetry(reclassifyMaxRetry)), nil
}

func ParseReclassifyLeadPayload(task *asynq.Task) (ReclassifyLeadPayload, error) {
	var payload ReclassifyLeadPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ReclassifyLeadPayload{}, err
	}
	return payload, nil
}
