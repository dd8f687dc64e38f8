package gateway

import (
	"context"
	"errors"
	"net/http"

	"task-marketplace/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type taskClient struct {
	*client
	log *zap.Logger
}

func NewTaskGateway(cfg utils.GatewayConfig, log *zap.Logger) TaskGateway {
	return &taskClient{
		client: newClient(cfg.TaskServiceURL, cfg),
		log:    log.With(zap.String("gateway", "task")),
	}
}

func (c *taskClient) ValidateTask(ctx context.Context, taskID uuid.UUID) bool {
	task, err := c.GetTaskInfo(ctx, taskID)
	if err != nil {
		c.log.Warn("Task validation failed", zap.String("task_id", taskID.String()), zap.Error(err))
		return false
	}
	return task != nil
}

func (c *taskClient) GetTaskInfo(ctx context.Context, taskID uuid.UUID) (*TaskInfo, error) {
	var task TaskInfo
	err := c.do(ctx, http.MethodGet, "/internal/tasks/"+taskID.String(), nil, &task)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

type taskStatusUpdate struct {
	Status     TaskStatus `json:"status"`
	AssigneeID *uuid.UUID `json:"assignee_id"`
}

func (c *taskClient) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, assigneeID *uuid.UUID) {
	path := "/internal/tasks/" + taskID.String() + "/status"
	err := c.do(ctx, http.MethodPatch, path, taskStatusUpdate{Status: status, AssigneeID: assigneeID}, nil)
	if err != nil {
		c.log.Warn("Task status update failed",
			zap.String("task_id", taskID.String()),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return
	}

	c.log.Info("Task status updated",
		zap.String("task_id", taskID.String()),
		zap.String("status", string(status)),
	)
}
