package testutil

import (
	"context"
	"errors"
	"sync"

	"task-marketplace/internal/data/entity"
	"task-marketplace/internal/gateway"
	"task-marketplace/pkg/apperr"

	"github.com/google/uuid"
)

type TaskStatusCall struct {
	TaskID     uuid.UUID
	Status     gateway.TaskStatus
	AssigneeID *uuid.UUID
}

// FakeTasks is an in-memory task service.
type FakeTasks struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]gateway.TaskInfo
	calls []TaskStatusCall

	// GetErr makes GetTaskInfo fail.
	GetErr error
}

func NewFakeTasks() *FakeTasks {
	return &FakeTasks{tasks: make(map[uuid.UUID]gateway.TaskInfo)}
}

// AddTask registers an OPEN task owned by customerID.
func (f *FakeTasks) AddTask(taskID, customerID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[taskID] = gateway.TaskInfo{ID: taskID, CustomerID: customerID, Status: gateway.TaskStatusOpen}
}

func (f *FakeTasks) SetStatus(taskID uuid.UUID, status gateway.TaskStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task := f.tasks[taskID]
	task.Status = status
	f.tasks[taskID] = task
}

func (f *FakeTasks) ValidateTask(ctx context.Context, taskID uuid.UUID) bool {
	task, err := f.GetTaskInfo(ctx, taskID)
	return err == nil && task != nil
}

func (f *FakeTasks) GetTaskInfo(ctx context.Context, taskID uuid.UUID) (*gateway.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	task, ok := f.tasks[taskID]
	if !ok {
		return nil, nil
	}
	return &task, nil
}

// UpdateTaskStatus records the call and applies it like the real service would.
func (f *FakeTasks) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status gateway.TaskStatus, assigneeID *uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, TaskStatusCall{TaskID: taskID, Status: status, AssigneeID: assigneeID})
	if task, ok := f.tasks[taskID]; ok {
		task.Status = status
		f.tasks[taskID] = task
	}
}

func (f *FakeTasks) Calls() []TaskStatusCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]TaskStatusCall(nil), f.calls...)
}

var ErrProviderDown = errors.New("provider unavailable")

// FakeProvider approves charges and refunds unless told to fail.
type FakeProvider struct {
	mu          sync.Mutex
	chargeFails int
	refundFails bool
	charges     []uuid.UUID
	refunds     []uuid.UUID
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{}
}

// FailNextCharges makes the next n charges fail.
func (f *FakeProvider) FailNextCharges(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chargeFails = n
}

func (f *FakeProvider) FailRefunds(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refundFails = fail
}

func (f *FakeProvider) Name() string { return "fake" }

func (f *FakeProvider) Charge(ctx context.Context, payment *entity.Payment) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.charges = append(f.charges, payment.ID)
	if f.chargeFails > 0 {
		f.chargeFails--
		return "", apperr.ExternalFailureErr(ErrProviderDown, "charge payment %s", payment.ID)
	}
	return "ch_" + uuid.NewString(), nil
}

func (f *FakeProvider) Refund(ctx context.Context, original, refund *entity.Payment) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refunds = append(f.refunds, refund.ID)
	if f.refundFails {
		return "", apperr.ExternalFailureErr(ErrProviderDown, "refund payment %s", original.ID)
	}
	return "re_" + uuid.NewString(), nil
}

func (f *FakeProvider) Charges() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.charges)
}

func (f *FakeProvider) Refunds() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.refunds)
}
