package application

import (
	"context"

	"github.com/google/uuid"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"github.com/logistics-platform/freight-service/internal/domain"
	"github.com/logistics-platform/freight-service/internal/workflows"
	"github.com/logistics-platform/freight-service/pkg/errors"
	"github.com/logistics-platform/freight-service/pkg/logging"
	"github.com/logistics-platform/freight-service/pkg/temporal"
)

// WorkflowStarter starts and looks up workflow executions.
type WorkflowStarter interface {
	StartWorkflowWithOptions(ctx context.Context, options client.StartWorkflowOptions, workflowName string, args ...interface{}) (client.WorkflowRun, error)
	GetWorkflow(ctx context.Context, workflowID string, runID string) client.WorkflowRun
}

// WorkflowRecorder records workflow metrics.
type WorkflowRecorder interface {
	RecordWorkflowStarted(workflowType string)
}

// OrderService submits order attempts and reports their progress
type OrderService struct {
	starter  WorkflowStarter
	journal  domain.JournalRepository
	tariff   domain.Tariff
	recorder WorkflowRecorder
	logger   *logging.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	starter WorkflowStarter,
	journal domain.JournalRepository,
	tariff domain.Tariff,
	recorder WorkflowRecorder,
	logger *logging.Logger,
) *OrderService {
	return &OrderService{
		starter:  starter,
		journal:  journal,
		tariff:   tariff,
		recorder: recorder,
		logger:   logger,
	}
}

// SubmitOrder starts the order creation workflow. The correlation ID doubles
// as the workflow ID: resubmitting after a failure reuses the ID and the saga
// resumes from its journal, while a still-running or completed attempt with
// the same ID is rejected instead of duplicated.
func (s *OrderService) SubmitOrder(ctx context.Context, cmd SubmitOrderCommand) (*OrderSubmissionDTO, error) {
	correlationID := cmd.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	existing, err := s.journal.FindByCorrelationID(ctx, correlationID)
	if err != nil {
		return nil, errors.ErrInternal("failed to load order attempt").Wrap(err)
	}
	if existing != nil && existing.Status == domain.SagaStatusDone {
		return nil, errors.ErrConflict("order already created for this correlation ID").
			WithDetail("correlationId", correlationID)
	}

	input := workflows.OrderCreationInput{
		CorrelationID: correlationID,
		StoreID:       cmd.StoreID,
		Items:         cmd.Items,
		Destination: workflows.DestinationInput{
			Address:      cmd.Destination.Address,
			City:         cmd.Destination.City,
			ContactName:  cmd.Destination.ContactName,
			ContactPhone: cmd.Destination.ContactPhone,
			ContactEmail: cmd.Destination.ContactEmail,
			Country:      cmd.Destination.Country,
			Coordinates:  cmd.Destination.Coordinates,
		},
		ServiceType:     cmd.ServiceType,
		TransportMode:   cmd.TransportMode,
		CreatedByUserID: cmd.CreatedByUserID,
		CategoryID:      cmd.CategoryID,
		StatusID:        cmd.StatusID,
		Description:     cmd.Description,
		Notes:           cmd.Notes,
		Tariff:          s.tariff,
	}

	options := client.StartWorkflowOptions{
		ID:                    correlationID,
		TaskQueue:             temporal.TaskQueues.OrderCreation,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}

	run, err := s.starter.StartWorkflowWithOptions(ctx, options, temporal.WorkflowNames.OrderCreation, input)
	if err != nil {
		s.logger.WithError(err).Error("Failed to start order workflow", "correlationId", correlationID)
		return nil, errors.ErrServiceUnavailable("order processing").Wrap(err)
	}

	if s.recorder != nil {
		s.recorder.RecordWorkflowStarted(temporal.WorkflowNames.OrderCreation)
	}

	s.logger.Info("Order submitted",
		"correlationId", correlationID,
		"workflowId", run.GetID(),
		"runId", run.GetRunID(),
		"storeId", cmd.StoreID,
	)

	return &OrderSubmissionDTO{
		CorrelationID: correlationID,
		WorkflowID:    run.GetID(),
		RunID:         run.GetRunID(),
		Status:        "submitted",
	}, nil
}

// WaitForResult blocks until the workflow for the attempt finishes and
// returns its result.
func (s *OrderService) WaitForResult(ctx context.Context, correlationID string) (*workflows.OrderCreationResult, error) {
	run := s.starter.GetWorkflow(ctx, correlationID, "")

	var result workflows.OrderCreationResult
	if err := run.Get(ctx, &result); err != nil {
		s.logger.WithError(err).Error("Failed to get order workflow result", "correlationId", correlationID)
		return nil, errors.ErrInternal("failed to get order result").Wrap(err)
	}
	return &result, nil
}

// GetOrderStatus reports the journaled state of an order attempt.
func (s *OrderService) GetOrderStatus(ctx context.Context, query GetOrderStatusQuery) (*OrderStatusDTO, error) {
	journal, err := s.journal.FindByCorrelationID(ctx, query.CorrelationID)
	if err != nil {
		return nil, errors.ErrInternal("failed to load order attempt").Wrap(err)
	}
	if journal == nil {
		return nil, errors.ErrNotFoundWithID("order attempt", query.CorrelationID)
	}

	return ToOrderStatusDTO(journal), nil
}
