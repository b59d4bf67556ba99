package temporal

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

// Config holds Temporal client configuration
type Config struct {
	HostPort  string
	Namespace string
	Identity  string
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HostPort:  "localhost:7233",
		Namespace: "default",
		Identity:  "freight-worker",
	}
}

// TaskQueues contains all freight-service Temporal task queue names
var TaskQueues = struct {
	OrderCreation string
}{
	OrderCreation: "order-creation-queue",
}

// WorkflowNames contains all freight-service workflow names
var WorkflowNames = struct {
	OrderCreation string
}{
	OrderCreation: "OrderCreationWorkflow",
}

// ActivityNames contains all activity names registered on the order-creation queue
var ActivityNames = struct {
	ResolveDestination string
	ResolveOrigin      string
	ResolveDistance    string
	CreateAddress      string
	CreateProducts     string
	CreateOrder        string
	CreateOrderItems   string
	CreateDelivery     string
	RecordSagaState    string
	PublishOrderEvent  string
}{
	ResolveDestination: "ResolveDestination",
	ResolveOrigin:      "ResolveOrigin",
	ResolveDistance:    "ResolveDistance",
	CreateAddress:      "CreateAddress",
	CreateProducts:     "CreateProducts",
	CreateOrder:        "CreateOrder",
	CreateOrderItems:   "CreateOrderItems",
	CreateDelivery:     "CreateDelivery",
	RecordSagaState:    "RecordSagaState",
	PublishOrderEvent:  "PublishOrderEvent",
}

// Client wraps the Temporal client with freight-specific functionality
type Client struct {
	client client.Client
	config *Config
}

// NewClient creates a new Temporal client
func NewClient(ctx context.Context, config *Config) (*Client, error) {
	options := client.Options{
		HostPort:  config.HostPort,
		Namespace: config.Namespace,
		Identity:  config.Identity,
	}

	c, err := client.Dial(options)
	if err != nil {
		return nil, fmt.Errorf("failed to create Temporal client: %w", err)
	}

	return &Client{
		client: c,
		config: config,
	}, nil
}

// Client returns the underlying Temporal client
func (c *Client) Client() client.Client {
	return c.client
}

// Close closes the client connection
func (c *Client) Close() {
	c.client.Close()
}

// StartWorkflow starts a workflow execution
func (c *Client) StartWorkflow(
	ctx context.Context,
	workflowID string,
	taskQueue string,
	workflowName string,
	args ...interface{},
) (client.WorkflowRun, error) {
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: taskQueue,
	}

	return c.client.ExecuteWorkflow(ctx, options, workflowName, args...)
}

// StartWorkflowWithOptions starts a workflow with custom options
func (c *Client) StartWorkflowWithOptions(
	ctx context.Context,
	options client.StartWorkflowOptions,
	workflowName string,
	args ...interface{},
) (client.WorkflowRun, error) {
	return c.client.ExecuteWorkflow(ctx, options, workflowName, args...)
}

// GetWorkflow returns a handle for an existing workflow run
func (c *Client) GetWorkflow(ctx context.Context, workflowID string, runID string) client.WorkflowRun {
	return c.client.GetWorkflow(ctx, workflowID, runID)
}

// CancelWorkflow cancels a running workflow
func (c *Client) CancelWorkflow(ctx context.Context, workflowID string, runID string) error {
	return c.client.CancelWorkflow(ctx, workflowID, runID)
}

// TerminateWorkflow terminates a running workflow
func (c *Client) TerminateWorkflow(ctx context.Context, workflowID string, runID string, reason string) error {
	return c.client.TerminateWorkflow(ctx, workflowID, runID, reason)
}

// WorkerOptions contains options for creating a worker
type WorkerOptions struct {
	TaskQueue                    string
	MaxConcurrentActivityPollers int
	MaxConcurrentWorkflowPollers int
	MaxConcurrentActivities      int
	MaxConcurrentWorkflows       int
}

// DefaultWorkerOptions returns default worker options
func DefaultWorkerOptions(taskQueue string) *WorkerOptions {
	return &WorkerOptions{
		TaskQueue:                    taskQueue,
		MaxConcurrentActivityPollers: 4,
		MaxConcurrentWorkflowPollers: 4,
		MaxConcurrentActivities:      100,
		MaxConcurrentWorkflows:       100,
	}
}

// NewWorker creates a new Temporal worker
func (c *Client) NewWorker(opts *WorkerOptions) worker.Worker {
	workerOpts := worker.Options{
		MaxConcurrentActivityExecutionSize:     opts.MaxConcurrentActivities,
		MaxConcurrentWorkflowTaskExecutionSize: opts.MaxConcurrentWorkflows,
		MaxConcurrentActivityTaskPollers:       opts.MaxConcurrentActivityPollers,
		MaxConcurrentWorkflowTaskPollers:       opts.MaxConcurrentWorkflowPollers,
	}

	return worker.New(c.client, opts.TaskQueue, workerOpts)
}
