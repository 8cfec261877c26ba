// Package flowable mirrors workflow state onto a Flowable BPMN engine over
// its REST API. The engine is a downstream visualization mirror, never the
// system of record: callers treat every signal as best-effort.
package flowable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/docflow-labs/docflow/internal/core/domain"
	"github.com/docflow-labs/docflow/internal/infrastructure/resilience"
)

const defaultProcessKey = "process"

type Config struct {
	BaseURL            string
	Username           string
	Password           string
	ProcessKey         string
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

type Client struct {
	restEndpoint string
	username     string
	password     string
	processKey   string
	httpClient   *http.Client
	executor     *resilience.Executor
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	processKey := cfg.ProcessKey
	if processKey == "" {
		processKey = defaultProcessKey
	}
	return &Client{
		restEndpoint: strings.TrimRight(cfg.BaseURL, "/") + "/flowable-task/process-api",
		username:     cfg.Username,
		password:     cfg.Password,
		processKey:   processKey,
		httpClient:   &http.Client{Timeout: timeout},
		executor:     cfg.ResilienceExecutor,
	}
}

type processVariable struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// StartInstance starts a process instance correlated 1:1 with the
// document's workflow run and returns the engine's handle for it.
func (c *Client) StartInstance(ctx context.Context, documentID, filename string, amount float64) (string, error) {
	request := map[string]any{
		"processDefinitionKey": c.processKey,
		"variables": []processVariable{
			{Name: "documentId", Value: documentID},
			{Name: "originalFilename", Value: filename},
			{Name: "amount", Value: amount},
			{Name: "startTime", Value: time.Now().UTC().Format(time.RFC3339)},
		},
	}

	var response struct {
		ID string `json:"id"`
	}
	err := c.execute(ctx, "flowable.start_instance", func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/runtime/process-instances", request, &response, "start instance")
	})
	if err != nil {
		return "", err
	}
	return response.ID, nil
}

func (c *Client) SignalCompletion(ctx context.Context, instanceID string, result domain.Outcome) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal completion result: %w", err)
	}
	variables := []processVariable{
		{Name: "completed", Value: true},
		{Name: "result", Value: string(payload)},
	}
	return c.signal(ctx, "flowable.signal_completion", instanceID, variables, "signal completion")
}

func (c *Client) SignalError(ctx context.Context, instanceID, message string) error {
	variables := []processVariable{
		{Name: "error", Value: true},
		{Name: "errorMessage", Value: message},
	}
	return c.signal(ctx, "flowable.signal_error", instanceID, variables, "signal error")
}

func (c *Client) signal(ctx context.Context, operation, instanceID string, variables []processVariable, label string) error {
	path := fmt.Sprintf("/runtime/process-instances/%s/variables", instanceID)
	return c.execute(ctx, operation, func(callCtx context.Context) error {
		return c.postJSON(callCtx, path, variables, nil, label)
	})
}

func (c *Client) execute(ctx context.Context, operation string, call func(context.Context) error) error {
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, call, classifyEngineError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}
