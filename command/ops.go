package command

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-pdfgen/pdfgen"
)

// BatchRequest describes a request for backfill/scheduled generations.
type BatchRequest struct {
	Actor   pdfgen.Actor           `json:"actor"`
	Request pdfgen.GenerateRequest `json:"request"`
}

// BatchLoader loads batch requests from a source.
type BatchLoader func(ctx context.Context) ([]BatchRequest, error)

// BatchRequester enqueues generation requests for asynchronous execution.
type BatchRequester interface {
	RequestGeneration(ctx context.Context, actor pdfgen.Actor, req pdfgen.GenerateRequest) (pdfgen.GenerationRecord, error)
}

// BatchExecutor runs batch generations synchronously.
type BatchExecutor interface {
	ExecuteGeneration(ctx context.Context, actor pdfgen.Actor, req pdfgen.GenerateRequest) (pdfgen.GenerationRecord, error)
}

// BatchExecutorFunc adapts a function to a BatchExecutor.
type BatchExecutorFunc func(ctx context.Context, actor pdfgen.Actor, req pdfgen.GenerateRequest) (pdfgen.GenerationRecord, error)

func (f BatchExecutorFunc) ExecuteGeneration(ctx context.Context, actor pdfgen.Actor, req pdfgen.GenerateRequest) (pdfgen.GenerationRecord, error) {
	if f == nil {
		return pdfgen.GenerationRecord{}, errors.New("batch executor is required", errors.CategoryInternal).
			WithTextCode("BATCH_EXECUTOR_NIL")
	}
	return f(ctx, actor, req)
}

// BatchCommand wires CLI/Cron execution for batch generations.
type BatchCommand struct {
	requester  BatchRequester
	executor   BatchExecutor
	loader     BatchLoader
	cliConfig  gcmd.CLIConfig
	cronConfig gcmd.HandlerConfig
	limits     BatchLimits
	sleep      func(time.Duration)
}

// BatchOption customizes batch commands.
type BatchOption func(*BatchCommand)

// BatchLimits bounds batch execution throughput.
type BatchLimits struct {
	MaxRequests int
	MinInterval time.Duration
}

// WithBatchCLIConfig overrides CLI configuration.
func WithBatchCLIConfig(cfg gcmd.CLIConfig) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.cliConfig = cfg
	}
}

// WithBatchCronConfig overrides cron configuration.
func WithBatchCronConfig(cfg gcmd.HandlerConfig) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.cronConfig = cfg
	}
}

// WithBatchLimits overrides batch execution limits.
func WithBatchLimits(limits BatchLimits) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.limits = limits
	}
}

// WithBatchExecutor sets the synchronous executor for batch generations.
func WithBatchExecutor(executor BatchExecutor) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.executor = executor
	}
}

// NewBackfillCommand creates a backfill CLI/Cron command.
func NewBackfillCommand(requester BatchRequester, loader BatchLoader, opts ...BatchOption) *BatchCommand {
	cmd := &BatchCommand{
		requester: requester,
		loader:    loader,
		cliConfig: gcmd.CLIConfig{
			Path:        []string{"pdfs-backfill"},
			Description: "Run PDF generation backfills",
			Group:       "pdfs",
		},
		cronConfig: gcmd.HandlerConfig{Expression: "0 0 * * *"},
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cmd)
		}
	}
	return cmd
}

// NewScheduledGenerationsCommand creates a scheduled generations CLI/Cron command.
func NewScheduledGenerationsCommand(requester BatchRequester, loader BatchLoader, opts ...BatchOption) *BatchCommand {
	cmd := &BatchCommand{
		requester: requester,
		loader:    loader,
		cliConfig: gcmd.CLIConfig{
			Path:        []string{"pdfs-scheduled"},
			Description: "Run scheduled PDF generations",
			Group:       "pdfs",
		},
		cronConfig: gcmd.HandlerConfig{Expression: "0 * * * *"},
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cmd)
		}
	}
	return cmd
}

// CronHandler executes scheduled batch generations.
func (c *BatchCommand) CronHandler() func() error {
	return func() error {
		_, err := c.run(context.Background(), "")
		return err
	}
}

// CronOptions returns cron configuration.
func (c *BatchCommand) CronOptions() gcmd.HandlerConfig {
	if c == nil {
		return gcmd.HandlerConfig{}
	}
	return c.cronConfig
}

// CLIHandler exposes the CLI handler.
func (c *BatchCommand) CLIHandler() any {
	return &batchCLI{cmd: c}
}

// CLIOptions returns CLI configuration.
func (c *BatchCommand) CLIOptions() gcmd.CLIConfig {
	if c == nil {
		return gcmd.CLIConfig{}
	}
	return c.cliConfig
}

func (c *BatchCommand) run(ctx context.Context, from string) (int, error) {
	if c == nil {
		return 0, errors.New("batch command is nil", errors.CategoryInternal).
			WithTextCode("BATCH_CMD_NIL")
	}
	if c.requester == nil && c.executor == nil {
		return 0, errors.New("batch requester or executor is required", errors.CategoryValidation).
			WithTextCode("REQUESTER_REQUIRED")
	}

	requests, err := c.loadRequests(ctx, from)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, item := range requests {
		if c.limits.MaxRequests > 0 && count >= c.limits.MaxRequests {
			break
		}
		req := item.Request
		req.OutputFolder = ""
		if c.executor != nil {
			if _, err := c.executor.ExecuteGeneration(ctx, item.Actor, req); err != nil {
				return count, err
			}
		} else if _, err := c.requester.RequestGeneration(ctx, item.Actor, req); err != nil {
			return count, err
		}
		count++
		if c.limits.MinInterval > 0 && c.sleep != nil {
			c.sleep(c.limits.MinInterval)
		}
	}
	return count, nil
}

func (c *BatchCommand) loadRequests(ctx context.Context, from string) ([]BatchRequest, error) {
	if strings.TrimSpace(from) != "" {
		return loadBatchRequestsFromFile(from)
	}
	if c.loader == nil {
		return nil, errors.New("batch loader not configured", errors.CategoryValidation).
			WithTextCode("LOADER_REQUIRED")
	}
	return c.loader(ctx)
}

type batchCLI struct {
	cmd  *BatchCommand
	From string `kong:"name='from',help='Path to JSON batch generation requests'"`
}

func (c *batchCLI) Run() error {
	if c == nil || c.cmd == nil {
		return errors.New("batch command is required", errors.CategoryInternal).
			WithTextCode("BATCH_CMD_NIL")
	}
	_, err := c.cmd.run(context.Background(), c.From)
	return err
}

func loadBatchRequestsFromFile(path string) ([]BatchRequest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryExternal, "read batch file failed").
			WithTextCode("BATCH_FILE_READ")
	}

	var requests []BatchRequest
	if err := json.Unmarshal(content, &requests); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "batch file invalid JSON").
			WithTextCode("BATCH_FILE_INVALID")
	}
	return requests, nil
}

// TemplateBatch builds batch requests for a list of templates.
type TemplateBatch struct {
	Actor     pdfgen.Actor
	Templates []string
	Request   pdfgen.GenerateRequest
}

// BuildTemplateBatchRequests returns a generation request for each template.
func BuildTemplateBatchRequests(batch TemplateBatch) []BatchRequest {
	if len(batch.Templates) == 0 {
		return nil
	}
	req := batch.Request

	requests := make([]BatchRequest, 0, len(batch.Templates))
	for _, template := range batch.Templates {
		if strings.TrimSpace(template) == "" {
			continue
		}
		name := req.Name
		if name == "" {
			name = template
		}
		item := BatchRequest{
			Actor: batch.Actor,
			Request: pdfgen.GenerateRequest{
				Name:            name,
				TemplateName:    template,
				TemplateContext: req.TemplateContext,
				Tags:            req.Tags,
				Locale:          req.Locale,
				Options:         req.Options,
			},
		}
		requests = append(requests, item)
	}
	return requests
}

// CLIHandler exposes cleanup via CLI.
func (h *CleanupGenerationsHandler) CLIHandler() any {
	return &cleanupCLI{handler: h}
}

// CLIOptions describes cleanup CLI metadata.
func (h *CleanupGenerationsHandler) CLIOptions() gcmd.CLIConfig {
	return gcmd.CLIConfig{
		Path:        []string{"pdfs-cleanup"},
		Description: "Remove expired PDF artifacts",
		Group:       "pdfs",
	}
}

type cleanupCLI struct {
	handler *CleanupGenerationsHandler
}

func (c *cleanupCLI) Run() error {
	if c == nil || c.handler == nil {
		return errors.New("cleanup handler is required", errors.CategoryInternal).
			WithTextCode("CLEANUP_HANDLER_REQUIRED")
	}
	return c.handler.Execute(context.Background(), CleanupGenerations{})
}
