package pdfjob

import (
	"context"

	pdfcmd "github.com/goliatone/go-pdfgen/command"
	"github.com/goliatone/go-pdfgen/pdfgen"
)

// NewBatchExecutor builds a BatchExecutor that runs generations synchronously.
func NewBatchExecutor(task *GenerateTask, builder *MessageBuilder) pdfcmd.BatchExecutor {
	return pdfcmd.BatchExecutorFunc(func(ctx context.Context, actor pdfgen.Actor, req pdfgen.GenerateRequest) (pdfgen.GenerationRecord, error) {
		if task == nil {
			return pdfgen.GenerationRecord{}, pdfgen.NewError(pdfgen.KindInternal, "generate task is nil", nil)
		}
		if builder == nil {
			return pdfgen.GenerationRecord{}, pdfgen.NewError(pdfgen.KindNotImpl, "message builder not configured", nil)
		}

		result, err := builder.Build(ctx, actor, req)
		if err != nil {
			return result.Record, err
		}
		if result.Reused {
			return result.Record, nil
		}
		if result.Message == nil {
			return result.Record, pdfgen.NewError(pdfgen.KindValidation, "execution message is required", nil)
		}

		if err := task.Execute(ctx, result.Message); err != nil {
			return result.Record, err
		}
		if result.Signature != "" {
			_ = builder.StoreIdempotency(ctx, result.Signature, result.Record.ID)
		}
		return result.Record, nil
	})
}
