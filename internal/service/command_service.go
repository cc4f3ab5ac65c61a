package service

import (
	"context"

	"go.uber.org/zap"

	"mailtriage/internal/model"
	"mailtriage/pkg/logger"
)

// CommandResult is what the chat surface gets back: the confirmation to
// display and the resolved intent tag for diagnostics.
type CommandResult struct {
	ResponseText string           `json:"response_text"`
	Intent       model.IntentKind `json:"intent"`
}

// CommandService is the single conversational entry point: resolve first
// (outside any store lock — the classifier call may block on network I/O),
// then apply the intent against the stores.
type CommandService struct {
	resolver *Resolver
	executor *Executor
	logger   *zap.Logger
}

func NewCommandService(resolver *Resolver, executor *Executor, logger *zap.Logger) *CommandService {
	return &CommandService{
		resolver: resolver,
		executor: executor,
		logger:   logger,
	}
}

// Submit resolves and executes one free-text command. A caller abandoning
// the context mid-resolve gets an error back and nothing is applied.
func (s *CommandService) Submit(ctx context.Context, text string) (*CommandResult, error) {
	intent := s.resolver.Resolve(ctx, text)

	// Never apply an intent the caller already walked away from.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	confirmation, err := s.executor.Execute(ctx, intent)
	if err != nil {
		return nil, err
	}

	logger.WithTrace(ctx, s.logger).Info("command executed",
		zap.String("intent", string(intent.Kind)),
	)
	return &CommandResult{
		ResponseText: confirmation,
		Intent:       intent.Kind,
	}, nil
}
