package router

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/aniketh-deriv/smith-pm/internal/logger"
)

// ApprovalState is the lifecycle of a side-effecting action requested by a
// handler. Calls start pending and resolve to approved or denied through a
// real Approver; there is no always-true shortcut.
type ApprovalState string

const (
	ApprovalPending  ApprovalState = "pending"
	ApprovalApproved ApprovalState = "approved"
	ApprovalDenied   ApprovalState = "denied"
)

// PendingToolCall records one requested action and its approval state.
type PendingToolCall struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Arguments string        `json:"arguments"`
	State     ApprovalState `json:"state"`
}

// Approver decides whether a requested action may proceed.
type Approver interface {
	Approve(ctx context.Context, call PendingToolCall) (bool, error)
}

// AutoApprover approves every call. Wired only when auto_approve is set in
// config; without it calls stay pending for an external confirmation step.
type AutoApprover struct{}

func (AutoApprover) Approve(context.Context, PendingToolCall) (bool, error) {
	return true, nil
}

// resolveToolCalls converts model tool calls into approval-gated records.
// A nil approver leaves every call pending.
func resolveToolCalls(ctx context.Context, approver Approver, calls []schema.ToolCall) []PendingToolCall {
	if len(calls) == 0 {
		return nil
	}

	pending := make([]PendingToolCall, 0, len(calls))
	for _, call := range calls {
		record := PendingToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
			State:     ApprovalPending,
		}
		if approver != nil {
			approved, err := approver.Approve(ctx, record)
			switch {
			case err != nil:
				logger.Warn().Err(err).Str("tool", record.Name).Msg("approver failed, call stays pending")
			case approved:
				record.State = ApprovalApproved
			default:
				record.State = ApprovalDenied
			}
		}
		pending = append(pending, record)
	}
	return pending
}
