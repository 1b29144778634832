package core

import (
	"auditcore/pkg/domain"
	"context"
	"fmt"
)

const (
	ruleStatusMonotonic        = "status_monotonic"
	ruleCompletionPrecondition = "completion_precondition"
)

// NewDefaultRulesEngine returns an engine with the audit lifecycle rules
// registered.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(StatusMonotonicRule())
	engine.Register(CompletionPreconditionRule())
	return engine
}

// StatusMonotonicRule blocks any write that moves a completed audit to
// another status.
func StatusMonotonicRule() Rule { return statusMonotonicRule{} }

type statusMonotonicRule struct{}

func (statusMonotonicRule) Name() string { return ruleStatusMonotonic }

func (statusMonotonicRule) Evaluate(_ context.Context, _ TransactionView, changes []Change) (Result, error) {
	res := Result{}
	for _, change := range changes {
		before, after, ok := auditTransition(change)
		if !ok {
			continue
		}
		if !after.Status.Valid() {
			res.Violations = append(res.Violations, Violation{
				Rule:     ruleStatusMonotonic,
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("audit %s is set to invalid status %q", after.ID, after.Status),
				Entity:   domain.EntityAudit,
				EntityID: after.ID,
			})
			continue
		}
		if before == nil || before.Status != StatusCompleted || after.Status == StatusCompleted {
			continue
		}
		res.Violations = append(res.Violations, Violation{
			Rule:     ruleStatusMonotonic,
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("cannot move audit %s from %s to %s", after.ID, before.Status, after.Status),
			Entity:   domain.EntityAudit,
			EntityID: after.ID,
		})
	}
	return res, nil
}

// CompletionPreconditionRule blocks completing an audit whose
// depressurization test has never been saved.
func CompletionPreconditionRule() Rule { return completionPreconditionRule{} }

type completionPreconditionRule struct{}

func (completionPreconditionRule) Name() string { return ruleCompletionPrecondition }

func (completionPreconditionRule) Evaluate(_ context.Context, _ TransactionView, changes []Change) (Result, error) {
	res := Result{}
	for _, change := range changes {
		before, after, ok := auditTransition(change)
		if !ok || after.Status != StatusCompleted {
			continue
		}
		if before != nil && before.Status == StatusCompleted {
			continue
		}
		if after.Saved(domain.SectionDepressurizationTest) {
			continue
		}
		res.Violations = append(res.Violations, Violation{
			Rule:     ruleCompletionPrecondition,
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("audit %s: %s", after.ID, domain.ErrFinalFormNotSaved),
			Entity:   domain.EntityAudit,
			EntityID: after.ID,
		})
	}
	return res, nil
}

// auditTransition extracts the before and after audit of a create or update
// change. before is nil for creations.
func auditTransition(change Change) (*Audit, Audit, bool) {
	if change.Entity != domain.EntityAudit || change.Action == domain.ActionDelete {
		return nil, Audit{}, false
	}
	after, ok := change.After.(Audit)
	if !ok {
		return nil, Audit{}, false
	}
	if before, ok := change.Before.(Audit); ok {
		return &before, after, true
	}
	return nil, after, true
}
