package core

import (
	"auditcore/pkg/domain"
)

type (
	Audit                = domain.Audit
	Photo                = domain.Photo
	Patch                = domain.Patch
	Status               = domain.Status
	Category             = domain.Category
	Floor                = domain.Floor
	Result               = domain.Result
	Violation            = domain.Violation
	RulesEngine          = domain.RulesEngine
	Rule                 = domain.Rule
	Change               = domain.Change
	Transaction          = domain.Transaction
	TransactionView      = domain.TransactionView
	PersistentStore      = domain.PersistentStore
	RuleViolationError   = domain.RuleViolationError
	DepressurizationTest = domain.DepressurizationTest
)

const (
	StatusDraft      = domain.StatusDraft
	StatusInProgress = domain.StatusInProgress
	StatusCompleted  = domain.StatusCompleted
)
