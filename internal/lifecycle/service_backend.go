package lifecycle

import (
	"auditcore/internal/core"
	"auditcore/pkg/domain"
	"context"
)

// ServiceBackend saves through an in-process audit service.
type ServiceBackend struct {
	Service *core.Service
}

// GetStatus implements Backend.
func (b ServiceBackend) GetStatus(ctx context.Context, auditID string) (domain.Status, error) {
	a, err := b.Service.GetAudit(ctx, auditID)
	if err != nil {
		return "", err
	}
	return a.Status, nil
}

// Save implements Backend.
func (b ServiceBackend) Save(ctx context.Context, auditID string, patch domain.Patch, status domain.Status) (domain.Audit, error) {
	a, _, err := b.Service.SaveAudit(ctx, auditID, patch, status)
	return a, err
}
