// Package auditlog persists audit events. The table is append-only: no
// update or delete operation exists anywhere in this core.
package auditlog

import (
	"context"

	"github.com/auravita/privacykit/internal/audit"
)

type Repository interface {
	Insert(ctx context.Context, event *audit.Event) error
}
