package repositories

import (
	"context"

	"github.com/lucerovega/mirada/server/domain/entities"
)

// ReportRepository persists finished analysis reports. The core treats the
// payload as opaque beyond the entities package; schema belongs to the
// persistence collaborator.
type ReportRepository interface {
	Save(ctx context.Context, report *entities.AnalysisReport) error
	GetByID(ctx context.Context, id string) (*entities.AnalysisReport, error)
	ListByChild(ctx context.Context, childID string) ([]*entities.AnalysisReport, error)
}
