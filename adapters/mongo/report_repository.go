package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lucerovega/mirada/server/domain/entities"
	"github.com/lucerovega/mirada/server/domain/repositories"
)

// ReportRepository persists analysis reports in MongoDB.
type ReportRepository struct {
	collection *mongo.Collection
}

// NewReportRepository creates a MongoDB-backed report repository.
func NewReportRepository(db *mongo.Database) repositories.ReportRepository {
	return &ReportRepository{
		collection: db.Collection("analysis_reports"),
	}
}

// Save upserts a finished report by its ID.
func (r *ReportRepository) Save(ctx context.Context, report *entities.AnalysisReport) error {
	if report == nil {
		return errors.New("report cannot be nil")
	}
	if report.ID == "" {
		return errors.New("report has no ID")
	}
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": report.ID},
		report,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetByID fetches one report.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*entities.AnalysisReport, error) {
	var report entities.AnalysisReport
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("report %q not found", id)
		}
		return nil, fmt.Errorf("failed to fetch report: %w", err)
	}
	return &report, nil
}

// ListByChild returns a child's reports, newest first.
func (r *ReportRepository) ListByChild(ctx context.Context, childID string) ([]*entities.AnalysisReport, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"child_id": childID},
		options.Find().SetSort(bson.M{"generated_at": -1}))
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer cursor.Close(ctx)

	var reports []*entities.AnalysisReport
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}
	return reports, nil
}
