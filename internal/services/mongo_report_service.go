package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Kohanchuk66/anime-back/internal/models"
)

var (
	ErrReportNotFound  = errors.New("report not found")
	ErrDuplicateReport = errors.New("target already reported by this user")
)

type MongoReportService struct {
	col *mongo.Collection
}

func NewMongoReportService(ctx context.Context, db *mongo.Database) *MongoReportService {
	col := db.Collection("reports")

	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "reporter", Value: 1},
				{Key: "target.kind", Value: 1},
				{Key: "target.id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "reporter", Value: 1}}},
	})

	return &MongoReportService{col: col}
}

// Create files a report. A reporter can report a given target once; repeats
// are rejected both by the pre-check and the unique index.
func (s *MongoReportService) Create(ctx context.Context, report *models.Report) (*models.Report, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	err := s.col.FindOne(ctx, bson.M{
		"reporter":    report.ReporterID,
		"target.kind": report.Target.Kind,
		"target.id":   report.Target.ID,
	}).Err()
	if err == nil {
		return nil, ErrDuplicateReport
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	now := time.Now().UTC()
	report.ID = primitive.NewObjectID()
	report.Status = models.ReportStatusPending
	report.CreatedAt = now
	report.UpdatedAt = now

	if _, err := s.col.InsertOne(ctx, report); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateReport
		}
		return nil, err
	}
	return report, nil
}

func (s *MongoReportService) List(ctx context.Context, opts models.ReportListOptions) ([]models.Report, int64, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	query := bson.M{}
	if opts.Status != "" {
		query["status"] = opts.Status
	}
	if opts.TargetKind != "" {
		query["target.kind"] = opts.TargetKind
	}
	if opts.Reason != "" {
		query["reason"] = opts.Reason
	}

	sortBy := opts.SortBy
	switch sortBy {
	case "createdAt", "updatedAt", "status", "reason":
	default:
		sortBy = "createdAt"
	}
	dir := -1
	if opts.SortOrder == "asc" {
		dir = 1
	}

	page, limit := normalizePaging(opts.Page, opts.Limit, 20)

	cur, err := s.col.Find(ctx, query, options.Find().
		SetSort(bson.D{{Key: sortBy, Value: dir}}).
		SetSkip((page-1)*limit).
		SetLimit(limit))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	reports := []models.Report{}
	if err := cur.All(ctx, &reports); err != nil {
		return nil, 0, err
	}

	total, err := s.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (s *MongoReportService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var report models.Report
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&report); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

// Update applies a moderator's review. Moving off pending stamps the
// reviewing moderator and time.
func (s *MongoReportService) Update(ctx context.Context, id primitive.ObjectID, req *models.ReportUpdateRequest, reviewer primitive.ObjectID) (*models.Report, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	now := time.Now().UTC()
	set := bson.M{"updatedAt": now}
	if req.Status != nil {
		set["status"] = *req.Status
		if *req.Status != models.ReportStatusPending {
			set["reviewedBy"] = reviewer
			set["reviewedAt"] = now
		}
	}
	if req.Resolution != nil {
		set["resolution"] = *req.Resolution
	}
	if req.ActionTaken != nil {
		set["actionTaken"] = *req.ActionTaken
	}

	after := options.After
	var report models.Report
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&report)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (s *MongoReportService) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (s *MongoReportService) groupCount(ctx context.Context, field string) (map[string]int64, error) {
	cur, err := s.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]int64{}
	for cur.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.Count
	}
	return out, cur.Err()
}

func (s *MongoReportService) Stats(ctx context.Context) (*models.ReportStats, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	byStatus, err := s.groupCount(ctx, "$status")
	if err != nil {
		return nil, err
	}
	byReason, err := s.groupCount(ctx, "$reason")
	if err != nil {
		return nil, err
	}
	byKind, err := s.groupCount(ctx, "$target.kind")
	if err != nil {
		return nil, err
	}

	total, err := s.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	pending, err := s.col.CountDocuments(ctx, bson.M{"status": models.ReportStatusPending})
	if err != nil {
		return nil, err
	}

	return &models.ReportStats{
		Total:           total,
		Pending:         pending,
		StatusBreakdown: byStatus,
		ReasonBreakdown: byReason,
		KindBreakdown:   byKind,
	}, nil
}
