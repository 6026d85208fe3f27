package repository

import (
	"context"
	"time"

	"digitalmaturity/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AssessmentRepo handles MongoDB operations for assessments
type AssessmentRepo interface {
	Create(ctx context.Context, a *model.Assessment) error
	GetByID(ctx context.Context, id string) (*model.Assessment, error)
	ListByOrganization(ctx context.Context, orgID string) ([]*model.Assessment, error)

	// SaveProgress replaces the stored answers of an in-progress assessment.
	// With seq > 0 the write only applies when seq is newer than the stored
	// one; with seq <= 0 it always applies. Reports whether it was applied.
	SaveProgress(ctx context.Context, id string, answers []model.Answer, seq int64) (bool, error)
	// Complete stores the results of an in-progress assessment. Reports
	// false when the assessment was no longer in progress.
	Complete(ctx context.Context, id string, answers []model.Answer, result *model.AssessmentResult) (bool, error)
	UpdateResults(ctx context.Context, id string, result *model.AssessmentResult) error

	Delete(ctx context.Context, id string) (bool, error)
	DeleteByOrganization(ctx context.Context, orgID string) (int64, error)
	CountCompleted(ctx context.Context, orgID string, level int) (int64, error)
	Stats(ctx context.Context) (*model.Stats, error)
	EnsureIndexes(ctx context.Context) error
}

type assessmentRepo struct {
	collection *mongo.Collection
}

// NewAssessmentRepo creates a new assessment repository
func NewAssessmentRepo(db *mongo.Database) AssessmentRepo {
	return &assessmentRepo{
		collection: db.Collection("assessments"),
	}
}

func (r *assessmentRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "organizationId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

func (r *assessmentRepo) Create(ctx context.Context, a *model.Assessment) error {
	if a.ID == "" {
		a.ID = primitive.NewObjectID().Hex()
	}
	a.CreatedAt = time.Now().UTC()
	if a.Responses.Answers == nil {
		a.Responses.Answers = []model.Answer{}
	}
	_, err := r.collection.InsertOne(ctx, a)
	return err
}

func (r *assessmentRepo) GetByID(ctx context.Context, id string) (*model.Assessment, error) {
	var a model.Assessment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assessmentRepo) ListByOrganization(ctx context.Context, orgID string) ([]*model.Assessment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"organizationId": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*model.Assessment
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assessmentRepo) SaveProgress(ctx context.Context, id string, answers []model.Answer, seq int64) (bool, error) {
	if answers == nil {
		answers = []model.Answer{}
	}
	filter := bson.M{"_id": id, "status": model.StatusInProgress}
	var update bson.M
	if seq > 0 {
		filter["progressSeq"] = bson.M{"$lt": seq}
		update = bson.M{"$set": bson.M{"responses.answers": answers, "progressSeq": seq}}
	} else {
		update = bson.M{
			"$set": bson.M{"responses.answers": answers},
			"$inc": bson.M{"progressSeq": 1},
		}
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *assessmentRepo) Complete(ctx context.Context, id string, answers []model.Answer, result *model.AssessmentResult) (bool, error) {
	if answers == nil {
		answers = []model.Answer{}
	}
	now := time.Now().UTC()
	set := resultFields(result)
	set["status"] = model.StatusCompleted
	set["responses.answers"] = answers
	set["completedAt"] = now

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": model.StatusInProgress},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *assessmentRepo) UpdateResults(ctx context.Context, id string, result *model.AssessmentResult) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": resultFields(result)})
	return err
}

func resultFields(result *model.AssessmentResult) bson.M {
	return bson.M{
		"categories":    result.Categories,
		"scores":        result.Scores,
		"maturityLevel": result.MaturityLevel,
		"maturityLabel": result.MaturityLabel,
		"gapAnalysis":   result.GapAnalysis,
		"report":        result.Report,
	}
}

func (r *assessmentRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *assessmentRepo) DeleteByOrganization(ctx context.Context, orgID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"organizationId": orgID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *assessmentRepo) CountCompleted(ctx context.Context, orgID string, level int) (int64, error) {
	filter := bson.M{"organizationId": orgID, "status": model.StatusCompleted}
	if level == model.Level1 {
		// assessments created before levels existed have no level field
		filter["level"] = bson.M{"$in": bson.A{model.Level1, nil}}
	} else {
		filter["level"] = level
	}
	return r.collection.CountDocuments(ctx, filter)
}

func (r *assessmentRepo) Stats(ctx context.Context) (*model.Stats, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": model.StatusCompleted}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"count": bson.M{"$sum": 1},
			"avg":   bson.M{"$avg": bson.M{"$ifNull": bson.A{"$maturityLevel", 0}}},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Count int64   `bson:"count"`
		Avg   float64 `bson:"avg"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	stats := &model.Stats{TotalAssessments: total}
	if len(rows) > 0 {
		stats.CompletedAssessments = rows[0].Count
		stats.AverageMaturityLevel = rows[0].Avg
	}
	stats.InProgressAssessments = total - stats.CompletedAssessments
	return stats, nil
}
