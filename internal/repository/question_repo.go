package repository

import (
	"context"

	"digitalmaturity/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QuestionRepo stores the level-1 questionnaire
type QuestionRepo interface {
	List(ctx context.Context) ([]model.Question, error)
	Count(ctx context.Context) (int64, error)
	ReplaceAll(ctx context.Context, questions []model.Question) error
}

type questionRepo struct {
	collection *mongo.Collection
}

// NewQuestionRepo creates a new question repository
func NewQuestionRepo(db *mongo.Database) QuestionRepo {
	return &questionRepo{
		collection: db.Collection("questions"),
	}
}

func (r *questionRepo) List(ctx context.Context) ([]model.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []model.Question
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questionRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// ReplaceAll swaps the catalog for the given questions
func (r *questionRepo) ReplaceAll(ctx context.Context, questions []model.Question) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	if len(questions) == 0 {
		return nil
	}
	docs := make([]interface{}, len(questions))
	for i := range questions {
		docs[i] = questions[i]
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}
