package repository

import (
	"context"
	"errors"
	"time"

	"digitalmaturity/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateAccessCode is returned when an access code is already taken
var ErrDuplicateAccessCode = errors.New("access code already in use")

// OrganizationRepo handles MongoDB operations for organizations
type OrganizationRepo interface {
	Create(ctx context.Context, org *model.Organization) error
	GetByID(ctx context.Context, id string) (*model.Organization, error)
	GetByAccessCode(ctx context.Context, code string) (*model.Organization, error)
	List(ctx context.Context) ([]*model.Organization, error)
	UpdateProfile(ctx context.Context, org *model.Organization) error
	UpdatePassword(ctx context.Context, id, hashedPassword string) error
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type organizationRepo struct {
	collection *mongo.Collection
}

// NewOrganizationRepo creates a new organization repository
func NewOrganizationRepo(db *mongo.Database) OrganizationRepo {
	return &organizationRepo{
		collection: db.Collection("organizations"),
	}
}

func (r *organizationRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "accessCode", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *organizationRepo) Create(ctx context.Context, org *model.Organization) error {
	if org.ID == "" {
		org.ID = primitive.NewObjectID().Hex()
	}
	org.CreatedAt = time.Now().UTC()

	_, err := r.collection.InsertOne(ctx, org)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateAccessCode
	}
	return err
}

func (r *organizationRepo) GetByID(ctx context.Context, id string) (*model.Organization, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *organizationRepo) GetByAccessCode(ctx context.Context, code string) (*model.Organization, error) {
	return r.findOne(ctx, bson.M{"accessCode": code})
}

func (r *organizationRepo) findOne(ctx context.Context, filter bson.M) (*model.Organization, error) {
	var org model.Organization
	err := r.collection.FindOne(ctx, filter).Decode(&org)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepo) List(ctx context.Context) ([]*model.Organization, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orgs []*model.Organization
	if err := cursor.All(ctx, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r *organizationRepo) UpdateProfile(ctx context.Context, org *model.Organization) error {
	update := bson.M{"$set": bson.M{
		"sector":     org.Sector,
		"size":       org.Size,
		"fiscalCode": org.FiscalCode,
		"phone":      org.Phone,
		"adminName":  org.AdminName,
	}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": org.ID}, update)
	return err
}

func (r *organizationRepo) UpdatePassword(ctx context.Context, id, hashedPassword string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"hashedPassword": hashedPassword}})
	return err
}

func (r *organizationRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *organizationRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
