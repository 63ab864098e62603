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
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already registered")
)

type MongoUserService struct {
	col *mongo.Collection
}

func NewMongoUserService(ctx context.Context, db *mongo.Database) *MongoUserService {
	col := db.Collection("users")

	// Best-effort indexes.
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})

	return &MongoUserService{col: col}
}

// Create inserts a new unverified account. Uniqueness is pre-checked so the
// caller can tell a taken email from a taken username; the unique indexes
// stay as the real guarantee under races.
func (s *MongoUserService) Create(ctx context.Context, user *models.User) (*models.User, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	if err := s.col.FindOne(ctx, bson.M{"email": user.Email}).Err(); err == nil {
		return nil, ErrEmailTaken
	} else if err != mongo.ErrNoDocuments {
		return nil, err
	}
	if err := s.col.FindOne(ctx, bson.M{"username": user.Username}).Err(); err == nil {
		return nil, ErrUsernameTaken
	} else if err != mongo.ErrNoDocuments {
		return nil, err
	}

	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.IsVerified = false
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := s.col.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

func (s *MongoUserService) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var user models.User
	if err := s.col.FindOne(ctx, filter).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *MongoUserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoUserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *MongoUserService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoUserService) MarkVerified(ctx context.Context, email string) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	res, err := s.col.UpdateOne(ctx, bson.M{"email": email}, bson.M{
		"$set": bson.M{"isVerified": true, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *MongoUserService) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	res, err := s.col.UpdateOne(ctx, bson.M{"email": email}, bson.M{
		"$set": bson.M{"password": passwordHash, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
