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
	ErrWatchlistNotFound = errors.New("watchlist not found")
	ErrDuplicateName     = errors.New("watchlist name already used")
	ErrEntryExists       = errors.New("anime already in watchlist")
	ErrEntryNotFound     = errors.New("anime not in watchlist")
)

type MongoWatchlistService struct {
	col *mongo.Collection
}

func NewMongoWatchlistService(ctx context.Context, db *mongo.Database) *MongoWatchlistService {
	col := db.Collection("watchlists")

	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "isPublic", Value: 1}, {Key: "updatedAt", Value: -1}}},
	})

	return &MongoWatchlistService{col: col}
}

func (s *MongoWatchlistService) ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Watchlist, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	cur, err := s.col.Find(ctx, bson.M{"user": owner},
		options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	lists := []models.Watchlist{}
	if err := cur.All(ctx, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func (s *MongoWatchlistService) ListPublic(ctx context.Context, opts models.WatchlistListOptions) ([]models.Watchlist, int64, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	query := bson.M{"isPublic": true}
	if opts.UserID != "" {
		owner, err := primitive.ObjectIDFromHex(opts.UserID)
		if err != nil {
			return nil, 0, ErrWatchlistNotFound
		}
		query["user"] = owner
	}
	if opts.Search != "" {
		re := primitive.Regex{Pattern: opts.Search, Options: "i"}
		query["$or"] = []bson.M{{"name": re}, {"description": re}}
	}

	page, limit := normalizePaging(opts.Page, opts.Limit, 20)

	cur, err := s.col.Find(ctx, query, options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetSkip((page-1)*limit).
		SetLimit(limit))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	lists := []models.Watchlist{}
	if err := cur.All(ctx, &lists); err != nil {
		return nil, 0, err
	}

	total, err := s.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return lists, total, nil
}

func (s *MongoWatchlistService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Watchlist, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var list models.Watchlist
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&list); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrWatchlistNotFound
		}
		return nil, err
	}
	return &list, nil
}

func (s *MongoWatchlistService) Create(ctx context.Context, owner primitive.ObjectID, ownerName string, req *models.WatchlistRequest) (*models.Watchlist, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	if err := s.col.FindOne(ctx, bson.M{"user": owner, "name": req.Name}).Err(); err == nil {
		return nil, ErrDuplicateName
	} else if err != mongo.ErrNoDocuments {
		return nil, err
	}

	now := time.Now().UTC()
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	list := &models.Watchlist{
		ID:          primitive.NewObjectID(),
		UserID:      owner,
		OwnerName:   ownerName,
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    isPublic,
		Entries:     []models.WatchlistEntry{},
		Followers:   []primitive.ObjectID{},
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.col.InsertOne(ctx, list); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return list, nil
}

func (s *MongoWatchlistService) Update(ctx context.Context, id primitive.ObjectID, req *models.WatchlistRequest) (*models.Watchlist, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var existing models.Watchlist
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&existing); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrWatchlistNotFound
		}
		return nil, err
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if req.Name != "" && req.Name != existing.Name {
		err := s.col.FindOne(ctx, bson.M{
			"user": existing.UserID,
			"name": req.Name,
			"_id":  bson.M{"$ne": id},
		}).Err()
		if err == nil {
			return nil, ErrDuplicateName
		}
		if err != mongo.ErrNoDocuments {
			return nil, err
		}
		set["name"] = req.Name
	}
	set["description"] = req.Description
	if req.IsPublic != nil {
		set["isPublic"] = *req.IsPublic
	}
	if req.Tags != nil {
		set["tags"] = req.Tags
	}

	after := options.After
	var list models.Watchlist
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

func (s *MongoWatchlistService) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrWatchlistNotFound
	}
	return nil
}

func (s *MongoWatchlistService) AddEntry(ctx context.Context, id primitive.ObjectID, entry models.WatchlistEntry) (*models.Watchlist, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	// The animeId guard in the filter keeps the add idempotent under
	// concurrent requests.
	after := options.After
	var list models.Watchlist
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "anime.animeId": bson.M{"$ne": entry.AnimeID}},
		bson.M{
			"$push": bson.M{"anime": entry},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&list)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrEntryExists
		}
		return nil, err
	}
	return &list, nil
}

func (s *MongoWatchlistService) UpdateEntry(ctx context.Context, id, animeID primitive.ObjectID, req *models.WatchlistEntryRequest) (*models.Watchlist, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	set := bson.M{"updatedAt": time.Now().UTC()}
	if req.Status != "" {
		set["anime.$.status"] = req.Status
	}
	if req.UserRating != nil {
		set["anime.$.userRating"] = *req.UserRating
	}
	if req.Progress != nil {
		set["anime.$.progress"] = *req.Progress
	}

	after := options.After
	var list models.Watchlist
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "anime.animeId": animeID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&list)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return &list, nil
}

func (s *MongoWatchlistService) RemoveEntry(ctx context.Context, id, animeID primitive.ObjectID) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$pull": bson.M{"anime": bson.M{"animeId": animeID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrWatchlistNotFound
	}
	return nil
}

// ToggleFollow adds or removes the user from the follower set and returns
// the new state.
func (s *MongoWatchlistService) ToggleFollow(ctx context.Context, id, userID primitive.ObjectID) (bool, int, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var list models.Watchlist
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&list); err != nil {
		if err == mongo.ErrNoDocuments {
			return false, 0, ErrWatchlistNotFound
		}
		return false, 0, err
	}

	following := list.FollowedBy(userID)
	var update bson.M
	if following {
		update = bson.M{"$pull": bson.M{"followers": userID}}
	} else {
		update = bson.M{"$addToSet": bson.M{"followers": userID}}
	}

	after := options.After
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&list)
	if err != nil {
		return false, 0, err
	}
	return !following, len(list.Followers), nil
}
