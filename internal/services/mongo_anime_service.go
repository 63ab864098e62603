package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Kohanchuk66/anime-back/internal/models"
)

var ErrAnimeNotFound = errors.New("anime not found")

type MongoAnimeService struct {
	col *mongo.Collection
}

func NewMongoAnimeService(ctx context.Context, db *mongo.Database) *MongoAnimeService {
	col := db.Collection("anime")

	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "title", Value: "text"},
			{Key: "synopsis", Value: "text"},
			{Key: "genres", Value: "text"},
			{Key: "studio.name", Value: "text"},
		}},
		{Keys: bson.D{{Key: "rating", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})

	return &MongoAnimeService{col: col}
}

func animeSortOptions(sortBy, sortOrder string) bson.D {
	dir := -1
	if sortOrder == "asc" {
		dir = 1
	}
	switch sortBy {
	case "rating":
		return bson.D{{Key: "rating", Value: dir}}
	case "year":
		return bson.D{{Key: "year", Value: dir}}
	case "title":
		return bson.D{{Key: "title", Value: dir}}
	case "episodes":
		return bson.D{{Key: "episodes", Value: dir}}
	case "views":
		return bson.D{{Key: "viewCount", Value: dir}}
	}
	return bson.D{{Key: "createdAt", Value: -1}}
}

func (s *MongoAnimeService) List(ctx context.Context, opts models.AnimeListOptions) ([]models.Anime, int64, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	query := bson.M{}
	if opts.Search != "" {
		query["$text"] = bson.M{"$search": opts.Search}
	}
	if len(opts.Genres) > 0 {
		query["genres"] = bson.M{"$in": opts.Genres}
	}
	if opts.Status != "" {
		query["status"] = opts.Status
	}
	if opts.Year != 0 {
		query["year"] = opts.Year
	}

	page, limit := normalizePaging(opts.Page, opts.Limit, 20)

	cur, err := s.col.Find(ctx, query, options.Find().
		SetSort(animeSortOptions(opts.SortBy, opts.SortOrder)).
		SetSkip((page-1)*limit).
		SetLimit(limit))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	items := []models.Anime{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, err
	}

	total, err := s.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetByID returns the anime and increments its view counter in the same
// round trip.
func (s *MongoAnimeService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Anime, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	after := options.After
	var anime models.Anime
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"viewCount": 1}},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&anime)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrAnimeNotFound
		}
		return nil, err
	}
	return &anime, nil
}

func (s *MongoAnimeService) Create(ctx context.Context, req *models.AnimeRequest, addedBy primitive.ObjectID, addedByName string) (*models.Anime, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	now := time.Now().UTC()
	characters := req.Characters
	if characters == nil {
		characters = []models.Character{}
	}
	anime := &models.Anime{
		ID:          primitive.NewObjectID(),
		Title:       req.Title,
		Synopsis:    req.Synopsis,
		CoverImage:  req.CoverImage,
		BannerImage: req.BannerImage,
		Episodes:    req.Episodes,
		Status:      req.Status,
		Genres:      req.Genres,
		Year:        req.Year,
		Studio:      *req.Studio,
		Characters:  characters,
		AddedBy:     addedBy,
		AddedByName: addedByName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.col.InsertOne(ctx, anime); err != nil {
		return nil, err
	}
	return anime, nil
}

func (s *MongoAnimeService) Update(ctx context.Context, id primitive.ObjectID, req *models.AnimeRequest) (*models.Anime, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	set := bson.M{
		"title":       req.Title,
		"synopsis":    req.Synopsis,
		"coverImage":  req.CoverImage,
		"bannerImage": req.BannerImage,
		"episodes":    req.Episodes,
		"status":      req.Status,
		"genres":      req.Genres,
		"year":        req.Year,
		"studio":      req.Studio,
		"updatedAt":   time.Now().UTC(),
	}
	if req.Characters != nil {
		set["characters"] = req.Characters
	}

	after := options.After
	var anime models.Anime
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&anime)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrAnimeNotFound
		}
		return nil, err
	}
	return &anime, nil
}

func (s *MongoAnimeService) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrAnimeNotFound
	}
	return nil
}

// Rate adds one rating to the rolling sum/count pair and stores the
// recomputed average.
func (s *MongoAnimeService) Rate(ctx context.Context, id primitive.ObjectID, rating float64) (*models.Anime, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	after := options.After
	var anime models.Anime
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"ratingSum": rating, "totalRatings": 1}},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&anime)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrAnimeNotFound
		}
		return nil, err
	}

	anime.Rating = models.AverageRating(anime.RatingSum, anime.TotalRatings)
	_, err = s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"rating": anime.Rating, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return nil, err
	}
	return &anime, nil
}

// Exists reports whether an anime with the given id is in the catalog.
func (s *MongoAnimeService) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	n, err := s.col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *MongoAnimeService) DistinctGenres(ctx context.Context) ([]string, error) {
	return s.distinctStrings(ctx, "genres")
}

func (s *MongoAnimeService) DistinctStudios(ctx context.Context) ([]string, error) {
	return s.distinctStrings(ctx, "studio.name")
}

func (s *MongoAnimeService) distinctStrings(ctx context.Context, field string) ([]string, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	raw, err := s.col.Distinct(ctx, field, bson.M{})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	sort.Strings(out)
	return out, nil
}
