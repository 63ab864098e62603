package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Kohanchuk66/anime-back/internal/models"
)

var ErrMovieNotFound = errors.New("movie not found")

type MovieListOptions struct {
	Search string
	Genre  string
	Sort   string // latest | oldest | highest_rated
}

type MongoMovieService struct {
	movies *mongo.Collection
	tags   *mongo.Collection
}

func NewMongoMovieService(ctx context.Context, db *mongo.Database) *MongoMovieService {
	movies := db.Collection("movies")
	tags := db.Collection("tags")

	_, _ = movies.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	_, _ = tags.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoMovieService{movies: movies, tags: tags}
}

// upsertTags resolves each distinct tag name to a tag id, creating missing
// tags with a single upsert per name. The upsert under the unique name index
// makes concurrent creation of the same tag converge on one document.
func (s *MongoMovieService) upsertTags(ctx context.Context, names []string, createdBy string) ([]primitive.ObjectID, error) {
	seen := make(map[string]struct{}, len(names))
	ids := make([]primitive.ObjectID, 0, len(names))
	after := options.After
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		var tag models.Tag
		err := s.tags.FindOneAndUpdate(ctx,
			bson.M{"name": name},
			bson.M{"$setOnInsert": bson.M{
				"name":      name,
				"createdBy": createdBy,
				"createdAt": time.Now().UTC(),
			}},
			options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(after),
		).Decode(&tag)
		if err != nil {
			return nil, err
		}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

func (s *MongoMovieService) populateTags(ctx context.Context, movie *models.Movie) error {
	movie.Tags = []models.Tag{}
	if len(movie.TagIDs) == 0 {
		return nil
	}
	cur, err := s.tags.Find(ctx, bson.M{"_id": bson.M{"$in": movie.TagIDs}})
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	return cur.All(ctx, &movie.Tags)
}

func (s *MongoMovieService) List(ctx context.Context, opts MovieListOptions) ([]models.Movie, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	query := bson.M{}
	if opts.Search != "" {
		query["title"] = primitive.Regex{Pattern: opts.Search, Options: "i"}
	}
	if opts.Genre != "" {
		query["genre"] = opts.Genre
	}

	sort := bson.D{}
	switch opts.Sort {
	case "latest":
		sort = bson.D{{Key: "createdAt", Value: -1}}
	case "oldest":
		sort = bson.D{{Key: "createdAt", Value: 1}}
	case "highest_rated":
		sort = bson.D{{Key: "rating", Value: -1}}
	}

	cur, err := s.movies.Find(ctx, query, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	movies := []models.Movie{}
	if err := cur.All(ctx, &movies); err != nil {
		return nil, err
	}
	for i := range movies {
		if err := s.populateTags(ctx, &movies[i]); err != nil {
			return nil, err
		}
	}
	return movies, nil
}

func (s *MongoMovieService) GetBySlug(ctx context.Context, slug string) (*models.Movie, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var movie models.Movie
	if err := s.movies.FindOne(ctx, bson.M{"slug": slug}).Decode(&movie); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	if err := s.populateTags(ctx, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (s *MongoMovieService) Create(ctx context.Context, req *models.MovieRequest, createdBy string) (*models.Movie, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	tagIDs, err := s.upsertTags(ctx, req.Tags, createdBy)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	movie := &models.Movie{
		ID:          primitive.NewObjectID(),
		Title:       strings.TrimSpace(req.Title),
		Slug:        models.MovieSlug(req.Title, now),
		Description: strings.TrimSpace(req.Description),
		ReleaseYear: req.ReleaseYear,
		Genre:       req.Genre,
		Rating:      req.Rating,
		TagIDs:      tagIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.movies.InsertOne(ctx, movie); err != nil {
		return nil, err
	}
	if err := s.populateTags(ctx, movie); err != nil {
		return nil, err
	}
	return movie, nil
}

func (s *MongoMovieService) Update(ctx context.Context, id primitive.ObjectID, req *models.MovieRequest, updatedBy string) (*models.Movie, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var existing models.Movie
	if err := s.movies.FindOne(ctx, bson.M{"_id": id}).Decode(&existing); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}

	tagIDs, err := s.upsertTags(ctx, req.Tags, updatedBy)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"title":       strings.TrimSpace(req.Title),
		"slug":        models.MovieSlug(req.Title, now),
		"description": strings.TrimSpace(req.Description),
		"releaseYear": req.ReleaseYear,
		"genre":       req.Genre,
		"rating":      req.Rating,
		"tags":        tagIDs,
		"updatedAt":   now,
	}}
	if _, err := s.movies.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return nil, err
	}

	var movie models.Movie
	if err := s.movies.FindOne(ctx, bson.M{"_id": id}).Decode(&movie); err != nil {
		return nil, err
	}
	if err := s.populateTags(ctx, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (s *MongoMovieService) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	res, err := s.movies.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrMovieNotFound
	}
	return nil
}
