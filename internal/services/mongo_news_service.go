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

var (
	ErrNewsNotFound    = errors.New("news article not found")
	ErrCommentNotFound = errors.New("comment not found")
)

type MongoNewsService struct {
	col *mongo.Collection
}

func NewMongoNewsService(ctx context.Context, db *mongo.Database) *MongoNewsService {
	col := db.Collection("news")

	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: "text"}, {Key: "content", Value: "text"}}},
		{Keys: bson.D{{Key: "publishedAt", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	})

	return &MongoNewsService{col: col}
}

// List returns published articles only, newest first.
func (s *MongoNewsService) List(ctx context.Context, opts models.NewsListOptions) ([]models.News, int64, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	query := bson.M{"isPublished": true}
	if opts.Search != "" {
		query["$text"] = bson.M{"$search": opts.Search}
	}
	if len(opts.Tags) > 0 {
		query["tags"] = bson.M{"$in": opts.Tags}
	}

	page, limit := normalizePaging(opts.Page, opts.Limit, 10)

	cur, err := s.col.Find(ctx, query, options.Find().
		SetSort(bson.D{{Key: "publishedAt", Value: -1}}).
		SetSkip((page-1)*limit).
		SetLimit(limit))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	items := []models.News{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, err
	}

	total, err := s.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetPublished returns a published article and bumps its view counter.
// Unpublished articles are reported as not found, not as forbidden.
func (s *MongoNewsService) GetPublished(ctx context.Context, id primitive.ObjectID) (*models.News, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	after := options.After
	var article models.News
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "isPublished": true},
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&article)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNewsNotFound
		}
		return nil, err
	}
	return &article, nil
}

func (s *MongoNewsService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.News, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var article models.News
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&article); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNewsNotFound
		}
		return nil, err
	}
	return &article, nil
}

func (s *MongoNewsService) Create(ctx context.Context, req *models.NewsRequest, author primitive.ObjectID, authorName string) (*models.News, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	now := time.Now().UTC()
	published := true
	if req.IsPublished != nil {
		published = *req.IsPublished
	}
	article := &models.News{
		ID:          primitive.NewObjectID(),
		Title:       req.Title,
		Content:     req.Content,
		AuthorID:    author,
		AuthorName:  authorName,
		Image:       req.Image,
		Tags:        req.Tags,
		IsPublished: published,
		Likes:       []primitive.ObjectID{},
		Comments:    []models.Comment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if article.Tags == nil {
		article.Tags = []string{}
	}
	if published {
		article.PublishedAt = &now
	}
	if _, err := s.col.InsertOne(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

func (s *MongoNewsService) Update(ctx context.Context, id primitive.ObjectID, req *models.NewsRequest) (*models.News, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var existing models.News
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&existing); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNewsNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	set := bson.M{"updatedAt": now}
	if req.Title != "" {
		set["title"] = req.Title
	}
	if req.Content != "" {
		set["content"] = req.Content
	}
	if req.Image != "" {
		set["image"] = req.Image
	}
	if req.Tags != nil {
		set["tags"] = req.Tags
	}
	if req.IsPublished != nil {
		set["isPublished"] = *req.IsPublished
		// First publish stamps the publish time once.
		if *req.IsPublished && existing.PublishedAt == nil {
			set["publishedAt"] = now
		}
	}

	after := options.After
	var article models.News
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&article)
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (s *MongoNewsService) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNewsNotFound
	}
	return nil
}

// ToggleLike adds the user to the like set, or removes them if already
// present. Returns the new liked state and count.
func (s *MongoNewsService) ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (bool, int, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var article models.News
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&article); err != nil {
		if err == mongo.ErrNoDocuments {
			return false, 0, ErrNewsNotFound
		}
		return false, 0, err
	}

	liked := article.LikedBy(userID)
	var update bson.M
	if liked {
		update = bson.M{"$pull": bson.M{"likes": userID}}
	} else {
		update = bson.M{"$addToSet": bson.M{"likes": userID}}
	}

	after := options.After
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&article)
	if err != nil {
		return false, 0, err
	}
	return !liked, len(article.Likes), nil
}

func (s *MongoNewsService) AddComment(ctx context.Context, id, userID primitive.ObjectID, username, content string) (*models.Comment, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Username:  username,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"comments": comment},
	})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrNewsNotFound
	}
	return &comment, nil
}

func (s *MongoNewsService) DeleteComment(ctx context.Context, id, commentID primitive.ObjectID) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$pull": bson.M{"comments": bson.M{"_id": commentID}},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNewsNotFound
	}
	if res.ModifiedCount == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func (s *MongoNewsService) DistinctTags(ctx context.Context) ([]string, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	raw, err := s.col.Distinct(ctx, "tags", bson.M{})
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
