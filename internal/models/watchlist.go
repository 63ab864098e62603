package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	WatchStatusWatching    = "watching"
	WatchStatusCompleted   = "completed"
	WatchStatusOnHold      = "on-hold"
	WatchStatusDropped     = "dropped"
	WatchStatusPlanToWatch = "plan-to-watch"
)

// ValidWatchStatus reports whether s is a member of the watch-status enum.
func ValidWatchStatus(s string) bool {
	switch s {
	case WatchStatusWatching, WatchStatusCompleted, WatchStatusOnHold,
		WatchStatusDropped, WatchStatusPlanToWatch:
		return true
	}
	return false
}

type WatchlistEntry struct {
	AnimeID    primitive.ObjectID `bson:"animeId" json:"animeId"`
	AddedAt    time.Time          `bson:"addedAt" json:"addedAt"`
	Status     string             `bson:"status" json:"status"`
	UserRating int                `bson:"userRating,omitempty" json:"userRating,omitempty"`
	Progress   int                `bson:"progress" json:"progress"`
}

type Watchlist struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID   `bson:"user" json:"user"`
	OwnerName   string               `bson:"ownerName,omitempty" json:"ownerName,omitempty"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description" json:"description"`
	IsPublic    bool                 `bson:"isPublic" json:"isPublic"`
	Entries     []WatchlistEntry     `bson:"anime" json:"anime"`
	Followers   []primitive.ObjectID `bson:"followers" json:"-"`
	Tags        []string             `bson:"tags" json:"tags"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// VisibleTo reports whether the watchlist can be read by the given caller.
// Private lists are owner-only; anonymous callers pass a zero viewer id.
func (w *Watchlist) VisibleTo(viewer primitive.ObjectID) bool {
	if w.IsPublic {
		return true
	}
	return !viewer.IsZero() && viewer == w.UserID
}

func (w *Watchlist) Entry(animeID primitive.ObjectID) *WatchlistEntry {
	for i := range w.Entries {
		if w.Entries[i].AnimeID == animeID {
			return &w.Entries[i]
		}
	}
	return nil
}

func (w *Watchlist) FollowedBy(userID primitive.ObjectID) bool {
	for _, id := range w.Followers {
		if id == userID {
			return true
		}
	}
	return false
}

type WatchlistRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	IsPublic    *bool    `json:"isPublic"`
	Tags        []string `json:"tags"`
}

func (r *WatchlistRequest) Validate() map[string]string {
	errs := make(map[string]string)
	name := strings.TrimSpace(r.Name)
	if name == "" {
		errs["name"] = "Watchlist name is required"
	} else if len(name) > 100 {
		errs["name"] = "Watchlist name must be at most 100 characters"
	}
	if len(r.Description) > 500 {
		errs["description"] = "Description must be at most 500 characters"
	}
	return errs
}

type WatchlistEntryRequest struct {
	Status     string `json:"status"`
	UserRating *int   `json:"userRating"`
	Progress   *int   `json:"progress"`
}

type FollowResponse struct {
	Following     bool `json:"following"`
	FollowerCount int  `json:"followerCount"`
}

type WatchlistListOptions struct {
	Search string
	UserID string
	Page   int64
	Limit  int64
}
