package models

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestWatchlistVisibleTo(t *testing.T) {
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	public := Watchlist{UserID: owner, IsPublic: true}
	private := Watchlist{UserID: owner, IsPublic: false}

	if !public.VisibleTo(primitive.NilObjectID) {
		t.Error("public list hidden from anonymous viewer")
	}
	if !public.VisibleTo(stranger) {
		t.Error("public list hidden from other users")
	}
	if !private.VisibleTo(owner) {
		t.Error("private list hidden from its owner")
	}
	if private.VisibleTo(stranger) {
		t.Error("private list visible to other users")
	}
	if private.VisibleTo(primitive.NilObjectID) {
		t.Error("private list visible to anonymous viewer")
	}
}

func TestWatchlistEntryLookup(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	list := Watchlist{Entries: []WatchlistEntry{{AnimeID: a, Status: WatchStatusWatching}}}

	if entry := list.Entry(a); entry == nil || entry.Status != WatchStatusWatching {
		t.Errorf("Entry(a) = %+v", entry)
	}
	if list.Entry(b) != nil {
		t.Error("Entry returned a hit for an absent anime")
	}
}

func TestValidWatchStatus(t *testing.T) {
	for _, s := range []string{"watching", "completed", "on-hold", "dropped", "plan-to-watch"} {
		if !ValidWatchStatus(s) {
			t.Errorf("valid status %q rejected", s)
		}
	}
	for _, s := range []string{"", "paused", "Watching"} {
		if ValidWatchStatus(s) {
			t.Errorf("invalid status %q accepted", s)
		}
	}
}

func TestWatchlistRequestValidate(t *testing.T) {
	valid := WatchlistRequest{Name: "Winter season"}
	if errs := valid.Validate(); len(errs) != 0 {
		t.Errorf("valid request: %v", errs)
	}

	empty := WatchlistRequest{Name: "   "}
	if errs := empty.Validate(); errs["name"] == "" {
		t.Error("blank name not reported")
	}

	longName := WatchlistRequest{Name: strings.Repeat("a", 101)}
	if errs := longName.Validate(); errs["name"] == "" {
		t.Error("overlong name not reported")
	}

	longDesc := WatchlistRequest{Name: "ok", Description: strings.Repeat("b", 501)}
	if errs := longDesc.Validate(); errs["description"] == "" {
		t.Error("overlong description not reported")
	}
}
