package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportTargetKind is the discriminant of the report-target union. Resolving
// a target switches exhaustively over the kind, so adding a new kind without
// handling it everywhere fails at compile time in Collection.
type ReportTargetKind string

const (
	TargetUser   ReportTargetKind = "user"
	TargetNews   ReportTargetKind = "news"
	TargetReview ReportTargetKind = "review"
)

var ErrInvalidTargetKind = errors.New("invalid report target kind")

func ParseReportTargetKind(s string) (ReportTargetKind, error) {
	switch ReportTargetKind(s) {
	case TargetUser, TargetNews, TargetReview:
		return ReportTargetKind(s), nil
	}
	return "", ErrInvalidTargetKind
}

// Collection names the collection the target id resolves against.
func (k ReportTargetKind) Collection() string {
	switch k {
	case TargetUser:
		return "users"
	case TargetNews:
		return "news"
	case TargetReview:
		return "reviews"
	}
	return ""
}

const (
	ReportStatusPending   = "pending"
	ReportStatusReviewing = "reviewing"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

func ValidReportStatus(s string) bool {
	switch s {
	case ReportStatusPending, ReportStatusReviewing, ReportStatusResolved, ReportStatusDismissed:
		return true
	}
	return false
}

var reportReasons = map[string]struct{}{
	"spam":                  {},
	"harassment":            {},
	"inappropriate-content": {},
	"copyright-violation":   {},
	"fake-information":      {},
	"other":                 {},
}

func ValidReportReason(s string) bool {
	_, ok := reportReasons[s]
	return ok
}

func ValidReportAction(s string) bool {
	switch s {
	case "none", "warning", "content-removed", "user-banned", "other":
		return true
	}
	return false
}

type ReportTarget struct {
	Kind ReportTargetKind   `bson:"kind" json:"kind"`
	ID   primitive.ObjectID `bson:"id" json:"id"`
}

type Report struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ReporterID   primitive.ObjectID  `bson:"reporter" json:"reporter"`
	ReporterName string              `bson:"reporterName,omitempty" json:"reporterName,omitempty"`
	Target       ReportTarget        `bson:"target" json:"target"`
	Reason       string              `bson:"reason" json:"reason"`
	Description  string              `bson:"description" json:"description"`
	Status       string              `bson:"status" json:"status"`
	ReviewedBy   *primitive.ObjectID `bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt   *time.Time          `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	Resolution   string              `bson:"resolution,omitempty" json:"resolution,omitempty"`
	ActionTaken  string              `bson:"actionTaken,omitempty" json:"actionTaken,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

type ReportRequest struct {
	TargetType  string `json:"targetType"`
	TargetID    string `json:"targetId"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

func (r *ReportRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if r.TargetType == "" {
		errs["targetType"] = "Target type is required"
	}
	if r.TargetID == "" {
		errs["targetId"] = "Target ID is required"
	}
	if r.Reason == "" {
		errs["reason"] = "Reason is required"
	} else if !ValidReportReason(r.Reason) {
		errs["reason"] = "Invalid report reason"
	}
	if len(r.Description) > 1000 {
		errs["description"] = "Description must be at most 1000 characters"
	}
	return errs
}

type ReportUpdateRequest struct {
	Status      *string `json:"status"`
	Resolution  *string `json:"resolution"`
	ActionTaken *string `json:"actionTaken"`
}

type ReportListOptions struct {
	Status     string
	TargetKind string
	Reason     string
	SortBy     string
	SortOrder  string
	Page       int64
	Limit      int64
}

// ReportStats is the /stats/overview payload.
type ReportStats struct {
	Total           int64            `json:"total"`
	Pending         int64            `json:"pending"`
	StatusBreakdown map[string]int64 `json:"statusBreakdown"`
	ReasonBreakdown map[string]int64 `json:"reasonBreakdown"`
	KindBreakdown   map[string]int64 `json:"typeBreakdown"`
}
