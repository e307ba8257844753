package request

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// ValidStatus reports whether s is one of the three workflow statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// StatusLabel returns the display label used in exports and the UI.
func StatusLabel(s Status) string {
	switch s {
	case StatusPending:
		return "待处理"
	case StatusInProgress:
		return "处理中"
	case StatusCompleted:
		return "已完成"
	default:
		return string(s)
	}
}

// Category is a request type or research scope. Kinds that require
// clarification ("其他" etc.) carry a free-text remark; the composite
// "Kind(remark)" string only exists at the storage boundary.
type Category struct {
	Kind   string
	Remark string
}

// Format renders the stored composite string.
func (c Category) Format() string {
	if c.Remark == "" {
		return c.Kind
	}
	return c.Kind + "(" + c.Remark + ")"
}

// ParseCategory splits a stored composite string back into kind and remark.
// Strings without a trailing parenthesized remark come back remark-free.
func ParseCategory(s string) Category {
	if !strings.HasSuffix(s, ")") {
		return Category{Kind: s}
	}
	open := strings.Index(s, "(")
	if open <= 0 {
		return Category{Kind: s}
	}
	return Category{
		Kind:   s[:open],
		Remark: s[open+1 : len(s)-1],
	}
}

// Request mirrors the requests table joined with the display names of the
// submitting sales user and the assigned researcher.
type Request struct {
	ID             int64
	Title          string
	Description    string
	RequestType    string
	ResearchScope  string
	OrgName        string
	OrgType        string
	SalesID        int64
	ResearcherID   int64
	IsConfidential bool
	Status         Status
	ResultNote     *string
	AttachmentPath *string
	WorkHours      float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time

	// Joined columns, populated by reads only.
	SalesName      string
	SalesUsername  string
	ResearcherName string
}
