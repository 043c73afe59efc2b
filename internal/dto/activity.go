package dto

import (
	"encoding/json"
	"time"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
)

// ActivityEntry is what services hand to the activity recorder.
type ActivityEntry struct {
	Actor        models.Principal
	SubjectID    string
	SubjectType  models.SubjectType
	ActivityType string
	Description  string
	Metadata     map[string]interface{}
}

// MetadataJSON encodes the metadata, falling back to an empty object.
func (e ActivityEntry) MetadataJSON() json.RawMessage {
	if len(e.Metadata) == 0 {
		return json.RawMessage(`{}`)
	}
	raw, err := json.Marshal(e.Metadata)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}

// ActivityQuery mirrors supported listing filters.
type ActivityQuery struct {
	SubjectType  models.SubjectType `form:"subject_type"`
	UserID       string             `form:"user_id"`
	ActivityType string             `form:"activity_type"`
	Since        *time.Time         `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
	Page         int                `form:"page"`
	PageSize     int                `form:"page_size"`
}
