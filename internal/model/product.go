package model

import (
	"strings"
	"time"
)

// Product represents a tracked consumer product. Products are created on
// first ingestion from a vendor source or through an explicit create call and
// are never deleted by the core; re-ingestion may refresh fields but identity
// is stable.
type Product struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	Name        string    `json:"name" gorm:"type:varchar(255);index;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Category    string    `json:"category" gorm:"type:varchar(100);index"`
	Brand       string    `json:"brand" gorm:"type:varchar(100)"`
	ImageURL    string    `json:"image_url" gorm:"type:varchar(500)"`
	Tags        string    `json:"tags" gorm:"type:varchar(500)"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TagList splits the comma-joined tags column into a slice
func (p *Product) TagList() []string {
	if p.Tags == "" {
		return []string{}
	}
	parts := strings.Split(p.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, t := range parts {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
