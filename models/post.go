package models

import "time"

// TitleMaxLength is the maximum number of characters allowed in a post title.
const TitleMaxLength = 255

// Post represents a blog post. ID is zero until the repository persists it.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
