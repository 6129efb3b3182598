package models

import (
	"fmt"
	"time"
)

// Subject is the root of the catalog hierarchy.
type Subject struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"not null;size:200;index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Books []Book `json:"books,omitempty" gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE"`
}

type Book struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	SubjectID   string    `json:"subjectId" gorm:"not null;size:36;index"`
	Title       string    `json:"title" gorm:"not null;size:300"`
	Grade       string    `json:"grade" gorm:"not null;size:50"`
	Description string    `json:"description" gorm:"type:text"`
	Chapters    int       `json:"chapters" gorm:"default:0"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Chapter struct {
	ID          string    `json:"id" gorm:"primaryKey;size:50"`
	BookID      string    `json:"bookId" gorm:"primaryKey;size:36"`
	ChapterNo   int       `json:"chapterNo" gorm:"not null"`
	ChapterName string    `json:"chapterName" gorm:"not null;size:300"`
	Topic       string    `json:"topic" gorm:"size:300"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ChapterID derives the stable chapter key from its number.
func ChapterID(chapterNo int) string {
	return fmt.Sprintf("chapter_%d", chapterNo)
}
