package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"          json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null"      json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"column:password;not null"          json:"-"`
	CreatedAt    time.Time `gorm:"not null"                          json:"created_at"`
}

// Content size forces LONGTEXT on MySQL; postgres and sqlite map it to text.
type Post struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                                json:"id"`
	Title     string    `gorm:"size:255;not null"                                       json:"title"`
	Content   string    `gorm:"size:4294967295;not null"                                json:"content"`
	AuthorID  uint      `gorm:"index;not null"                                          json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"         json:"-"`
	CreatedAt time.Time `gorm:"index;not null"                                          json:"created_at"`
}

// PostView is a post joined with its author's username.
type PostView struct {
	ID         uint      `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	AuthorID   uint      `json:"author_id"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}

func (p *Post) View(authorName string) PostView {
	return PostView{
		ID:         p.ID,
		Title:      p.Title,
		Content:    p.Content,
		AuthorID:   p.AuthorID,
		AuthorName: authorName,
		CreatedAt:  p.CreatedAt,
	}
}
