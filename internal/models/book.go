package models

import "time"

// Book is a recommendation post created by a user.
type Book struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null"`
	Author    string    `json:"author" gorm:"type:varchar(255);not null"`
	Caption   string    `json:"caption" gorm:"type:text;not null"`
	Rating    float64   `json:"rating" gorm:"not null"`
	Image     string    `json:"image" gorm:"type:varchar(1024)"`
	UserID    string    `json:"user" gorm:"type:varchar(36);not null;index"`
	Owner     *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookOwner is the subset of the owning user exposed in listings.
type BookOwner struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	ProfileImage string `json:"profileImage"`
}

// BookWithOwner is a Book whose owner reference is expanded.
type BookWithOwner struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Caption   string    `json:"caption"`
	Rating    float64   `json:"rating"`
	Image     string    `json:"image"`
	User      BookOwner `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WithOwner expands the owner of b. Owner must be preloaded; when it is not,
// only the owner id is filled in.
func (b Book) WithOwner() BookWithOwner {
	owner := BookOwner{ID: b.UserID}
	if b.Owner != nil {
		owner.Username = b.Owner.Username
		owner.ProfileImage = b.Owner.ProfileImage
	}
	return BookWithOwner{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		Caption:   b.Caption,
		Rating:    b.Rating,
		Image:     b.Image,
		User:      owner,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// BookPage is one page of a user's books.
type BookPage struct {
	Books       []BookWithOwner `json:"books"`
	CurrentPage int             `json:"currentPage"`
	TotalBooks  int64           `json:"totalBooks"`
	TotalPages  int64           `json:"totalPages"`
}
