package models

import "gorm.io/gorm"

// Photobook is a photographer-curated album. Creation is quota-gated by plan.
type Photobook struct {
	gorm.Model
	PhotographerID uint   `json:"photographerId" gorm:"not null;index"`
	Title          string `json:"title" gorm:"not null"`
	Description    string `json:"description"`
	CoverImageURL  string `json:"coverImageUrl"`
	IsPublic       bool   `json:"isPublic" gorm:"not null;default:false"`

	Photographer *User `json:"photographer,omitempty" gorm:"foreignKey:PhotographerID"`
}

// TableName specifies the table name
func (Photobook) TableName() string {
	return "photobooks"
}
