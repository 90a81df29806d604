package models

import "time"

// Product is a catalog item owned by the user who created it.
type Product struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:100;not null;index" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	Price       float64   `gorm:"not null" json:"price"`
	Quantity    int       `gorm:"not null;default:0" json:"quantity"`
	CreatedBy   string    `gorm:"index;size:36;not null" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Product) TableName() string { return "products" }
