package models

import "gorm.io/gorm"

// Product represents a garment in the catalog.
type Product struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string  `json:"name" validate:"required,min=3,max=100"`
	Description string  `json:"description" validate:"omitempty,max=500"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Color       string  `json:"color" validate:"omitempty,max=50"`
	Image       string  `json:"image" validate:"omitempty,url"`
	Sizes       string  `json:"sizes" validate:"omitempty,max=100"` // comma-separated, e.g. "S,M,L"
	Stock       int     `json:"stock" validate:"gte=0"`
	gorm.Model          // CreatedAt, UpdatedAt, DeletedAt
}
