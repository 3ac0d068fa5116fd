package models

import "time"

// Vehicle belongs to a customer and is the subject of bookings.
type Vehicle struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	CustomerID int64     `gorm:"column:customer_id;not null;index"`
	Brand      string    `gorm:"column:brand;not null"`
	Model      string    `gorm:"column:model;not null"`
	Year       int       `gorm:"column:year;not null"`
	PlateNo    string    `gorm:"column:plate_no;not null;uniqueIndex"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Customer *Customer `gorm:"foreignKey:CustomerID"`
}
