package models

import "time"

// Company is the sole resource of the API. CIF is unique across all rows.
type Company struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Name           string    `json:"name" gorm:"size:255;not null;index"`
	CIF            string    `json:"cif" gorm:"column:cif;size:32;not null;uniqueIndex:idx_companies_cif"`
	ContactPerson  string    `json:"contact_person" gorm:"size:255;not null"`
	CompanyAddress string    `json:"company_address" gorm:"size:255;not null"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
