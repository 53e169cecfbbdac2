package domain

import "time"

// Company is a business-directory listing in the canonical schema.
// Name/Description are the primary (uk) language, *Ru the secondary one.
type Company struct {
	ID            string    `json:"_id"`
	ExternalID    string    `json:"externalId,omitempty"`
	Name          string    `json:"name"`
	NameRu        string    `json:"nameRu"`
	Description   string    `json:"description"`
	DescriptionRu string    `json:"descriptionRu"`
	Category      string    `json:"category"`
	Location      Location  `json:"location"`
	Contacts      Contacts  `json:"contacts"`
	Image         string    `json:"image"`
	Images        []string  `json:"images"`
	Rating        float64   `json:"rating"`
	ReviewCount   int       `json:"reviewCount"`
	IsNew         bool      `json:"isNew"`
	IsActive      bool      `json:"isActive"`
	UserID        *string   `json:"userId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Location struct {
	City        string       `json:"city"`
	Address     string       `json:"address"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Contacts struct {
	Phone   string  `json:"phone"`
	Email   string  `json:"email"`
	Website *string `json:"website,omitempty"`
}
