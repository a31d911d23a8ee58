package domain

import "time"

type Customer struct {
	ID                string     `json:"id"`
	FullName          string     `json:"full_name"`
	ContactNumber     string     `json:"contact_number"`
	IDCardNumber      string     `json:"id_card_number"`
	IDCardCollected   bool       `json:"id_card_collected"`
	IDCardCollectedAt *time.Time `json:"id_card_collected_at,omitempty"`
	CreatedOn         time.Time  `json:"created_on"`
	Rentals           []Rental   `json:"rentals,omitempty"` // Populated when fetching customer details
}

// CustomerDetails is what the counter staff capture when a customer picks up
// moulds. IDCardNumber identifies returning customers.
type CustomerDetails struct {
	FullName        string `json:"full_name"`
	ContactNumber   string `json:"contact_number"`
	IDCardNumber    string `json:"id_card_number"`
	IDCardCollected bool   `json:"id_card_collected"`
}
