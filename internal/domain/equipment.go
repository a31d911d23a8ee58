package domain

import "time"

// EquipmentType is one kind of rentable mould. Available is the number of
// units not committed to an ACTIVE rental.
type EquipmentType struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Quantity  int32     `json:"quantity"`
	Available int32     `json:"available"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// Rented returns the number of units the stored counters say are out.
func (e *EquipmentType) Rented() int32 {
	return e.Quantity - e.Available
}

// ReconcileReport is the outcome of recomputing Available from the set of
// active rentals.
type ReconcileReport struct {
	EquipmentTypeID string `json:"equipment_type_id"`
	Name            string `json:"name"`
	Quantity        int32  `json:"quantity"`
	Committed       int32  `json:"committed"`
	OldAvailable    int32  `json:"old_available"`
	NewAvailable    int32  `json:"new_available"`
	Delta           int32  `json:"delta"`
}

// Drifted reports whether the stored value had to be corrected.
func (r ReconcileReport) Drifted() bool {
	return r.Delta != 0
}

// DefaultMouldNames is the catalogue the shop started with.
var DefaultMouldNames = []string{
	"Ashlar 8",
	"Indiana",
	"European fan",
	"Tile mart 1",
	"Ashler",
	"Ashlar Bold",
	"Ashler bold C",
	"Royal Ashler Bold 1",
	"Stone",
	"Stone/flower rock",
	"Big couble",
	"Square Ashlar",
	"Compass",
	"Y wood",
	"Royal ashler B2",
	"Double bold Wood",
	"London Couble stone",
}
