package models

// Pharmacy is a reference-data record for a nearby pharmacy. Records are
// seeded at startup and treated as already validated; the chat core only
// reads them. Listing order is nearest-first by convention.
type Pharmacy struct {
	ID        string  `json:"id" gorm:"primaryKey"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Phone     string  `json:"phone,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	SortOrder int     `json:"-" gorm:"index"`
}

// Doctor is a reference-data record for a doctor or clinic the assistant
// can point the user at after a doctor_advised outcome.
type Doctor struct {
	ID        string `json:"id" gorm:"primaryKey"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Address   string `json:"address"`
	Phone     string `json:"phone,omitempty"`
	SortOrder int    `json:"-" gorm:"index"`
}
