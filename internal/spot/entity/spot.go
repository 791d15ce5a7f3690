package entity

// Spot represents a named geographic location in the `spots` table.
type Spot struct {
	ID        int64   `db:"id"`
	Latitude  float64 `db:"latitude"`
	Longitude float64 `db:"longitude"`
	Name      string  `db:"name"`
	Country   string  `db:"country"`
}
