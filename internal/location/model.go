package location

import (
	"time"

	"github.com/google/uuid"
)

// Sample is the latest known position of a driver.
type Sample struct {
	DriverID  uuid.UUID `json:"driver_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  *float64  `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// Report is one position sample sent by a driver.
type Report struct {
	Latitude  float64
	Longitude float64
	Accuracy  *float64
}

// View is the current location of a shipment's driver.
type View struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   *float64  `json:"accuracy"`
	Timestamp  time.Time `json:"timestamp"`
	DriverID   uuid.UUID `json:"driver_id"`
	DriverName string    `json:"driver_name"`
	AgeSeconds float64   `json:"age_seconds"`
}
