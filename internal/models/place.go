package models

import "fmt"

// Place is an office where cars are picked up and returned.
type Place struct {
	ID        string  `yaml:"id" json:"id"`
	Name      string  `yaml:"name" json:"name"`
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
}

// DirectionsURL builds a Google Maps directions link to the place.
func (p Place) DirectionsURL() string {
	return fmt.Sprintf("https://www.google.com/maps/dir/?api=1&destination=%v,%v", p.Latitude, p.Longitude)
}
