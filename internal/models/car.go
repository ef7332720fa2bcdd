package models

import "fmt"

type Car struct {
	ID        int64   `yaml:"id" json:"id"`
	Brand     string  `yaml:"brand" json:"brand"`
	Model     string  `yaml:"model" json:"model"`
	Price     float64 `yaml:"price" json:"price"`
	ImagePath string  `yaml:"image_path" json:"imagePath"`
	Quantity  int     `yaml:"quantity" json:"-"`
}

func (c Car) DisplayName() string {
	return c.Brand + " " + c.Model
}

// QtyKey returns the carQty map key for a car id ("00", "01", ...).
func QtyKey(carID int64) string {
	return fmt.Sprintf("%02d", carID)
}
