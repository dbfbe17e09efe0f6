package model

import "time"

// Menu categories used by the catalog.  Categories are plain strings in
// the database; this list mirrors what the admin UI offers.
var ProductCategories = []string{
	"entradas",
	"pratos-principais",
	"carnes",
	"massas",
	"bebidas",
	"sobremesas",
}

// Product represents a menu item.  Price changes never retroactively
// affect existing orders because orders snapshot name and unit price at
// creation time.  Removal from the menu is soft: available is flipped to
// false so historical orders keep a valid reference.
//
// Fields:
//
//	ID              – primary key identifier.
//	Name            – menu item name.
//	Description     – optional description shown on the menu.
//	Price           – current price in reais (non-negative).
//	Category        – menu category (see ProductCategories).
//	Available       – whether the item can currently be ordered.
//	PreparationTime – estimated preparation time in minutes.
//	CreatedAt       – creation timestamp.
//	UpdatedAt       – last update timestamp.
type Product struct {
	ID              uint64    // products.id
	Name            string    // products.name
	Description     *string   // products.description (nullable)
	Price           float64   // products.price
	Category        string    // products.category
	Available       bool      // products.available
	PreparationTime uint32    // products.preparation_time
	CreatedAt       time.Time // products.created_at
	UpdatedAt       time.Time // products.updated_at
}
