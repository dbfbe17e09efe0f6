package model

import "time"

// Table occupancy statuses.  A table is either free for seating or
// occupied by a dining party.
const (
	TableDisponivel = "disponivel"
	TableOcupada    = "ocupada"
)

// Table represents a physical seating unit tracked for occupancy and
// billing.  This struct corresponds to a row in the `tables` table.
//
// Fields:
//
//	ID               – primary key identifier.
//	Number           – unique table number shown to staff.
//	Capacity         – how many customers the table seats.
//	Status           – occupancy status (disponivel or ocupada).
//	CurrentCustomers – number of customers currently seated.
//	AssignedWaiter   – user ID of the waiter serving the table (nil when free).
//	Identification   – optional free-text label for the party (nil when unset).
//	CreatedAt        – timestamp when the table was created.
//	UpdatedAt        – timestamp of last update.
type Table struct {
	ID               uint64    // tables.id
	Number           uint32    // tables.number
	Capacity         uint32    // tables.capacity
	Status           string    // tables.status
	CurrentCustomers uint32    // tables.current_customers
	AssignedWaiter   *uint64   // tables.assigned_waiter (nullable)
	Identification   *string   // tables.identification (nullable)
	CreatedAt        time.Time // tables.created_at
	UpdatedAt        time.Time // tables.updated_at
}
