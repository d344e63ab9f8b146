package model

import "time"

// Room represents a bookable space in the institutional registry as
// stored in the `rooms` table.  Rooms are owned by the administrative
// directory; the scheduling core treats them as read-only except for
// the restriction flag, which gates who may request the room at all.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name of the room.
//  RoomNumber   – door number within the building.
//  Building     – building identifier (e.g. "B4").
//  Campus       – campus the room belongs to.
//  Location     – free-text location descriptor.
//  Floor        – floor label.
//  RoomType     – kind of space (Classroom, Lab, Studio, ...).
//  Capacity     – number of seats.
//  IsRestricted – when true, only staff and administrators may request it.
//  IsActive     – inactive rooms are hidden from browse endpoints.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Room struct {
	ID           uint64    `json:"id"`            // rooms.id
	Name         string    `json:"name"`          // rooms.name
	RoomNumber   string    `json:"room_number"`   // rooms.room_number
	Building     string    `json:"building"`      // rooms.building
	Campus       string    `json:"campus"`        // rooms.campus
	Location     string    `json:"location"`      // rooms.location
	Floor        string    `json:"floor"`         // rooms.floor
	RoomType     string    `json:"room_type"`     // rooms.room_type
	Capacity     uint32    `json:"capacity"`      // rooms.capacity
	IsRestricted bool      `json:"is_restricted"` // rooms.is_restricted
	IsActive     bool      `json:"is_active"`     // rooms.is_active
	CreatedAt    time.Time `json:"created_at"`    // rooms.created_at
	UpdatedAt    time.Time `json:"updated_at"`    // rooms.updated_at
}
