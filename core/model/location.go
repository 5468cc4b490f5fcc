package model

// Location is a fixed facility waypoint. The set is closed: robots park
// at the entrance and deliver to the clinical wings.
type Location string

const (
	LocEntrance  Location = "ENTRANCE"
	LocICU       Location = "ICU"
	LocPharmacy  Location = "PHARMACY"
	LocRoom101   Location = "ROOM_101"
	LocEmergency Location = "EMERGENCY"
	LocStorage   Location = "STORAGE"
)

// Locations lists every facility waypoint in a stable order.
func Locations() []Location {
	return []Location{LocEntrance, LocICU, LocPharmacy, LocRoom101, LocEmergency, LocStorage}
}

// Destinations lists the waypoints a task may target. The entrance is a
// parking area, not a delivery destination.
func Destinations() []Location {
	return []Location{LocICU, LocPharmacy, LocRoom101, LocEmergency, LocStorage}
}

// ValidDestination reports whether l is a deliverable waypoint.
func ValidDestination(l Location) bool {
	for _, d := range Destinations() {
		if d == l {
			return true
		}
	}
	return false
}
