package lifecycle

import "github.com/parceltrack/backend/internal/domain"

// transitions lists the status changes a driver may request. pending ->
// assigned is absent: it only happens through Claim/AssignDriver.
var transitions = map[domain.ShipmentStatus][]domain.ShipmentStatus{
	domain.StatusAssigned:  {domain.StatusInTransit, domain.StatusExceptions},
	domain.StatusInTransit: {domain.StatusDelivered, domain.StatusExceptions},
}

// CanTransition reports whether from -> to is a legal driver transition.
func CanTransition(from, to domain.ShipmentStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Next returns the statuses reachable from s, for clients building menus.
func Next(s domain.ShipmentStatus) []domain.ShipmentStatus {
	return append([]domain.ShipmentStatus(nil), transitions[s]...)
}
