package domain

// ShipmentStatus is the governed lifecycle status of a shipment.
type ShipmentStatus string

const (
	StatusPending    ShipmentStatus = "pending"
	StatusAssigned   ShipmentStatus = "assigned"
	StatusInTransit  ShipmentStatus = "in_transit"
	StatusDelivered  ShipmentStatus = "delivered"
	StatusExceptions ShipmentStatus = "exceptions"
)

var shipmentStatuses = map[ShipmentStatus]bool{
	StatusPending: true, StatusAssigned: true, StatusInTransit: true,
	StatusDelivered: true, StatusExceptions: true,
}

// Valid reports whether s is a known shipment status.
func (s ShipmentStatus) Valid() bool { return shipmentStatuses[s] }

// Terminal reports whether no transition may leave s.
func (s ShipmentStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusExceptions
}

// Active reports whether a driver is still working on a shipment in status s.
func (s ShipmentStatus) Active() bool {
	return s == StatusAssigned || s == StatusInTransit
}

// PackageStatus is the free-form package sub-status set by administrators.
type PackageStatus string

const (
	PackageInTransit      PackageStatus = "in_transit"
	PackageOutForDelivery PackageStatus = "out_for_delivery"
	PackageDelivered      PackageStatus = "delivered"
	PackageExceptions     PackageStatus = "exceptions"
)

var packageStatuses = map[PackageStatus]bool{
	PackageInTransit: true, PackageOutForDelivery: true,
	PackageDelivered: true, PackageExceptions: true,
}

func (s PackageStatus) Valid() bool { return packageStatuses[s] }

// EventType classifies a ShipmentEvent.
type EventType string

const (
	EventCreated       EventType = "created"
	EventAssigned      EventType = "assigned"
	EventStatusChanged EventType = "status_changed"
	EventPackageStatus EventType = "package_status"
)

type DriverStatus string

const (
	DriverAvailable DriverStatus = "available"
	DriverBusy      DriverStatus = "busy"
	DriverOffline   DriverStatus = "offline"
)

var driverStatuses = map[DriverStatus]bool{
	DriverAvailable: true, DriverBusy: true, DriverOffline: true,
}

func (s DriverStatus) Valid() bool { return driverStatuses[s] }

// Role of an authenticated caller.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleDriver   Role = "driver"
	RoleAdmin    Role = "admin"
)

// Realtime topics.
const (
	TopicShipmentUpdated  = "shipment_updated"
	TopicShipmentAssigned = "shipment_assigned"
)
