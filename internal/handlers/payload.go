package handlers

import (
	"strings"

	"github.com/parceltrack/backend/internal/shipments"
)

type addressJSON struct {
	Text string   `json:"text"`
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
}

type partyJSON struct {
	Name    string       `json:"name"`
	Phone   string       `json:"phone"`
	Address *addressJSON `json:"address"`
}

type packageJSON struct {
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
	Dimensions  *string `json:"dimensions"`
	Fragile     bool    `json:"fragile"`
}

// CreateShipmentRequest принимает вложенную форму (sender/receiver/package)
// и устаревшую плоскую (pickupAddress, senderName, ...).
type CreateShipmentRequest struct {
	Sender      *partyJSON  `json:"sender"`
	Receiver    *partyJSON  `json:"receiver"`
	Package     packageJSON `json:"package"`
	TotalAmount float64     `json:"totalAmount"`

	// Deprecated: плоская форма.
	PickupAddress     string   `json:"pickupAddress"`
	PickupLatitude    *float64 `json:"pickupLatitude"`
	PickupLongitude   *float64 `json:"pickupLongitude"`
	DeliveryAddress   string   `json:"deliveryAddress"`
	DeliveryLatitude  *float64 `json:"deliveryLatitude"`
	DeliveryLongitude *float64 `json:"deliveryLongitude"`
	SenderName        string   `json:"senderName"`
	SenderPhone       string   `json:"senderPhone"`
	ReceiverName      string   `json:"receiverName"`
	ReceiverPhone     string   `json:"receiverPhone"`
}

// ToNewShipment сводит обе формы к каноничной; поля вложенной формы
// имеют приоритет. Валидация — в сервисе.
func (r CreateShipmentRequest) ToNewShipment() shipments.NewShipment {
	n := shipments.NewShipment{
		Sender:          shipments.Party{Name: r.SenderName, Phone: r.SenderPhone},
		Receiver:        shipments.Party{Name: r.ReceiverName, Phone: r.ReceiverPhone},
		PickupAddress:   shipments.Address{Text: r.PickupAddress, Lat: r.PickupLatitude, Lng: r.PickupLongitude},
		DeliveryAddress: shipments.Address{Text: r.DeliveryAddress, Lat: r.DeliveryLatitude, Lng: r.DeliveryLongitude},
		Package: shipments.Package{
			Weight:      r.Package.Weight,
			Description: r.Package.Description,
			Dimensions:  r.Package.Dimensions,
			Fragile:     r.Package.Fragile,
		},
		TotalAmount: r.TotalAmount,
	}
	mergeParty(&n.Sender, &n.PickupAddress, r.Sender)
	mergeParty(&n.Receiver, &n.DeliveryAddress, r.Receiver)
	return n
}

func mergeParty(p *shipments.Party, a *shipments.Address, in *partyJSON) {
	if in == nil {
		return
	}
	if strings.TrimSpace(in.Name) != "" {
		p.Name = in.Name
	}
	if strings.TrimSpace(in.Phone) != "" {
		p.Phone = in.Phone
	}
	if in.Address != nil {
		*a = shipments.Address{Text: in.Address.Text, Lat: in.Address.Lat, Lng: in.Address.Lng}
	}
}
