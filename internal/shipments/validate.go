package shipments

import (
	"math"
	"strings"

	"github.com/parceltrack/backend/internal/domain"
	"github.com/parceltrack/backend/internal/util"
)

// Validate trims and normalizes n in place.
func (n *NewShipment) Validate() error {
	if err := validateParty("sender", &n.Sender); err != nil {
		return err
	}
	if err := validateParty("receiver", &n.Receiver); err != nil {
		return err
	}
	if err := validateAddress("pickup address", &n.PickupAddress); err != nil {
		return err
	}
	if err := validateAddress("delivery address", &n.DeliveryAddress); err != nil {
		return err
	}

	p := &n.Package
	p.Description = strings.TrimSpace(p.Description)
	if p.Description == "" {
		return domain.Validation("package description is required")
	}
	if math.IsNaN(p.Weight) || p.Weight <= 0 {
		return domain.Validation("package weight must be greater than 0")
	}
	if p.Dimensions != nil {
		v := strings.TrimSpace(*p.Dimensions)
		if v == "" {
			p.Dimensions = nil
		} else {
			p.Dimensions = &v
		}
	}
	if math.IsNaN(n.TotalAmount) || n.TotalAmount < 0 {
		return domain.Validation("total amount cannot be negative")
	}
	return nil
}

func validateParty(field string, p *Party) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return domain.Validation("%s name is required", field)
	}
	phone, err := util.NormalizeE164(p.Phone)
	if err != nil {
		return domain.Validation("%s %s", field, err.Error())
	}
	p.Phone = phone
	return nil
}

func validateAddress(field string, a *Address) error {
	a.Text = strings.TrimSpace(a.Text)
	if a.Text == "" {
		return domain.Validation("%s is required", field)
	}
	if (a.Lat == nil) != (a.Lng == nil) {
		return domain.Validation("%s needs both lat and lng", field)
	}
	if a.Lat != nil && (*a.Lat < -90 || *a.Lat > 90) {
		return domain.Validation("%s lat must be within [-90, 90]", field)
	}
	if a.Lng != nil && (*a.Lng < -180 || *a.Lng > 180) {
		return domain.Validation("%s lng must be within [-180, 180]", field)
	}
	return nil
}
