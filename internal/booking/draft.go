package booking

import (
	"time"

	"github.com/wolfman30/pawcare-booking/internal/catalog"
	"github.com/wolfman30/pawcare-booking/internal/pets"
	"github.com/wolfman30/pawcare-booking/internal/pricing"
	"github.com/wolfman30/pawcare-booking/internal/schedule"
)

// Step is a wizard state.
type Step string

const (
	StepDetails      Step = "details"
	StepServices     Step = "services"
	StepConfirmation Step = "confirmation"
)

// Draft is the in-progress appointment collected by the wizard.
type Draft struct {
	Pet      *pets.Pet           `json:"pet,omitempty"`
	Date     *schedule.Date      `json:"date,omitempty"`
	Time     *schedule.TimeOfDay `json:"time,omitempty"`
	Services []catalog.Service   `json:"services"`
	Notes    string              `json:"notes"`
}

func (d Draft) clone() Draft {
	out := Draft{Notes: d.Notes, Services: make([]catalog.Service, len(d.Services))}
	copy(out.Services, d.Services)
	if d.Pet != nil {
		p := *d.Pet
		out.Pet = &p
	}
	if d.Date != nil {
		v := *d.Date
		out.Date = &v
	}
	if d.Time != nil {
		v := *d.Time
		out.Time = &v
	}
	return out
}

func (d Draft) missingDetails() []string {
	var missing []string
	if d.Pet == nil {
		missing = append(missing, "pet")
	}
	if d.Date == nil {
		missing = append(missing, "date")
	}
	if d.Time == nil {
		missing = append(missing, "time")
	}
	return missing
}

func (d Draft) hasService(id int) bool {
	for _, svc := range d.Services {
		if svc.ID == id {
			return true
		}
	}
	return false
}

// Order is a confirmed draft with its pricing, ready for checkout.
type Order struct {
	ID          string             `json:"id"`
	Pet         pets.Pet           `json:"pet"`
	Date        schedule.Date      `json:"date"`
	Time        schedule.TimeOfDay `json:"time"`
	Services    []catalog.Service  `json:"services"`
	Notes       string             `json:"notes"`
	Pricing     pricing.Result     `json:"pricing"`
	ConfirmedAt time.Time          `json:"confirmed_at"`
}

// ServiceIDs returns the ids of the ordered services in selection order.
func (o Order) ServiceIDs() []int {
	ids := make([]int, 0, len(o.Services))
	for _, svc := range o.Services {
		ids = append(ids, svc.ID)
	}
	return ids
}
