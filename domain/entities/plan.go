package entities

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanStatus represents the status of a protection plan
type PlanStatus string

const (
	PlanStatusActive  PlanStatus = "Active"
	PlanStatusExpired PlanStatus = "Expired"
)

// Valid reports whether the status is one of the known plan states.
func (s PlanStatus) Valid() bool {
	return s == PlanStatusActive || s == PlanStatusExpired
}

// ProtectionPlan represents zero-or-one coverage attached to a device.
//
// Status is asserted by explicit operations only: creation and extension set
// it to Active, and an update request may set it to Expired. There is no
// clock-driven transition.
type ProtectionPlan struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	PlanName  string             `json:"planName" bson:"planName"`
	StartDate time.Time          `json:"startDate" bson:"startDate"`
	EndDate   time.Time          `json:"endDate" bson:"endDate"`
	Coverage  []string           `json:"coverage" bson:"coverage"`
	Status    PlanStatus         `json:"status" bson:"status"`
}

// NewProtectionPlan creates an active plan starting at now and ending
// durationMonths calendar months later. Month arithmetic follows
// time.AddDate normalization, so Jan 31 plus one month lands in early March.
func NewProtectionPlan(planName string, durationMonths int, coverage []string, now time.Time) *ProtectionPlan {
	return &ProtectionPlan{
		ID:        primitive.NewObjectID(),
		PlanName:  planName,
		StartDate: now,
		EndDate:   now.AddDate(0, durationMonths, 0),
		Coverage:  coverage,
		Status:    PlanStatusActive,
	}
}

// Extend pushes the end date forward by durationMonths from the existing end
// date, not from now, and forces the plan back to Active. The start date is
// left untouched.
func (p *ProtectionPlan) Extend(durationMonths int) {
	p.EndDate = p.EndDate.AddDate(0, durationMonths, 0)
	p.Status = PlanStatusActive
}

// DaysUntilExpiry returns the rounded number of days between now and the
// plan's end date. Negative when the plan has already lapsed.
func (p *ProtectionPlan) DaysUntilExpiry(now time.Time) int {
	return int(math.Round(p.EndDate.Sub(now).Hours() / 24))
}
