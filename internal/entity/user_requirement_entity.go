package entity

import (
	"github.com/google/uuid"
)

// UserRequirement is the accumulated requirements record for a session.
// Nil fields are simply not known yet.
type UserRequirement struct {
	ChatSessionId uuid.UUID
	EventType     *string
	Location      *string
	Attendees     *int
	Budget        *string
	StartDate     *string
	EndDate       *string
	Email         *string
	CustomerName  *string
}

// UserRequirementPatch is a partial update. A nil field means "keep existing".
type UserRequirementPatch struct {
	EventType    *string
	Location     *string
	Attendees    *int
	Budget       *string
	StartDate    *string
	EndDate      *string
	Email        *string
	CustomerName *string
}

// Merge applies the patch field-wise: incoming if present, else existing.
// A populated field is never overwritten by an absent one.
func (r *UserRequirement) Merge(p *UserRequirementPatch) {
	if p == nil {
		return
	}
	if p.EventType != nil {
		r.EventType = p.EventType
	}
	if p.Location != nil {
		r.Location = p.Location
	}
	if p.Attendees != nil {
		r.Attendees = p.Attendees
	}
	if p.Budget != nil {
		r.Budget = p.Budget
	}
	if p.StartDate != nil {
		r.StartDate = p.StartDate
	}
	if p.EndDate != nil {
		r.EndDate = p.EndDate
	}
	if p.Email != nil {
		r.Email = p.Email
	}
	if p.CustomerName != nil {
		r.CustomerName = p.CustomerName
	}
}

// IsEmpty reports whether the patch carries no fields at all.
func (p *UserRequirementPatch) IsEmpty() bool {
	return p == nil || (p.EventType == nil && p.Location == nil && p.Attendees == nil &&
		p.Budget == nil && p.StartDate == nil && p.EndDate == nil &&
		p.Email == nil && p.CustomerName == nil)
}
