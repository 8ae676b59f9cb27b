package revenue

import (
	"github.com/shopspring/decimal"

	"github.com/warp/training-report/course"
	"github.com/warp/training-report/generic"
)

// Canonicalizer maps a display name to its canonical institution group.
// *institution.Grouper implements it.
type Canonicalizer interface {
	Canonicalize(name string) string
}

// Parties are the canonical institutions a run can be attributed to.
type Parties struct {
	Training  string
	Partner   string
	Partnered bool
}

// Engine computes shares and attributions against one institution table.
type Engine struct {
	names Canonicalizer
}

func NewEngine(names Canonicalizer) *Engine {
	return &Engine{names: names}
}

// Canonicalize exposes the engine's name mapping.
func (e *Engine) Canonicalize(name string) string {
	return e.names.Canonicalize(name)
}

// Parties canonicalizes the run's training and partner institutions.
func (e *Engine) Parties(rec *course.ProcessedRecord) Parties {
	p := Parties{Training: e.names.Canonicalize(rec.TrainingInstitution)}
	if rec.IsPartneredCourse && rec.PartnerInstitution != "" {
		p.Partner = e.names.Canonicalize(rec.PartnerInstitution)
		p.Partnered = true
	}
	return p
}

// Shares returns the revenue and student shares of a canonical institution.
func (p Parties) Shares(institution string) (revenueShare, studentShare decimal.Decimal) {
	switch {
	case !p.Partnered || p.Training == p.Partner:
		if institution == p.Training {
			return generic.ShareFull, generic.ShareFull
		}
	case institution == p.Partner:
		return generic.SharePartner, generic.ShareFull
	case institution == p.Training:
		return generic.ShareTrainer, generic.ShareNone
	}
	return generic.ShareNone, generic.ShareNone
}

// RevenueShare returns 0, 0.1, 0.9 or 1 for the institution's cut of the run's revenue.
func (e *Engine) RevenueShare(rec *course.ProcessedRecord, institution string) decimal.Decimal {
	rs, _ := e.Parties(rec).Shares(e.names.Canonicalize(institution))
	return rs
}

// StudentShare returns 0 or 1: only the partner receives enrollment,
// completion and employment credit for a partnered run.
func (e *Engine) StudentShare(rec *course.ProcessedRecord, institution string) decimal.Decimal {
	_, ss := e.Parties(rec).Shares(e.names.Canonicalize(institution))
	return ss
}

// =============================================================================
// ATTRIBUTION - Per-institution view of a shared record
// =============================================================================

// Attribution is one institution's claim on a run. The record is shared and
// never modified; everything institution-specific lives here.
type Attribution struct {
	Record          *course.ProcessedRecord `json:"record"`
	Institution     string                  `json:"institution"`
	AssignedRevenue generic.Amount          `json:"assignedRevenue"`
	RevenueShare    decimal.Decimal         `json:"revenueShare"`
	StudentShare    decimal.Decimal         `json:"studentShare"`
}

// Attribute returns the institution's attribution for year (or AllYears).
// The bool is false when the institution has no revenue share in the run.
func (e *Engine) Attribute(rec *course.ProcessedRecord, institution string, year int) (Attribution, bool) {
	canonical := e.names.Canonicalize(institution)
	return AttributeParties(rec, e.Parties(rec), canonical, year)
}

// AttributeParties is Attribute with pre-computed parties and an already
// canonical institution name.
func AttributeParties(rec *course.ProcessedRecord, p Parties, institution string, year int) (Attribution, bool) {
	rs, ss := p.Shares(institution)
	if !rs.IsPositive() {
		return Attribution{}, false
	}
	return Attribution{
		Record:          rec,
		Institution:     institution,
		AssignedRevenue: CourseRevenue(rec, year, false).Mul(rs),
		RevenueShare:    rs,
		StudentShare:    ss,
	}, true
}

// StudentWeight multiplies a head count by the attribution's student share.
func (a Attribution) StudentWeight(count int) decimal.Decimal {
	return decimal.NewFromInt(int64(count)).Mul(a.StudentShare)
}
