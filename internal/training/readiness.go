package training

import (
	"github.com/spigell/placement-matcher/internal/normalize"
)

// Stage is the readiness stage of a candidate. Stage values are shown to users
// and used as grouping keys, so they must not change.
type Stage string

const (
	StageReadyForPlacement  Stage = "Ready for Placement"
	StageInTraining         Stage = "In Training"
	StageStartedTraining    Stage = "Started Training"
	StageStartingSoon       Stage = "Starting Soon"
	StageOfferPending       Stage = "Offer Pending"
	StagePositionIdentified Stage = "Position Identified"
)

// Stages returns every stage in display order.
func Stages() []Stage {
	return []Stage{
		StageReadyForPlacement,
		StageInTraining,
		StageStartedTraining,
		StageStartingSoon,
		StageOfferPending,
		StagePositionIdentified,
	}
}

// Excluded reports whether candidates in this stage are left out of counts and matching.
func (s Stage) Excluded() bool {
	return s == StagePositionIdentified
}

func (s Stage) String() string { return string(s) }

// Classify maps a status and week to a stage. Rules are evaluated top to bottom
// and the first match wins:
//
//	position identified            -> Position Identified
//	offer pending                  -> Offer Pending
//	offer accepted                 -> Started Training
//	training, week >= 6            -> Ready for Placement
//	training, week 1..5            -> In Training
//	training, week unknown or 0    -> Started Training
//	start date in the future       -> Starting Soon
//	week >= 6                      -> Ready for Placement
//	week 1..5                      -> In Training
//	otherwise                      -> Started Training
func Classify(status string, week Week) Stage {
	switch normalize.Status(status) {
	case normalize.StatusPositionIdentified:
		return StagePositionIdentified
	case normalize.StatusOfferPending:
		return StageOfferPending
	case normalize.StatusOfferAccepted:
		return StageStartedTraining
	case normalize.StatusTraining:
		switch {
		case week.IsReady():
			return StageReadyForPlacement
		case week.InTraining():
			return StageInTraining
		case week.Kind == WeekUnknown, week.Kind == WeekElapsed && week.N == 0:
			return StageStartedTraining
		}
	}

	switch {
	case week.Kind == WeekAway:
		return StageStartingSoon
	case week.IsReady():
		return StageReadyForPlacement
	case week.InTraining():
		return StageInTraining
	default:
		return StageStartedTraining
	}
}
