package daycycle

import (
	"errors"
	"fmt"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
)

// State is the controller's position in the day cycle
type State int

const (
	AwaitingInput State = iota
	View
	EditDemand
	ViewSchedule
	OrderMaterials
	CloseDay
	Terminated
)

// String method for State enum
func (s State) String() string {
	switch s {
	case AwaitingInput:
		return "AWAITING_INPUT"
	case View:
		return "VIEW"
	case EditDemand:
		return "EDIT_DEMAND"
	case ViewSchedule:
		return "VIEW_SCHEDULE"
	case OrderMaterials:
		return "ORDER_MATERIALS"
	case CloseDay:
		return "CLOSE_DAY"
	case Terminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// ErrTerminated is returned by every operation after Exit
var ErrTerminated = errors.New("day cycle terminated")

// InfeasibleError refuses a close: stock left after today cannot cover the next period
type InfeasibleError struct {
	Period    entities.Period
	Shortfall entities.Materials
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("cannot close the day: stock does not cover period %d, short %s", e.Period, e.Shortfall)
}
