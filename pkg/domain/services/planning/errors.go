package planning

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter is returned for a lookback below one or a negative fraction
var ErrInvalidParameter = errors.New("invalid planning parameter")

// InsufficientHistoryError reports that fewer demand records exist than the lookback window needs
type InsufficientHistoryError struct {
	Have int `json:"have"`
	Need int `json:"need"`
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient demand history: have %d record(s), need %d", e.Have, e.Need)
}
