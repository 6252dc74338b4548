package common

import (
	"time"

	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

// Tick is a single executed trade. Side is the aggressor side.
type Tick struct {
	TimeStamp   time.Time   `json:"ts"`
	Price       fixed.Point `json:"price"`
	Size        fixed.Point `json:"size"`
	Side        Side        `json:"side"`
	Liquidation bool        `json:"liquidation,omitempty"`
	ID          string      `json:"id,omitempty"`
}
