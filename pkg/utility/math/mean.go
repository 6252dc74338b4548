package math

import (
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

// Mean of data, zero when data is empty.
func Mean(data []fixed.Point) fixed.Point {
	if len(data) == 0 {
		return fixed.Zero
	}
	var sum fixed.Point
	for _, r := range data {
		sum = sum.Add(r)
	}
	return sum.DivInt(len(data))
}
