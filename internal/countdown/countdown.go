// Package countdown computes the remaining time toward a target instant.
package countdown

import (
	"time"

	"github.com/timeweaver-api/internal/domain"
)

const (
	dayMs    = 24 * 60 * 60 * 1000
	hourMs   = 60 * 60 * 1000
	minuteMs = 60 * 1000
)

// Remaining breaks the distance from now to target into whole days, hours,
// minutes and seconds, flooring at every boundary. When target <= now it
// reports expired with all fields zero. Pure function, one-second resolution.
func Remaining(target, now time.Time) (domain.TimeLeft, bool) {
	distance := target.Sub(now).Milliseconds()
	if distance <= 0 {
		return domain.TimeLeft{}, true
	}
	return domain.TimeLeft{
		Days:    int(distance / dayMs),
		Hours:   int((distance % dayMs) / hourMs),
		Minutes: int((distance % hourMs) / minuteMs),
		Seconds: int((distance % minuteMs) / 1000),
	}, false
}
