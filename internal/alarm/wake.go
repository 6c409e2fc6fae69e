package alarm

import "time"

// NextWake returns the next instant at hour:minute:00 in now's location. A
// target equal to now, to the second, counts as past and moves to the next
// day, so identical consecutive firings are at least a day apart.
func NextWake(now time.Time, hour, minute int) time.Time {
	y, m, d := now.Date()
	target := time.Date(y, m, d, hour, minute, 0, 0, now.Location())
	if !target.After(now.Truncate(time.Second)) {
		target = time.Date(y, m, d+1, hour, minute, 0, 0, now.Location())
	}
	return target
}
