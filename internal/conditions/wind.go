// Package conditions holds the pure rule engines derived from waypoint
// weather: road-surface classification, vehicle-aware safety scoring, and
// hazard alert generation. Everything here is deterministic and I/O free.
package conditions

// ParseWindSpeed extracts the leading integer from free-text wind speed
// such as "15 mph" or "10 to 20 mph". It is the single wind parser for the
// whole codebase; every rule engine reads wind through it so the behavior
// cannot drift between consumers. Missing or non-numeric text parses as 0.
func ParseWindSpeed(text string) int {
	start := -1
	for i := 0; i < len(text); i++ {
		if text[i] >= '0' && text[i] <= '9' {
			start = i
			break
		}
	}
	if start < 0 {
		return 0
	}
	speed := 0
	for i := start; i < len(text); i++ {
		c := text[i]
		if c < '0' || c > '9' {
			break
		}
		speed = speed*10 + int(c-'0')
	}
	return speed
}
