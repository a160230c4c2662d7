package trip

import (
	"fmt"
	"math"
	"sort"

	"routecast/internal/geo"
	"routecast/internal/types"
)

const (
	// clearanceAlertCap triggers filtering of comfortable clearances when
	// the raw list grows past it.
	clearanceAlertCap = 10

	// clearanceComfortMarginFt is the margin above which an alert is
	// dropped from oversized lists.
	clearanceComfortMarginFt = 3.0
)

// BridgeClearanceAlerts grades each known clearance against the vehicle
// height: negative or sub-half-foot margins are danger, under two feet is
// caution, everything else safe. Alerts are positioned along the route,
// sorted by distance, and deduplicated.
func BridgeClearanceAlerts(clearances []types.Clearance, routeCoords []types.Coordinate, vehicleHeightFt float64) []types.BridgeClearanceAlert {
	var alerts []types.BridgeClearanceAlert

	for _, c := range clearances {
		margin := c.ClearanceFt - vehicleHeightFt

		var level, message string
		switch {
		case margin < 0:
			level = "danger"
			message = fmt.Sprintf("DANGER: %.1f' clearance - %.1f' BELOW your vehicle height!", c.ClearanceFt, math.Abs(margin))
		case margin < 0.5:
			level = "danger"
			message = fmt.Sprintf("CRITICAL: Only %.1f' margin - DO NOT ATTEMPT", margin)
		case margin < 1.0:
			level = "caution"
			message = fmt.Sprintf("CAUTION: Tight clearance - only %.1f' margin", margin)
		case margin < 2.0:
			level = "caution"
			message = fmt.Sprintf("Low clearance ahead: %.1f' (%.1f' margin)", c.ClearanceFt, margin)
		default:
			level = "safe"
			message = fmt.Sprintf("Clearance OK: %.1f' (%.1f' margin)", c.ClearanceFt, margin)
		}

		alerts = append(alerts, types.BridgeClearanceAlert{
			Location:        c.Location,
			Lat:             c.Lat,
			Lon:             c.Lon,
			ClearanceFt:     math.Round(c.ClearanceFt*10) / 10,
			VehicleHeightFt: vehicleHeightFt,
			MarginFt:        math.Round(margin*10) / 10,
			WarningLevel:    level,
			DistanceMiles:   distanceAlongRoute(routeCoords, types.Coordinate{Lat: c.Lat, Lon: c.Lon}),
			Highway:         c.Highway,
			Direction:       c.Direction,
			Message:         message,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DistanceMiles < alerts[j].DistanceMiles
	})

	alerts = dedupeClearanceAlerts(alerts)

	if len(alerts) > clearanceAlertCap {
		filtered := alerts[:0]
		for _, a := range alerts {
			if a.MarginFt < clearanceComfortMarginFt || a.WarningLevel != "safe" {
				filtered = append(filtered, a)
			}
		}
		alerts = filtered
	}

	return alerts
}

// distanceAlongRoute walks the route accumulating distance until it passes
// within a tenth of a mile of the target.
func distanceAlongRoute(routeCoords []types.Coordinate, target types.Coordinate) float64 {
	distance := 0.0
	for i, p := range routeCoords {
		if i > 0 {
			distance += geo.Distance(routeCoords[i-1], p)
		}
		if geo.Distance(p, target) < 0.1 {
			break
		}
	}
	return math.Round(distance*10) / 10
}

// dedupeClearanceAlerts removes alerts repeating the same structure: same
// name within a tenth of a mile, or effectively identical coordinates.
func dedupeClearanceAlerts(alerts []types.BridgeClearanceAlert) []types.BridgeClearanceAlert {
	var out []types.BridgeClearanceAlert
	for _, a := range alerts {
		dup := false
		for _, kept := range out {
			if kept.Location == a.Location && math.Abs(kept.DistanceMiles-a.DistanceMiles) < 0.1 {
				dup = true
				break
			}
			if math.Abs(kept.Lat-a.Lat) < 0.001 && math.Abs(kept.Lon-a.Lon) < 0.001 {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, a)
		}
	}
	return out
}
