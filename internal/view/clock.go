package view

import (
	"time"
	_ "time/tzdata" // zones resolve on hosts without zoneinfo

	"github.com/runnerr0/quix/internal/config"
)

// ClockReading is one entry of the regional clock banner.
type ClockReading struct {
	City string `json:"city"`
	Flag string `json:"flag,omitempty"`
	Zone string `json:"zone"`
	Time string `json:"time"`
}

// Clocks formats now as HH:MM:SS (24h) in each configured zone. Zones that
// cannot be loaded are shown in UTC and returned in bad.
func Clocks(now time.Time, zones []config.TimeZone) (readings []ClockReading, bad []string) {
	readings = make([]ClockReading, 0, len(zones))
	for _, z := range zones {
		loc, err := loadLocation(z.Location)
		if err != nil {
			bad = append(bad, z.Location)
			loc = time.UTC
		}
		readings = append(readings, ClockReading{
			City: z.City,
			Flag: z.Flag,
			Zone: loc.String(),
			Time: now.In(loc).Format("15:04:05"),
		})
	}
	return readings, bad
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
