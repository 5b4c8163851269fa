package processor

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownTimeZone is returned when a zone identifier cannot be loaded.
var ErrUnknownTimeZone = errors.New("unknown time zone")

// ZoneResolver converts a local wall-clock hour into a UTC instant.
type ZoneResolver interface {
	Name() string
	// Resolve maps hour h (0-23) of the calendar day of date to UTC.
	Resolve(date time.Time, hour int) (time.Time, error)
}

// IANAZone resolves wall-clock times with the IANA time zone database.
//
// Ambiguous times (autumn fold) take the offset in force before the
// transition, i.e. the earlier instant. Non-existent times (spring gap) are
// pushed forward by the length of the gap.
type IANAZone struct {
	loc *time.Location
}

// LoadZone loads an IANA zone such as "Europe/Madrid".
func LoadZone(name string) (*IANAZone, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrUnknownTimeZone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnknownTimeZone, name, err)
	}
	return &IANAZone{loc: loc}, nil
}

// NewZone wraps an already loaded location.
func NewZone(loc *time.Location) *IANAZone {
	return &IANAZone{loc: loc}
}

func (z *IANAZone) Name() string {
	return z.loc.String()
}

func (z *IANAZone) Resolve(date time.Time, hour int) (time.Time, error) {
	if hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("hour %d out of range", hour)
	}
	y, m, d := date.Date()
	wall := time.Date(y, m, d, hour, 0, 0, 0, time.UTC).Unix()

	// Transitions are never closer than a few days apart, so the offsets
	// one day either side bracket any transition touching this wall time.
	before := z.offsetAt(wall - secondsPerDay)
	after := z.offsetAt(wall + secondsPerDay)

	validBefore := z.offsetAt(wall-before) == before
	validAfter := z.offsetAt(wall-after) == after

	var offset int64
	switch {
	case validBefore:
		// unambiguous, or a fold where the pre-transition offset wins
		offset = before
	case validAfter:
		offset = after
	default:
		// gap: reading the wall time with the old offset lands past the
		// transition, which is the wall time moved forward by the gap
		offset = before
	}
	return time.Unix(wall-offset, 0).UTC(), nil
}

const secondsPerDay = 24 * 60 * 60

func (z *IANAZone) offsetAt(unix int64) int64 {
	_, offset := time.Unix(unix, 0).In(z.loc).Zone()
	return int64(offset)
}
