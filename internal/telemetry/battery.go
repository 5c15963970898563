package telemetry

import (
	"github.com/distatus/battery"
)

// summarizeBatteries folds every readable battery into one charge level,
// weighted by capacity. Batteries whose state or charge could not be read
// are skipped; hosts without any (desktops, containers) report ok=false.
func summarizeBatteries(bats []*battery.Battery, err error) (percent float64, charging bool, ok bool) {
	var perBattery battery.Errors
	if err != nil {
		errs, isErrors := err.(battery.Errors)
		if !isErrors {
			return 0, false, false
		}
		perBattery = errs
	}

	var current, full float64
	for i, b := range bats {
		if b == nil || b.Full <= 0 {
			continue
		}
		if i < len(perBattery) && !readable(perBattery[i]) {
			continue
		}
		current += b.Current
		full += b.Full
		ok = true
		if b.State.Raw == battery.Charging || b.State.Raw == battery.Full {
			charging = true
		}
	}
	if !ok {
		return 0, false, false
	}
	return min(current*100/full, 100), charging, true
}

// readable reports whether a per-battery error left the fields Battery
// needs intact.
func readable(err error) bool {
	switch e := err.(type) {
	case nil:
		return true
	case battery.ErrPartial:
		return e.State == nil && e.Current == nil && e.Full == nil
	}
	return false
}
