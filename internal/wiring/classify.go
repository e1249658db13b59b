package wiring

import "strings"

// Kind is the runtime shape wiring assigns to one entity, per §4.6's
// classification rules. It has no wire representation; it only steers
// which helper a caller reaches for.
type Kind string

const (
	KindNumeric      Kind = "numeric"
	KindSelector     Kind = "selector"
	KindSwitch       Kind = "switch"
	KindBinarySensor Kind = "binary_sensor"
	KindSensor       Kind = "sensor"
	KindCommand      Kind = "command"
	KindEvent        Kind = "event"
	KindProgram      Kind = "program"
)

var onLabels = map[string]bool{"on": true, "standby": true, "true": true}
var offLabels = map[string]bool{"off": true, "mainsoff": true, "false": true}

// detectOnOff scans an enum_map for recognisable on/off labels
// (case-insensitive), breaking ties by the max key for on and the min
// key for off. ok is false unless both an on and an off candidate were
// found.
func detectOnOff(enumMap map[int]string) (onKey, offKey int, ok bool) {
	haveOn, haveOff := false, false
	for k, v := range enumMap {
		switch {
		case onLabels[strings.ToLower(v)]:
			if !haveOn || k > onKey {
				onKey = k
				haveOn = true
			}
		case offLabels[strings.ToLower(v)]:
			if !haveOff || k < offKey {
				offKey = k
				haveOff = true
			}
		}
	}
	return onKey, offKey, haveOn && haveOff
}
