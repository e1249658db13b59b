package protocol

import "strings"

// Action is the wire-level verb of a message envelope (§3). Unknown or
// absent values default to Get when parsed off the wire.
type Action string

const (
	Get      Action = "GET"
	Post     Action = "POST"
	Response Action = "RESPONSE"
	Notify   Action = "NOTIFY"
)

func (a Action) String() string { return string(a) }

// parseAction upper-cases s and maps it onto a known Action, defaulting to
// Get for anything unrecognised (including the empty string).
func parseAction(s string) Action {
	switch Action(strings.ToUpper(s)) {
	case Get, Post, Response, Notify:
		return Action(strings.ToUpper(s))
	default:
		return Get
	}
}
