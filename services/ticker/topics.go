package ticker

import "timerhal-go/bus"

// Topic layout:
//
//	timer/ctl/<verb>   control requests: set, reset, time, resolution
//	timer/evt/fired    firing notifications
//	timer/evt/error    acknowledge failures
//	timer/state        retained service state

func CtlTopic(verb string) bus.Topic { return bus.Topic{"timer", "ctl", verb} }
func FiredTopic() bus.Topic          { return bus.Topic{"timer", "evt", "fired"} }
func ErrorTopic() bus.Topic          { return bus.Topic{"timer", "evt", "error"} }
func StateTopic() bus.Topic          { return bus.Topic{"timer", "state"} }

func ctlWildcard() bus.Topic { return bus.Topic{"timer", "ctl", bus.WildOne} }
