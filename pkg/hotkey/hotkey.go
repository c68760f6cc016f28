// Package hotkey turns global key combinations into session triggers.
//
// Registering chords with the operating system is outside this module; a
// Bridge only reports which abstract action fired.
package hotkey

import (
	"fmt"
	"strings"
)

// Trigger is an abstract session action.
type Trigger int

const (
	TriggerCreate Trigger = iota + 1
	TriggerHideAll
	TriggerShowAll
	TriggerReload
)

var triggerNames = map[Trigger]string{
	TriggerCreate:  "create",
	TriggerHideAll: "hide-all",
	TriggerShowAll: "show-all",
	TriggerReload:  "reload",
}

func (t Trigger) String() string {
	if name, ok := triggerNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Trigger(%d)", int(t))
}

// ParseTrigger maps an action name ("create", "hide-all", "show-all",
// "reload") to its Trigger. Underscores are accepted in place of dashes.
func ParseTrigger(name string) (Trigger, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for t, tn := range triggerNames {
		if tn == n {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

// Bridge reports triggers fired by the user.
// The channel is closed when the bridge has nothing more to report.
type Bridge interface {
	Triggers() <-chan Trigger
}

// ChannelBridge fires triggers programmatically.
type ChannelBridge struct {
	ch chan Trigger
}

func NewChannelBridge(buffer int) *ChannelBridge {
	return &ChannelBridge{ch: make(chan Trigger, buffer)}
}

func (b *ChannelBridge) Triggers() <-chan Trigger {
	return b.ch
}

// Fire queues t without blocking. It reports false when the buffer is full.
func (b *ChannelBridge) Fire(t Trigger) bool {
	select {
	case b.ch <- t:
		return true
	default:
		return false
	}
}

// Close ends the trigger stream. Fire must not be called afterwards.
func (b *ChannelBridge) Close() {
	close(b.ch)
}
