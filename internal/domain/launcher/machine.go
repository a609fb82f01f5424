package launcher

import (
	"github.com/felixgeelhaar/statekit"
)

// State is a launcher lifecycle state.
type State string

// Lifecycle states.
const (
	StateIdle      State = "idle"
	StateStarting  State = "starting"
	StateWaiting   State = "waiting"
	StateReady     State = "ready"
	StateTunneling State = "tunneling"
	StateExposed   State = "exposed"
	StateFailed    State = "failed"
	StateStopped   State = "stopped"
)

// Lifecycle events.
const (
	EventStart        = "START"
	EventStarted      = "STARTED"
	EventReady        = "READY"
	EventTunnel       = "TUNNEL"
	EventTunnelFailed = "TUNNEL_FAILED"
	EventExposed      = "EXPOSED"
	EventFail         = "FAIL"
	EventStop         = "STOP"
)

// Lifecycle is the data carried by the launcher state machine.
type Lifecycle struct {
	URL string
	Err error
}

// buildMachine constructs the launcher state machine. Actions write through
// the captured lifecycle pointer.
func buildMachine(lc *Lifecycle) (*statekit.Interpreter[Lifecycle], error) {
	machine, err := statekit.NewMachine[Lifecycle]("comfyboot-launcher").
		WithInitial("idle").
		WithContext(*lc).
		WithAction("recordURL", func(_ *Lifecycle, event statekit.Event) {
			if url, ok := event.Payload.(string); ok {
				lc.URL = url
			}
		}).
		WithAction("recordFailure", func(_ *Lifecycle, event statekit.Event) {
			if err, ok := event.Payload.(error); ok {
				lc.Err = err
			}
		}).
		State("idle").
		On(EventStart).Target("starting").Done().
		State("starting").
		On(EventStarted).Target("waiting").
		On(EventFail).Target("failed").
		On(EventStop).Target("stopped").Done().
		State("waiting").
		On(EventReady).Target("ready").
		On(EventFail).Target("failed").
		On(EventStop).Target("stopped").Done().
		State("ready").
		On(EventTunnel).Target("tunneling").
		On(EventFail).Target("failed").
		On(EventStop).Target("stopped").Done().
		State("tunneling").
		On(EventExposed).Target("exposed").
		On(EventTunnelFailed).Target("ready").
		On(EventFail).Target("failed").
		On(EventStop).Target("stopped").Done().
		State("exposed").
		OnEntry("recordURL").
		On(EventFail).Target("failed").
		On(EventStop).Target("stopped").Done().
		State("failed").
		OnEntry("recordFailure").Done().
		State("stopped").Done().
		Build()
	if err != nil {
		return nil, err
	}
	return statekit.NewInterpreter(machine), nil
}
