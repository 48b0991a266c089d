package core

import "sync"

// EventContext carries typed scalar payloads for a fired event, the same
// fixed-layout union the teacher uses for its input events, re-themed here
// to loader/runtime lifecycle notifications instead of keyboard/mouse state.
type EventContext struct {
	Data struct {
		I64 [2]int64
		U64 [2]uint64
		F64 [2]float64

		I32 [4]int32
		U32 [4]uint32
		F32 [4]float32

		I16 [8]int16
		U16 [8]uint16

		C [16]string
	}
}

// System internal event codes. Application/loader code should use codes
// beyond 255.
type SystemEventCode int

const (
	// Fired when the loader context records a non-fatal error (§7).
	// Context usage: C[0] = message.
	EVENT_CODE_LOAD_ERROR SystemEventCode = 0x01

	// Fired once shape loading (parallel phase, §4.2) has drained.
	EVENT_CODE_SHAPES_LOADED SystemEventCode = 0x02

	// Fired once all per-variant shaders have been submitted to the
	// compile cache (§2 "Control flow at load time").
	// Context usage: U32[0] = variant count.
	EVENT_CODE_VARIANTS_READY SystemEventCode = 0x03

	// Fired at the start of every render iteration (§4.9).
	// Context usage: U64[0] = iteration index.
	EVENT_CODE_ITERATION_STARTED SystemEventCode = 0x04

	// Fired when the film/AOV size changes (§6.5 explicit film size).
	// Context usage: U16[0] = width, U16[1] = height.
	EVENT_CODE_FILM_RESIZED SystemEventCode = 0x05

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

type eventCodeEntry struct {
	events []*registeredEvent
}

// State structure.
type eventSystemState struct {
	// Lookup table for event codes.
	registered [MAX_MESSAGE_CODES]eventCodeEntry
}

var onceEvent sync.Once
var isInitialized bool = false
var eventState *eventSystemState = nil

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listenerInst interface{}, data EventContext) bool

func EventInitialize() bool {
	if isInitialized {
		return false
	}
	onceEvent.Do(func() {
		eventState = &eventSystemState{}
	})
	isInitialized = true
	return true
}

func EventShutdown() error {
	for i := 0; i < MAX_MESSAGE_CODES; i++ {
		if len(eventState.registered[i].events) != 0 {
			eventState.registered[i].events = nil
		}
	}
	isInitialized = false
	return nil
}

// EventRegister listens for events sent with the provided code. A listener
// already registered for code is not registered again (whatever its
// callback) and causes this to return false.
func EventRegister(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if !isInitialized {
		return false
	}
	for _, e := range eventState.registered[code].events {
		if e.listener == listener {
			return false
		}
	}
	event := &registeredEvent{
		listener: listener,
		callback: onEvent,
	}
	eventState.registered[code].events = append(eventState.registered[code].events, event)
	return true
}

// EventUnregister stops listening for the given code/listener pair.
func EventUnregister(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if !isInitialized {
		return false
	}
	events := eventState.registered[code].events
	for i, e := range events {
		if e.listener == listener {
			eventState.registered[code].events = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

// EventFire dispatches an event to all listeners of the given code in
// registration order, stopping at the first listener that returns true.
func EventFire(code SystemEventCode, sender interface{}, context EventContext) bool {
	if !isInitialized {
		return false
	}
	for _, e := range eventState.registered[code].events {
		if e.callback(code, sender, e.listener, context) {
			return true
		}
	}
	return false
}
