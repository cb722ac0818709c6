package services

import "log"

// TelemetryService is the fire-and-forget event sink. Track never
// blocks the calling operation and never surfaces an error; when the
// buffer is full the event is dropped.
type TelemetryService struct {
	events chan telemetryEvent
	done   chan struct{}
}

type telemetryEvent struct {
	Name  string
	Props map[string]interface{}
}

func NewTelemetryService() *TelemetryService {
	t := &TelemetryService{
		events: make(chan telemetryEvent, 256),
		done:   make(chan struct{}),
	}
	go t.drain()
	return t
}

func (t *TelemetryService) drain() {
	for ev := range t.events {
		log.Printf("📊 telemetry: %s %v", ev.Name, ev.Props)
	}
	close(t.done)
}

// Track records an event. Safe to call on a nil service.
func (t *TelemetryService) Track(name string, props map[string]interface{}) {
	if t == nil {
		return
	}
	select {
	case t.events <- telemetryEvent{Name: name, Props: props}:
	default:
		// full buffer: drop rather than block the caller
	}
}

// Close flushes buffered events and stops the drain goroutine.
func (t *TelemetryService) Close() {
	if t == nil {
		return
	}
	close(t.events)
	<-t.done
}
