package driver

import "time"

// Status is where a file stands in a check.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusWorking:
		return "checking"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Event reports a status change of one file.
type Event struct {
	File    string
	Status  Status
	Elapsed time.Duration
}

// ProgressSink consumes progress events. OnEvent is called from worker
// goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events to a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}
