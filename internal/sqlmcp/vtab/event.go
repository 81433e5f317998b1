package vtab

// EventKind tags a StreamEvent.
type EventKind uint8

const (
	EventItem EventKind = iota + 1
	EventText
	EventError
	EventDone
)

func (k EventKind) String() string {
	switch k {
	case EventItem:
		return "Item"
	case EventText:
		return "Text"
	case EventError:
		return "Error"
	case EventDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Event is one element of a stream handle's sequence. Item carries a tool
// payload as JSON, Text a chunk of invocation output, Error a message.
// Exactly one Error or Done terminates a sequence.
type Event struct {
	Kind EventKind
	Data string
}

func ItemEvent(payload string) Event { return Event{Kind: EventItem, Data: payload} }
func TextEvent(chunk string) Event   { return Event{Kind: EventText, Data: chunk} }
func ErrorEvent(msg string) Event    { return Event{Kind: EventError, Data: msg} }
func DoneEvent() Event               { return Event{Kind: EventDone} }

// Terminal reports whether the event ends its sequence.
func (e Event) Terminal() bool {
	return e.Kind == EventError || e.Kind == EventDone
}

// step is what a cursor does with the outcome of one await.
type step uint8

const (
	stepRow step = iota
	stepEOF
	stepFail
)

// translate maps the outcome of AwaitNext to a cursor step. A missed
// deadline (ok == false) is an ordinary end of scan.
func translate(ev Event, ok bool) (step, error) {
	if !ok {
		return stepEOF, nil
	}
	switch ev.Kind {
	case EventItem, EventText:
		return stepRow, nil
	case EventError:
		return stepFail, &RemoteError{Message: ev.Data}
	default:
		return stepEOF, nil
	}
}
