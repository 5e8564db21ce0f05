package types

// TextFrame carries one piece of model output.
type TextFrame struct {
	Text string `json:"text"`
}

// ErrorFrame reports a failure after the stream has opened. It is always
// followed by a DoneFrame.
type ErrorFrame struct {
	Error string `json:"error"`
}

// DoneFrame closes every stream exactly once.
type DoneFrame struct {
	Event string `json:"event"`
}

// EventDone is the value of DoneFrame.Event.
const EventDone = "done"

// Done returns the terminal frame.
func Done() DoneFrame {
	return DoneFrame{Event: EventDone}
}
