package types

// MessageType discriminates messages on the host/context channel
type MessageType string

// Events flow from a render context to the host
const (
	EventSelection      MessageType = "selection"
	EventContentChanged MessageType = "content-changed"
	EventReady          MessageType = "iframe-ready"
	EventPropsApplied   MessageType = "props-applied"
)

// Commands flow from the host to a render context
const (
	CommandApplyProps     MessageType = "apply-props"
	CommandClearSelection MessageType = "clear-selection"
	CommandClick          MessageType = "click"
	CommandInput          MessageType = "input"
	CommandRunScript      MessageType = "run-script"
	CommandLoadDocument   MessageType = "load-document"
)

// IsEvent reports whether t is a context-to-host event
func (t MessageType) IsEvent() bool {
	switch t {
	case EventSelection, EventContentChanged, EventReady, EventPropsApplied:
		return true
	}
	return false
}

// IsCommand reports whether t is a host-to-context command
func (t MessageType) IsCommand() bool {
	switch t {
	case CommandApplyProps, CommandClearSelection, CommandClick,
		CommandInput, CommandRunScript, CommandLoadDocument:
		return true
	}
	return false
}

// Message is the single envelope exchanged between the host and a render
// context. Both directions share one shape; unused fields stay empty.
//
// Channel carries the token minted at bootstrap time. A context only
// honors commands bearing its own token, and the host drops events whose
// token does not match the live context.
type Message struct {
	Type    MessageType `json:"type"`
	Channel string      `json:"channel,omitempty"`

	// Element targeting (selection, click, apply-props)
	ElementID string `json:"element_id,omitempty"`
	Tag       string `json:"tag,omitempty"`

	// Property values (apply-props payload, selection snapshot)
	Props PropertyPatch `json:"props,omitempty"`

	// Full serialized document (content-changed, load-document)
	Markup string `json:"markup,omitempty"`

	// Text replacement for inline edits (input)
	Text string `json:"text,omitempty"`

	// Script source (run-script)
	Script string `json:"script,omitempty"`

	// Correlates props-applied acknowledgments with their apply-props
	Seq uint64 `json:"seq,omitempty"`
}

// NewSelection builds a selection event for the given element
func NewSelection(channel, elementID, tag string, props PropertyPatch) *Message {
	return &Message{
		Type:      EventSelection,
		Channel:   channel,
		ElementID: elementID,
		Tag:       tag,
		Props:     props,
	}
}

// NewContentChanged builds a content-changed event carrying the full markup
func NewContentChanged(channel, markup string) *Message {
	return &Message{
		Type:    EventContentChanged,
		Channel: channel,
		Markup:  markup,
	}
}

// NewReady builds the ready handshake event
func NewReady(channel string) *Message {
	return &Message{
		Type:    EventReady,
		Channel: channel,
	}
}

// NewPropsApplied builds an acknowledgment for an apply-props command
func NewPropsApplied(channel, markup string, seq uint64) *Message {
	return &Message{
		Type:    EventPropsApplied,
		Channel: channel,
		Markup:  markup,
		Seq:     seq,
	}
}

// NewApplyProps builds an apply-props command
func NewApplyProps(channel, elementID string, props PropertyPatch, seq uint64) *Message {
	return &Message{
		Type:      CommandApplyProps,
		Channel:   channel,
		ElementID: elementID,
		Props:     props,
		Seq:       seq,
	}
}

// NewClearSelection builds a clear-selection command
func NewClearSelection(channel string) *Message {
	return &Message{
		Type:    CommandClearSelection,
		Channel: channel,
	}
}

// NewClick builds a click command targeting an element
func NewClick(channel, elementID string) *Message {
	return &Message{
		Type:      CommandClick,
		Channel:   channel,
		ElementID: elementID,
	}
}

// NewInput builds an input command replacing an element's text
func NewInput(channel, elementID, text string) *Message {
	return &Message{
		Type:      CommandInput,
		Channel:   channel,
		ElementID: elementID,
		Text:      text,
	}
}

// NewRunScript builds a run-script command
func NewRunScript(channel, script string) *Message {
	return &Message{
		Type:    CommandRunScript,
		Channel: channel,
		Script:  script,
	}
}

// NewLoadDocument builds a load-document command carrying new markup
func NewLoadDocument(channel, markup string) *Message {
	return &Message{
		Type:    CommandLoadDocument,
		Channel: channel,
		Markup:  markup,
	}
}
