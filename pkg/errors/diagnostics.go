package errors

import (
	"encoding/json"
	"maps"
	"slices"
	"sync"
)

// Diagnostic tags. A tag names the configuration area a message belongs to;
// setting a tag again replaces its message.
const (
	TagColor           = "color"
	TagBackgroundColor = "background_color"
	TagShadowColor     = "text_shadow_color"
	TagStrokeColor     = "text_stroke_color"
	TagTextPosition    = "text_position"
	TagLogoPosition    = "logo_position"
	TagLogo            = "logo"
	TagFont            = "font"
	TagImage           = "image"
	TagText            = "text"
	TagStore           = "store"
)

// Diagnostics collects recoverable configuration errors keyed by tag.
// The zero value is ready to use and safe for concurrent use.
type Diagnostics struct {
	mu   sync.Mutex
	msgs map[string]string
}

// NewDiagnostics returns diagnostics seeded with msgs.
func NewDiagnostics(msgs map[string]string) *Diagnostics {
	d := &Diagnostics{}
	for tag, msg := range msgs {
		d.Set(tag, msg)
	}
	return d
}

// Set records msg under tag. An empty msg clears the tag.
func (d *Diagnostics) Set(tag, msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if msg == "" {
		delete(d.msgs, tag)
		return
	}
	if d.msgs == nil {
		d.msgs = make(map[string]string)
	}
	d.msgs[tag] = msg
}

// SetError records the user message of err under tag. A nil err clears the tag.
func (d *Diagnostics) SetError(tag string, err error) {
	if err == nil {
		d.Set(tag, "")
		return
	}
	d.Set(tag, UserMessage(err))
}

// Clear removes tag.
func (d *Diagnostics) Clear(tag string) {
	d.Set(tag, "")
}

// Get returns the message recorded for tag.
func (d *Diagnostics) Get(tag string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	msg, ok := d.msgs[tag]
	return msg, ok
}

// Len returns the number of recorded tags.
func (d *Diagnostics) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.msgs)
}

// Tags returns the recorded tags in sorted order.
func (d *Diagnostics) Tags() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Sorted(maps.Keys(d.msgs))
}

// Map returns a copy of all messages.
func (d *Diagnostics) Map() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return maps.Clone(d.msgs)
}

// MarshalJSON encodes the messages as a JSON object.
func (d *Diagnostics) MarshalJSON() ([]byte, error) {
	m := d.Map()
	if m == nil {
		m = map[string]string{}
	}
	return json.Marshal(m)
}

// UnmarshalJSON replaces the messages with a decoded JSON object.
func (d *Diagnostics) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	d.mu.Lock()
	d.msgs = nil
	d.mu.Unlock()
	for tag, msg := range m {
		d.Set(tag, msg)
	}
	return nil
}
