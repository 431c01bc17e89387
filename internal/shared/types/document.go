package types

// Property keys with element-specific handling. Everything else in a
// patch is treated as an inline style declaration.
const (
	PropInnerHTML = "innerHTML"
	PropSrc       = "src"
)

// PropertyPatch maps property names to replacement string values.
// Style properties use their CSS names ("background", "font-size").
type PropertyPatch map[string]string

// Styles returns the patch entries that are plain style declarations,
// excluding the specially handled keys.
func (p PropertyPatch) Styles() PropertyPatch {
	styles := make(PropertyPatch, len(p))
	for name, value := range p {
		if name == PropInnerHTML || name == PropSrc {
			continue
		}
		styles[name] = value
	}
	return styles
}

// Clone returns an independent copy of the patch
func (p PropertyPatch) Clone() PropertyPatch {
	if p == nil {
		return nil
	}
	out := make(PropertyPatch, len(p))
	for name, value := range p {
		out[name] = value
	}
	return out
}

// Selection describes the currently selected element.
// At most one element is selected at a time; a nil *Selection means
// nothing is selected.
type Selection struct {
	ElementID string        `json:"element_id"`
	Tag       string        `json:"tag"`
	Props     PropertyPatch `json:"props,omitempty"`
}

// IsImage reports whether the selected element edits as an image
// (src swap) rather than as text content.
func (s *Selection) IsImage() bool {
	return s != nil && s.Tag == "img"
}

// Clone returns an independent copy of the selection
func (s *Selection) Clone() *Selection {
	if s == nil {
		return nil
	}
	return &Selection{
		ElementID: s.ElementID,
		Tag:       s.Tag,
		Props:     s.Props.Clone(),
	}
}

// EditorStats contains editor-wide statistics
type EditorStats struct {
	TotalSessions  int `json:"total_sessions"`
	ActiveSessions int `json:"active_sessions"`
	TaggedElements int `json:"tagged_elements"`
}
