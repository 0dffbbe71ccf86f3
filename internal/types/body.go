// internal/types/body.go
package types

import (
	"bytes"
	"mime"
	"strings"
)

// BodyState distinguishes the four body states of a request or response.
type BodyState int

const (
	BodyMissing BodyState = iota
	BodyNull
	BodyEmpty
	BodyPresent
)

// String returns the upper-case state name.
func (s BodyState) String() string {
	switch s {
	case BodyMissing:
		return "MISSING"
	case BodyNull:
		return "NULL"
	case BodyEmpty:
		return "EMPTY"
	case BodyPresent:
		return "PRESENT"
	default:
		return "UNKNOWN"
	}
}

// OptionalBody is a body plus its state. Value is meaningful only when State is BodyPresent.
type OptionalBody struct {
	State BodyState
	Value []byte
}

// MissingBody returns a body in the MISSING state.
func MissingBody() OptionalBody { return OptionalBody{State: BodyMissing} }

// NullBody returns a body in the NULL state.
func NullBody() OptionalBody { return OptionalBody{State: BodyNull} }

// EmptyBody returns a body in the EMPTY state.
func EmptyBody() OptionalBody { return OptionalBody{State: BodyEmpty} }

// BodyOf classifies data: nil is MISSING, zero length is EMPTY, anything else PRESENT.
func BodyOf(data []byte) OptionalBody {
	switch {
	case data == nil:
		return MissingBody()
	case len(data) == 0:
		return EmptyBody()
	default:
		return OptionalBody{State: BodyPresent, Value: data}
	}
}

// PresentBody returns a PRESENT body holding data.
func PresentBody(data string) OptionalBody {
	return OptionalBody{State: BodyPresent, Value: []byte(data)}
}

// IsPresent reports whether the body carries content.
func (b OptionalBody) IsPresent() bool { return b.State == BodyPresent }

// IsMissing reports whether no body was given.
func (b OptionalBody) IsMissing() bool { return b.State == BodyMissing }

// String returns the body text, or "" when no content is present.
func (b OptionalBody) String() string {
	if b.State != BodyPresent {
		return ""
	}
	return string(b.Value)
}

// Describe renders the body for diagnostics.
func (b OptionalBody) Describe() string {
	if b.State != BodyPresent {
		return b.State.String()
	}
	return string(b.Value)
}

// ContentType is a media type such as "application/json; charset=UTF-8".
type ContentType string

const (
	ContentTypeJSON ContentType = "application/json"
	ContentTypeXML  ContentType = "application/xml"
	ContentTypeText ContentType = "text/plain"
)

// MediaType returns the lower-cased media type without parameters.
func (c ContentType) MediaType() string {
	mt, _, err := mime.ParseMediaType(string(c))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(string(c), ";", 2)[0]))
	}
	return mt
}

// IsJSON reports whether the media type is JSON or a +json suffix type.
func (c ContentType) IsJSON() bool {
	mt := c.MediaType()
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// IsXML reports whether the media type is XML or a +xml suffix type.
func (c ContentType) IsXML() bool {
	mt := c.MediaType()
	return mt == "application/xml" || mt == "text/xml" || strings.HasSuffix(mt, "+xml")
}

// DetectContentType guesses a content type from body content.
func DetectContentType(body OptionalBody) ContentType {
	if !body.IsPresent() {
		return ""
	}
	trimmed := bytes.TrimSpace(body.Value)
	switch {
	case len(trimmed) == 0:
		return ContentTypeText
	case trimmed[0] == '{' || trimmed[0] == '[':
		return ContentTypeJSON
	case trimmed[0] == '<':
		return ContentTypeXML
	default:
		return ContentTypeText
	}
}
