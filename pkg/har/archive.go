package har

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

// Version is the HAR format version written by this package.
const Version = "1.2"

// CreatorName identifies archives written by this module.
const CreatorName = "replay"

// CreatorVersion is the creator version stamped into new archives.
// It is overridden at build time for release binaries.
var CreatorVersion = "dev"

// EncodingBase64 marks a body whose text is base64 encoded.
const EncodingBase64 = "base64"

// Archive is the root container of a recording.
type Archive struct {
	Log Log `json:"log"`
}

// Log holds the archive metadata and its entries.
type Log struct {
	Version string  `json:"version"`
	Creator Creator `json:"creator"`
	Entries []Entry `json:"entries"`
}

// Creator names the tool that wrote the archive.
type Creator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Entry is one recorded request/response exchange.
type Entry struct {
	StartedAt  time.Time `json:"startedDateTime"`
	DurationMs float64   `json:"time"`
	Request    Request   `json:"request"`
	Response   Response  `json:"response"`
	Timings    Timings   `json:"timings"`
}

// Request is the recorded request.
type Request struct {
	Method      string    `json:"method"`
	URL         string    `json:"url"`
	HTTPVersion string    `json:"httpVersion"`
	Headers     Headers   `json:"headers"`
	PostData    *PostData `json:"postData,omitempty"`
	BodySize    int64     `json:"bodySize"`
}

// PostData carries a recorded request body.
type PostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
	Encoding string `json:"encoding,omitempty"`
}

// Response is the recorded response.
type Response struct {
	Status      int     `json:"status"`
	StatusText  string  `json:"statusText"`
	HTTPVersion string  `json:"httpVersion"`
	Headers     Headers `json:"headers"`
	Content     Content `json:"content"`
	BodySize    int64   `json:"bodySize"`
}

// Content is the recorded response body.
type Content struct {
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
	Encoding string `json:"encoding,omitempty"`
}

// Timings are informational and never enforced during replay.
type Timings struct {
	Send    float64 `json:"send"`
	Wait    float64 `json:"wait"`
	Receive float64 `json:"receive"`
}

// Header is a single name/value pair. Duplicate names are allowed.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Headers is an ordered header list. An empty list is always nil in memory
// and always [] on the wire.
type Headers []Header

// MarshalJSON writes nil as an empty array.
func (h Headers) MarshalJSON() ([]byte, error) {
	if len(h) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal([]Header(h))
}

// UnmarshalJSON reads an empty array as nil.
func (h *Headers) UnmarshalJSON(data []byte) error {
	var list []Header
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	if len(list) == 0 {
		*h = nil
		return nil
	}
	*h = list
	return nil
}

// Get returns the first value for name, compared case-insensitively.
func (h Headers) Get(name string) string {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return hdr.Value
		}
	}
	return ""
}

// Clone returns a copy that shares nothing with h.
func (h Headers) Clone() Headers {
	if len(h) == 0 {
		return nil
	}
	out := make(Headers, len(h))
	copy(out, h)
	return out
}

// New returns an empty archive stamped with this module as creator.
func New() *Archive {
	return &Archive{
		Log: Log{
			Version: Version,
			Creator: Creator{Name: CreatorName, Version: CreatorVersion},
		},
	}
}

// Clone returns a deep copy of the archive.
func (a *Archive) Clone() *Archive {
	out := &Archive{Log: Log{Version: a.Log.Version, Creator: a.Log.Creator}}
	if len(a.Log.Entries) > 0 {
		out.Log.Entries = make([]Entry, len(a.Log.Entries))
		for i := range a.Log.Entries {
			out.Log.Entries[i] = a.Log.Entries[i].Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	e.Request.Headers = e.Request.Headers.Clone()
	if e.Request.PostData != nil {
		pd := *e.Request.PostData
		e.Request.PostData = &pd
	}
	e.Response.Headers = e.Response.Headers.Clone()
	return e
}

// Body returns the decoded request body, or nil when none was recorded.
func (r Request) Body() []byte {
	if r.PostData == nil {
		return nil
	}
	return decodeText(r.PostData.Text, r.PostData.Encoding)
}

// Body returns the decoded response body.
func (r Response) Body() []byte {
	return decodeText(r.Content.Text, r.Content.Encoding)
}

func decodeText(text, encoding string) []byte {
	if text == "" {
		return nil
	}
	if encoding == EncodingBase64 {
		if b, err := base64.StdEncoding.DecodeString(text); err == nil {
			return b
		}
	}
	return []byte(text)
}

// encodeText stores valid UTF-8 verbatim and everything else as base64.
func encodeText(body []byte) (text, encoding string) {
	if len(body) == 0 {
		return "", ""
	}
	if isText(body) {
		return string(body), ""
	}
	return base64.StdEncoding.EncodeToString(body), EncodingBase64
}

func isText(body []byte) bool {
	return bytes.IndexByte(body, 0) < 0 && utf8.Valid(body)
}
