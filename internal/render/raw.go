package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kolah/apilens/internal/document"
	"github.com/kolah/apilens/internal/model"
)

// Raw re-encodes results as indented JSON. Document fragments keep their
// declaration order.
type Raw struct{}

type endpointListPayload struct {
	Count     int                     `json:"count"`
	Endpoints []model.EndpointSummary `json:"endpoints"`
	Message   string                  `json:"message,omitempty"`
}

type componentsPayload struct {
	Type       string         `json:"type,omitempty"`
	Count      int            `json:"count"`
	Components *document.Node `json:"components"`
	Message    string         `json:"message,omitempty"`
}

type sessionListPayload struct {
	model.SessionList
	Message string `json:"message,omitempty"`
}

type tagListPayload struct {
	model.TagList
	Message string `json:"message,omitempty"`
}

func (Raw) EndpointList(eps []model.EndpointSummary) string {
	p := endpointListPayload{Count: len(eps), Endpoints: eps}
	if len(eps) == 0 {
		p.Endpoints = []model.EndpointSummary{}
		p.Message = noEndpoints
	}
	return encode(p)
}

func (Raw) EndpointDetail(d *model.EndpointDetail) string {
	return encode(d)
}

func (Raw) SessionInfo(info model.SessionInfo) string {
	return encode(info)
}

func (Raw) SessionList(list model.SessionList) string {
	p := sessionListPayload{SessionList: list}
	if len(list.Sessions) == 0 {
		p.Sessions = []model.SessionInfo{}
		p.Message = noSessions
	}
	return encode(p)
}

func (Raw) TagList(tags model.TagList) string {
	p := tagListPayload{TagList: tags}
	if len(tags.Tags) == 0 {
		p.Tags = []string{}
		p.Message = noTags
	}
	return encode(p)
}

func (Raw) Components(c model.Components) string {
	p := componentsPayload{Type: c.Type, Count: c.Len(), Components: c.Node}
	if c.Len() == 0 {
		p.Components = nil
		p.Message = noComponents
	}
	return encode(p)
}

func (Raw) Success(message string) string {
	return encode(model.Message{Success: true, Message: message})
}

func (Raw) Error(message string) string {
	return encode(model.ErrorPayload{Error: true, Message: message})
}

// encode never fails: an unencodable value turns into an error payload.
func encode(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		buf.Reset()
		_ = enc.Encode(model.ErrorPayload{Error: true, Message: fmt.Sprintf("encoding result: %v", err)})
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

// compactJSON renders a document fragment on one line.
func compactJSON(n *document.Node) string {
	if n == nil {
		return ""
	}
	data, err := n.MarshalJSON()
	if err != nil {
		return n.String()
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return string(data)
	}
	return buf.String()
}

// indentedJSON renders a document fragment across several lines.
func indentedJSON(n *document.Node) string {
	if n == nil {
		return ""
	}
	data, err := n.MarshalJSON()
	if err != nil {
		return n.String()
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	return buf.String()
}
