package model

import (
	"time"

	"github.com/kolah/apilens/internal/document"
	"github.com/kolah/apilens/internal/schema"
)

type SessionInfo struct {
	ID             string    `json:"sessionId"`
	Title          string    `json:"title"`
	Version        string    `json:"version"`
	Description    string    `json:"description,omitempty"`
	OpenAPIVersion string    `json:"openapiVersion,omitempty"`
	BaseURL        string    `json:"baseUrl,omitempty"`
	Source         string    `json:"source"`
	SourceType     string    `json:"sourceType"`
	CreatedAt      time.Time `json:"createdAt"`
	LastAccessed   time.Time `json:"lastAccessed"`
	OutputFormat   string    `json:"outputFormat"`
	EndpointCount  int       `json:"endpointCount"`
	TagCount       int       `json:"tagCount"`
	SchemaCount    int       `json:"schemaCount"`
	Dereferenced   bool      `json:"dereferenced"`
}

type SessionList struct {
	Sessions []SessionInfo `json:"sessions"`
}

type TagList struct {
	Tags []string `json:"tags"`
}

// Components is either the whole components mapping (Type empty) or one
// named section of it.
type Components struct {
	Type     string             `json:"type,omitempty"`
	Sections []ComponentSection `json:"sections"`

	// Node is the mapping the sections were read from, nil when absent.
	Node     *document.Node  `json:"-"`
	Resolver schema.Resolver `json:"-"`
}

type ComponentSection struct {
	Type    string           `json:"type"`
	Entries []ComponentEntry `json:"entries"`
}

type ComponentEntry struct {
	Name string         `json:"name"`
	Node *document.Node `json:"definition"`
}

// Len counts entries across all sections.
func (c Components) Len() int {
	n := 0
	for _, s := range c.Sections {
		n += len(s.Entries)
	}
	return n
}

type Message struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ErrorPayload struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}
