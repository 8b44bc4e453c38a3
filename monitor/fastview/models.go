// Package fastview implements a small builder pattern for pushing live
// chain-progress data to browser clients: given an input data model, apply a
// conversion to a view-model, and multiplex that data to one or more views.
// Adapted from server/fastview/models.go, view_builder.go and client.go.
package fastview

import (
	"html/template"
)

// EleUpdate identifies an element and a set of operations to apply to its
// attributes/content.
type EleUpdate struct {
	EleId string
	Ops   []Op
}

// Op is an html attribute key (or the reserved key "textContent") and the
// value to set it to.
type Op struct {
	Key   string
	Value string
}

// ViewComponent is a server-rendered, websocket-updated view fragment: Parse
// writes its initial template form into a parent template, and Updates
// exposes the channel of incremental ele-updates to push afterward.
type ViewComponent interface {
	Updates() <-chan []EleUpdate
	Parse(*template.Template) (string, error)
}
