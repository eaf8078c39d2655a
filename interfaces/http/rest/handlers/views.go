package handlers

import (
	"time"

	"mindcanvas/domain/core/entities"
)

// nodeView is the JSON shape of a node in API responses
type nodeView struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Content  string    `json:"content,omitempty"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Color    string    `json:"color"`
	Shape    string    `json:"shape"`
	IsRoot   bool      `json:"isRoot"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// connectionView is the JSON shape of a connection in API responses
type connectionView struct {
	ID           string     `json:"id"`
	From         string     `json:"from"`
	To           string     `json:"to"`
	Label        string     `json:"label,omitempty"`
	Style        string     `json:"style"`
	Type         string     `json:"type"`
	ControlPoint *pointView `json:"controlPoint,omitempty"`
	Created      time.Time  `json:"created"`
	Modified     time.Time  `json:"modified"`
}

type pointView struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func toNodeView(n *entities.Node) nodeView {
	return nodeView{
		ID:       n.ID().String(),
		Title:    n.Title(),
		Content:  n.Content(),
		X:        n.Position().X(),
		Y:        n.Position().Y(),
		Color:    n.Color(),
		Shape:    string(n.Shape()),
		IsRoot:   n.IsRoot(),
		Created:  n.Created(),
		Modified: n.Modified(),
	}
}

func toNodeViews(nodes []*entities.Node) []nodeView {
	views := make([]nodeView, len(nodes))
	for i, n := range nodes {
		views[i] = toNodeView(n)
	}
	return views
}

func toConnectionView(c *entities.Connection) connectionView {
	view := connectionView{
		ID:       c.ID().String(),
		From:     c.From().String(),
		To:       c.To().String(),
		Label:    c.Label(),
		Style:    string(c.Style()),
		Type:     string(c.Type()),
		Created:  c.Created(),
		Modified: c.Modified(),
	}
	if cp := c.ControlPoint(); cp != nil {
		view.ControlPoint = &pointView{X: cp.X(), Y: cp.Y()}
	}
	return view
}

func toConnectionViews(conns []*entities.Connection) []connectionView {
	views := make([]connectionView, len(conns))
	for i, c := range conns {
		views[i] = toConnectionView(c)
	}
	return views
}
