package notion

import (
	"encoding/json"
	"fmt"
)

// Page is one record in a Notion database.
type Page struct {
	ID         string                   `json:"id"`
	Archived   bool                     `json:"archived"`
	Properties map[string]PropertyValue `json:"properties"`
}

type RichText struct {
	PlainText string       `json:"plain_text,omitempty"`
	Text      *TextContent `json:"text,omitempty"`
}

type TextContent struct {
	Content string `json:"content"`
}

type SelectOption struct {
	Name string `json:"name"`
}

type DateValue struct {
	Start string `json:"start"`
}

type Relation struct {
	ID string `json:"id"`
}

// PropertyValue is a single typed property on a page. Exactly one payload
// field is meaningful, selected by Type. A "date" property with a nil Date
// marshals to an explicit null, which is how the API clears a date.
type PropertyValue struct {
	Type     string
	Title    []RichText
	RichText []RichText
	Select   *SelectOption
	Date     *DateValue
	Relation []Relation
}

func (p PropertyValue) MarshalJSON() ([]byte, error) {
	switch p.Type {
	case "title":
		return json.Marshal(map[string]any{"title": p.Title})
	case "rich_text":
		return json.Marshal(map[string]any{"rich_text": p.RichText})
	case "select":
		return json.Marshal(map[string]any{"select": p.Select})
	case "date":
		return json.Marshal(map[string]any{"date": p.Date})
	case "relation":
		rel := p.Relation
		if rel == nil {
			rel = []Relation{}
		}
		return json.Marshal(map[string]any{"relation": rel})
	}
	return nil, fmt.Errorf("unknown property type %q", p.Type)
}

func (p *PropertyValue) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type     string        `json:"type"`
		Title    []RichText    `json:"title"`
		RichText []RichText    `json:"rich_text"`
		Select   *SelectOption `json:"select"`
		Date     *DateValue    `json:"date"`
		Relation []Relation    `json:"relation"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.Type = raw.Type
	p.Title = raw.Title
	p.RichText = raw.RichText
	p.Select = raw.Select
	p.Date = raw.Date
	p.Relation = raw.Relation
	return nil
}

// Properties is the property set sent on create and update calls.
type Properties map[string]PropertyValue

func TitleProperty(s string) PropertyValue {
	return PropertyValue{Type: "title", Title: []RichText{{Text: &TextContent{Content: s}}}}
}

func TextProperty(s string) PropertyValue {
	return PropertyValue{Type: "rich_text", RichText: []RichText{{Text: &TextContent{Content: s}}}}
}

func SelectProperty(name string) PropertyValue {
	return PropertyValue{Type: "select", Select: &SelectOption{Name: name}}
}

func DateProperty(start string) PropertyValue {
	return PropertyValue{Type: "date", Date: &DateValue{Start: start}}
}

// ClearDateProperty produces the explicit clear-date instruction.
func ClearDateProperty() PropertyValue {
	return PropertyValue{Type: "date"}
}

func RelationProperty(ids ...string) PropertyValue {
	rel := make([]Relation, len(ids))
	for i, id := range ids {
		rel[i] = Relation{ID: id}
	}
	return PropertyValue{Type: "relation", Relation: rel}
}

// PlainTitle returns the concatenated plain text of a title property.
func (pg *Page) PlainTitle(name string) string {
	return joinRichText(pg.Properties[name].Title)
}

// PlainText returns the concatenated plain text of a rich_text property.
func (pg *Page) PlainText(name string) string {
	return joinRichText(pg.Properties[name].RichText)
}

// SelectName returns the selected option's name, or "" when unset.
func (pg *Page) SelectName(name string) string {
	if s := pg.Properties[name].Select; s != nil {
		return s.Name
	}
	return ""
}

// DateStart returns the start of a date property, or "" when unset.
func (pg *Page) DateStart(name string) string {
	if d := pg.Properties[name].Date; d != nil {
		return d.Start
	}
	return ""
}

// RelationID returns the single related page id, or "" when the relation is
// empty.
func (pg *Page) RelationID(name string) string {
	if rel := pg.Properties[name].Relation; len(rel) > 0 {
		return rel[0].ID
	}
	return ""
}

func joinRichText(parts []RichText) string {
	var out string
	for _, rt := range parts {
		if rt.PlainText != "" {
			out += rt.PlainText
		} else if rt.Text != nil {
			out += rt.Text.Content
		}
	}
	return out
}
