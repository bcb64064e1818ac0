// Package serializer maps survey and option records to their hyperlinked JSON
// representation, and decodes request bodies back into field updates.
package serializer

import (
	"github.com/mbolis/quick-poll/model"
)

type Option struct {
	URL  string  `json:"url"`
	ID   int64   `json:"id"`
	Name *string `json:"nombre"`
}

type Survey struct {
	URL     string   `json:"url"`
	ID      int64    `json:"id"`
	Name    *string  `json:"nombre"`
	Comment *string  `json:"comentario"`
	Options []string `json:"opciones"`
}

// Page is the envelope of a paginated list.
type Page struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

func (l Linker) Option(o model.Option) Option {
	return Option{
		URL:  l.OptionURL(o.ID),
		ID:   o.ID,
		Name: o.Name,
	}
}

func (l Linker) OptionList(options []model.Option) []Option {
	out := make([]Option, len(options))
	for i, o := range options {
		out[i] = l.Option(o)
	}
	return out
}

func (l Linker) Survey(s model.Survey) Survey {
	links := make([]string, len(s.OptionIDs))
	for i, id := range s.OptionIDs {
		links[i] = l.OptionURL(id)
	}
	return Survey{
		URL:     l.SurveyURL(s.ID),
		ID:      s.ID,
		Name:    s.Name,
		Comment: s.Comment,
		Options: links,
	}
}

func (l Linker) SurveyList(surveys []model.Survey) []Survey {
	out := make([]Survey, len(surveys))
	for i, s := range surveys {
		out[i] = l.Survey(s)
	}
	return out
}
