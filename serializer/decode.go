package serializer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/render"

	"github.com/mbolis/quick-poll/model"
)

const MaxNameLength = 255

const (
	msgNotString = "Not a valid string."
	msgBlank     = "This field may not be blank."
	msgTooLong   = "Ensure this field has no more than %d characters."
	msgNull      = "This field may not be null."
	msgNotList   = `Expected a list of items but got type "%s".`
	msgNoMatch   = "Invalid hyperlink - No URL match."
	msgLinkType  = "Incorrect type. Expected URL string, received %s."
	msgNotObject = "Invalid data. Expected a dictionary, but got %s."

	// MsgNoSuchOption is reported when a hyperlink resolves to an id that
	// has no option behind it.
	MsgNoSuchOption = "Invalid hyperlink - Object does not exist."
)

const NonFieldErrors = "non_field_errors"

// Errors maps field names to the problems found in them.
type Errors map[string][]string

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + strings.Join(e[f], " ")
	}
	return "invalid " + strings.Join(parts, "; ")
}

func (e Errors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// ParseError is a request body that is not JSON at all.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "JSON parse error - " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// Object reads a JSON object body into its raw members.
func Object(r io.Reader) (map[string]json.RawMessage, error) {
	var raw json.RawMessage
	err := render.DecodeJSON(r, &raw)
	if errors.Is(err, io.EOF) {
		// an empty body is an empty object
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, &ParseError{err}
	}

	if kind := kindOf(raw); kind != "dict" {
		return nil, Errors{NonFieldErrors: {fmt.Sprintf(msgNotObject, kindName(kind))}}
	}

	obj := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, &ParseError{err}
	}
	return obj, nil
}

// Nullable is a string field of a request. Set is false when the field was
// absent, and Value is nil when it was an explicit null.
type Nullable struct {
	Set   bool
	Value *string
}

type OptionInput struct {
	Name Nullable
}

func DecodeOption(body map[string]json.RawMessage) (OptionInput, error) {
	in := OptionInput{}
	errs := Errors{}

	in.Name = decodeString(body, "nombre", false, MaxNameLength, errs)

	return in, errs.orNil()
}

// Apply copies the fields present in the request onto o.
func (in OptionInput) Apply(o *model.Option) {
	if in.Name.Set {
		o.Name = in.Name.Value
	}
}

type SurveyInput struct {
	Name    Nullable
	Comment Nullable
	// OptionIDs is nil when the request did not touch the option set.
	OptionIDs []int64
}

func DecodeSurvey(body map[string]json.RawMessage) (SurveyInput, error) {
	in := SurveyInput{}
	errs := Errors{}

	in.Name = decodeString(body, "nombre", false, MaxNameLength, errs)
	in.Comment = decodeString(body, "comentario", true, 0, errs)
	in.OptionIDs = decodeOptionLinks(body, "opciones", errs)

	return in, errs.orNil()
}

func (in SurveyInput) Apply(s *model.Survey) {
	if in.Name.Set {
		s.Name = in.Name.Value
	}
	if in.Comment.Set {
		s.Comment = in.Comment.Value
	}
	if in.OptionIDs != nil {
		s.OptionIDs = in.OptionIDs
	}
}

func decodeString(body map[string]json.RawMessage, field string, allowBlank bool, maxLen int, errs Errors) Nullable {
	raw, ok := body[field]
	if !ok {
		return Nullable{}
	}

	var s string
	switch kindOf(raw) {
	case "null":
		return Nullable{Set: true}
	case "str":
		if err := json.Unmarshal(raw, &s); err != nil {
			errs.Add(field, msgNotString)
			return Nullable{}
		}
	case "int", "float":
		s = string(bytes.TrimSpace(raw))
	default:
		errs.Add(field, msgNotString)
		return Nullable{}
	}

	s = strings.TrimSpace(s)
	if s == "" && !allowBlank {
		errs.Add(field, msgBlank)
		return Nullable{}
	}
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		errs.Add(field, fmt.Sprintf(msgTooLong, maxLen))
		return Nullable{}
	}
	return Nullable{Set: true, Value: &s}
}

func decodeOptionLinks(body map[string]json.RawMessage, field string, errs Errors) []int64 {
	raw, ok := body[field]
	if !ok {
		return nil
	}

	switch kind := kindOf(raw); kind {
	case "null":
		errs.Add(field, msgNull)
		return nil
	case "list":
	default:
		errs.Add(field, fmt.Sprintf(msgNotList, kind))
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		errs.Add(field, fmt.Sprintf(msgNotList, "list"))
		return nil
	}

	ids := make([]int64, 0, len(items))
	failed := false
	for _, item := range items {
		id, msg := optionRef(item)
		if msg != "" {
			errs.Add(field, msg)
			failed = true
			continue
		}
		ids = append(ids, id)
	}
	if failed {
		return nil
	}
	return ids
}

// optionRef resolves one item of an option list, a hyperlink or a bare id.
// On failure it returns the message to report instead.
func optionRef(item json.RawMessage) (int64, string) {
	switch kind := kindOf(item); kind {
	case "str":
		var link string
		if err := json.Unmarshal(item, &link); err != nil {
			return 0, msgNotString
		}
		id, ok := OptionID(link)
		if !ok {
			return 0, msgNoMatch
		}
		return id, ""
	case "int":
		var id int64
		if err := json.Unmarshal(item, &id); err != nil {
			return 0, fmt.Sprintf(msgLinkType, "int")
		}
		return id, ""
	default:
		return 0, fmt.Sprintf(msgLinkType, kind)
	}
}

// kindOf names the JSON type of raw the way error messages spell it.
func kindOf(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "null"
	}
	switch raw[0] {
	case '{':
		return "dict"
	case '[':
		return "list"
	case '"':
		return "str"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	}
	if bytes.ContainsAny(raw, ".eE") {
		return "float"
	}
	return "int"
}

func kindName(kind string) string {
	if kind == "null" {
		return "NoneType"
	}
	return kind
}
