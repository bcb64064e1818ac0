package serializer

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/quick-poll/model"
)

func str(s string) *string { return &s }

func object(t *testing.T, body string) map[string]json.RawMessage {
	t.Helper()
	obj, err := Object(strings.NewReader(body))
	require.NoError(t, err)
	return obj
}

func TestLinkerFor(t *testing.T) {
	r := httptest.NewRequest("GET", "/Encuesta/", nil)
	r.Host = "polls.local:8080"
	assert.Equal(t, "http://polls.local:8080", LinkerFor(r, "").Base)

	r.Header.Set("X-Forwarded-Proto", "HTTPS, http")
	assert.Equal(t, "https://polls.local:8080", LinkerFor(r, "").Base)

	assert.Equal(t, "https://example.com", LinkerFor(r, "https://example.com/").Base)
}

func TestOptionID(t *testing.T) {
	id, ok := OptionID("http://localhost/Opcion/42/")
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)

	id, ok = OptionID("/Opcion/7")
	assert.True(t, ok)
	assert.EqualValues(t, 7, id)

	for _, bad := range []string{"http://localhost/Encuesta/1/", "/Opcion/x/", "/Opcion/", "::"} {
		_, ok = OptionID(bad)
		assert.False(t, ok, bad)
	}
}

func TestOptionRef(t *testing.T) {
	cases := []struct {
		item string
		id   int64
		msg  string
	}{
		{`"http://h/Opcion/3/"`, 3, ""},
		{`4`, 4, ""},
		{`"/Encuesta/1/"`, 0, "Invalid hyperlink - No URL match."},
		{`"\q"`, 0, "Not a valid string."},
		{`"unterminated`, 0, "Not a valid string."},
		{`99999999999999999999`, 0, "Incorrect type. Expected URL string, received int."},
		{`true`, 0, "Incorrect type. Expected URL string, received bool."},
	}
	for _, c := range cases {
		id, msg := optionRef(json.RawMessage(c.item))
		assert.Equal(t, c.id, id, c.item)
		assert.Equal(t, c.msg, msg, c.item)
	}
}

func TestRender(t *testing.T) {
	l := Linker{Base: "http://api"}

	opt := l.Option(model.Option{ID: 3, Name: str("yes")})
	assert.Equal(t, Option{URL: "http://api/Opcion/3/", ID: 3, Name: str("yes")}, opt)

	sv := l.Survey(model.Survey{ID: 9, Name: str("q"), OptionIDs: []int64{3, 4}})
	assert.Equal(t, "http://api/Encuesta/9/", sv.URL)
	assert.Equal(t, []string{"http://api/Opcion/3/", "http://api/Opcion/4/"}, sv.Options)

	b, err := json.Marshal(l.Survey(model.Survey{ID: 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"http://api/Encuesta/1/","id":1,"nombre":null,"comentario":null,"opciones":[]}`, string(b))
}

func TestObject(t *testing.T) {
	obj, err := Object(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, obj)

	_, err = Object(strings.NewReader(`{"nombre":`))
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)

	_, err = Object(strings.NewReader(`["a"]`))
	var verr Errors
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Invalid data. Expected a dictionary, but got list."}, verr[NonFieldErrors])
}

func TestDecodeOption(t *testing.T) {
	in, err := DecodeOption(object(t, `{"nombre": "  padded  ", "url": "ignored", "extra": 1}`))
	require.NoError(t, err)
	assert.Equal(t, Nullable{Set: true, Value: str("padded")}, in.Name)

	in, err = DecodeOption(object(t, `{}`))
	require.NoError(t, err)
	assert.False(t, in.Name.Set)

	in, err = DecodeOption(object(t, `{"nombre": null}`))
	require.NoError(t, err)
	assert.True(t, in.Name.Set)
	assert.Nil(t, in.Name.Value)

	in, err = DecodeOption(object(t, `{"nombre": 12}`))
	require.NoError(t, err)
	assert.Equal(t, "12", *in.Name.Value)

	cases := map[string]string{
		`{"nombre": ""}`:                                       "This field may not be blank.",
		`{"nombre": "   "}`:                                    "This field may not be blank.",
		`{"nombre": true}`:                                     "Not a valid string.",
		`{"nombre": {"a": 1}}`:                                 "Not a valid string.",
		`{"nombre": "` + strings.Repeat("x", 256) + `"}`: "Ensure this field has no more than 255 characters.",
	}
	for body, msg := range cases {
		_, err := DecodeOption(object(t, body))
		var errs Errors
		require.ErrorAs(t, err, &errs, body)
		assert.Equal(t, []string{msg}, errs["nombre"], body)
	}

	_, err = DecodeOption(object(t, `{"nombre": "`+strings.Repeat("ñ", 255)+`"}`))
	assert.NoError(t, err, "length counts characters, not bytes")
}

func TestOptionInputApply(t *testing.T) {
	o := model.Option{ID: 1, Name: str("before")}
	OptionInput{}.Apply(&o)
	assert.Equal(t, "before", *o.Name)

	OptionInput{Name: Nullable{Set: true}}.Apply(&o)
	assert.Nil(t, o.Name)
}

func TestDecodeSurvey(t *testing.T) {
	in, err := DecodeSurvey(object(t, `{"nombre": "Lunch", "comentario": "", "opciones": ["http://h/Opcion/2/", 5]}`))
	require.NoError(t, err)
	assert.Equal(t, "Lunch", *in.Name.Value)
	assert.Equal(t, "", *in.Comment.Value)
	assert.Equal(t, []int64{2, 5}, in.OptionIDs)

	in, err = DecodeSurvey(object(t, `{"opciones": []}`))
	require.NoError(t, err)
	assert.NotNil(t, in.OptionIDs)
	assert.Empty(t, in.OptionIDs)

	in, err = DecodeSurvey(object(t, `{"nombre": "x"}`))
	require.NoError(t, err)
	assert.Nil(t, in.OptionIDs)

	_, err = DecodeSurvey(object(t, `{"nombre": "", "opciones": ["http://h/Encuesta/1/", 1.5, true]}`))
	var errs Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{"This field may not be blank."}, errs["nombre"])
	assert.Equal(t, []string{
		"Invalid hyperlink - No URL match.",
		"Incorrect type. Expected URL string, received float.",
		"Incorrect type. Expected URL string, received bool.",
	}, errs["opciones"])

	_, err = DecodeSurvey(object(t, `{"opciones": "http://h/Opcion/1/"}`))
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{`Expected a list of items but got type "str".`}, errs["opciones"])

	_, err = DecodeSurvey(object(t, `{"opciones": null}`))
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{"This field may not be null."}, errs["opciones"])
}

func TestSurveyRoundTrip(t *testing.T) {
	l := Linker{Base: "http://api"}
	orig := model.Survey{ID: 4, Name: str("Dinner"), Comment: str("pick one"), OptionIDs: []int64{1, 8}}

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(l.Survey(orig)))

	body, err := Object(&buf)
	require.NoError(t, err)
	in, err := DecodeSurvey(body)
	require.NoError(t, err)

	got := model.Survey{ID: orig.ID}
	in.Apply(&got)
	assert.Equal(t, orig, got)
}

func TestOptionRoundTrip(t *testing.T) {
	l := Linker{Base: "http://api"}
	orig := model.Option{ID: 2, Name: str("Pizza")}

	b, err := json.Marshal(l.Option(orig))
	require.NoError(t, err)

	in, err := DecodeOption(object(t, string(b)))
	require.NoError(t, err)

	got := model.Option{ID: orig.ID}
	in.Apply(&got)
	assert.Equal(t, orig, got)
}

func TestErrorsMessage(t *testing.T) {
	errs := Errors{}
	errs.Add("opciones", "b")
	errs.Add("nombre", "a")
	assert.Equal(t, "invalid nombre: a; opciones: b", errs.Error())
}
