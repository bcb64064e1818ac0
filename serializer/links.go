package serializer

import (
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const (
	SurveysPath = "/Encuesta/"
	OptionsPath = "/Opcion/"
)

var reOptionPath = regexp.MustCompile(`^/Opcion/(\d+)/?$`)

// Linker builds absolute hyperlinks to resources under Base, which has no
// trailing slash (e.g. "https://polls.example.com").
type Linker struct {
	Base string
}

// LinkerFor derives the base URL from the request when base is empty.
func LinkerFor(r *http.Request, base string) Linker {
	if base != "" {
		return Linker{Base: strings.TrimRight(base, "/")}
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return Linker{Base: scheme + "://" + r.Host}
}

func (l Linker) SurveysURL() string { return l.Base + SurveysPath }
func (l Linker) OptionsURL() string { return l.Base + OptionsPath }

func (l Linker) SurveyURL(id int64) string {
	return l.Base + SurveysPath + strconv.FormatInt(id, 10) + "/"
}

func (l Linker) OptionURL(id int64) string {
	return l.Base + OptionsPath + strconv.FormatInt(id, 10) + "/"
}

// OptionID resolves an option hyperlink back to its id. Only the path is
// matched, so links minted behind another host still resolve.
func OptionID(link string) (int64, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return 0, false
	}
	m := reOptionPath.FindStringSubmatch(u.Path)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	return id, err == nil
}
