package httpx

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/quick-poll/log"
	"github.com/mbolis/quick-poll/serializer"
)

// ErrorBody is the JSON shape of every non-validation error.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// Detail sends status with {"detail": msg}.
func Detail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorBody{Detail: msg})
}

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.WithCode(code).Error(err)
	Detail(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// Will log a debug message, and send an HTTP response with status 404
func LogNotFound(w http.ResponseWriter, r *http.Request, code string, id any) {
	log.WithCode(code).Debugf("not found (%v)", id)
	Detail(w, r, http.StatusNotFound, "Not found.")
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string) {
	log.Log(level, code)
	Detail(w, r, status, http.StatusText(status))
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	Detail(w, r, status, errMsg)
}

// Will log field errors at debug level, and send them with status 400
func LogInvalid(w http.ResponseWriter, r *http.Request, code string, errs serializer.Errors) {
	log.WithCode(code).Debug(errs)
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, errs)
}
