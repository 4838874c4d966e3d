package respond

import (
	"encoding/json"
	"net/http"

	"github.com/ansel1/merry"

	"Sismik/internal/applog"
)

var log = applog.New("http")

type errorBody struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.PrintErr("encode response", "err", err)
	}
}

// Error writes err using the HTTP code and user message attached with merry.
// Errors without a code are reported as 500 and logged.
func Error(w http.ResponseWriter, err error) {
	code := merry.HTTPCode(err)
	msg := merry.UserMessage(err)
	if code >= http.StatusInternalServerError {
		log.PrintErr(err, "stack", merry.Details(err))
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	JSON(w, code, errorBody{Error: msg})
}

// BadRequest wraps err as a client error shown to the user as msg.
func BadRequest(err error, msg string) error {
	return merry.Wrap(err).WithHTTPCode(http.StatusBadRequest).WithUserMessage(msg)
}
