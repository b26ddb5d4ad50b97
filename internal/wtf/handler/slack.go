package handler

import (
	"io"
	"mime"
	"net/http"
	"net/url"
)

// maxFormBytes caps the form body read for a Slack command
const maxFormBytes = 1 << 20

// Plain-text bodies of the Slack slash-command endpoint
const (
	msgImproperRequest = "Improper request."
	msgNotAuthorized   = "Not authorized"
	msgFetchFailed     = "Failed to fetch acronyms."
)

// handleSlack answers a Slack slash command. The form must carry text and
// token; the answer is written verbatim as plain text.
func (h *Handler) handleSlack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeText(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	form, err := slackForm(w, r)
	if err != nil {
		writeText(w, http.StatusBadRequest, msgImproperRequest)
		return
	}

	if _, ok := form["text"]; !ok {
		writeText(w, http.StatusBadRequest, msgImproperRequest)
		return
	}
	if _, ok := form["token"]; !ok {
		writeText(w, http.StatusBadRequest, msgImproperRequest)
		return
	}

	if !h.authorized(form.Get("token")) {
		h.logger.Warn("Rejected Slack request", "remote", r.RemoteAddr)
		writeText(w, http.StatusUnauthorized, msgNotAuthorized)
		return
	}

	result, err := h.lookup(r.Context(), form.Get("text"))
	if err != nil {
		writeText(w, http.StatusBadGateway, msgFetchFailed)
		return
	}

	writeText(w, http.StatusOK, result.String())
}

// slackForm returns the form fields of the request body. Query string
// parameters are not part of the form. net/http only parses bodies of POST,
// PUT and PATCH, so a GET body is decoded here.
func slackForm(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	if r.Method != http.MethodGet {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return r.PostForm, nil
	}

	if r.Body == nil || r.Body == http.NoBody {
		return url.Values{}, nil
	}
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || ct != "application/x-www-form-urlencoded" {
		return url.Values{}, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFormBytes))
	if err != nil {
		return nil, err
	}
	return url.ParseQuery(string(body))
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
