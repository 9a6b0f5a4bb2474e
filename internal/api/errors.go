package api

import "net/http"

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse(9400, msg))
}

// Unauthorized writes a 401 error response.
func Unauthorized(w http.ResponseWriter) {
	WriteJSON(w, http.StatusUnauthorized, ErrorResponse(9401, "Authentication required"))
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusNotFound, ErrorResponse(9404, msg))
}

// Fallback writes a 404 response telling the host to use its own image
// pipeline. The result carries {"fallback": true}.
func Fallback(w http.ResponseWriter, msg string) {
	resp := ErrorResponse(9404, msg)
	resp.Result = map[string]bool{"fallback": true}
	WriteJSON(w, http.StatusNotFound, resp)
}

// InternalError writes a 500 error response.
func InternalError(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse(9500, msg))
}

// BadGateway writes a 502 error response for upstream provider failures.
func BadGateway(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusBadGateway, ErrorResponse(9502, msg))
}
