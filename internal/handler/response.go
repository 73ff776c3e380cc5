package handler

// ErrorResponse is the envelope every failed request returns: a stable
// machine-readable code for the client to branch on, plus a message safe to
// show the buyer.
type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: errorPayload{Code: code, Message: message}}
}
