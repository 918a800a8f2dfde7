package api

// ErrorResponse is the JSON error envelope the HTTP API returns
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}
