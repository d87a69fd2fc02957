package dto

// Envelope is the response body shape for success paths. Error paths use
// the same shape without data, rendered by the error middleware.
type Envelope struct {
	Status  int         `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
}

// Success builds a response envelope mirroring the HTTP status code.
func Success(status int, data interface{}, message string) Envelope {
	return Envelope{Status: status, Data: data, Message: message}
}
