package chessdto

// ConnectError is the payload of a refused namespace connection.
type ConnectError struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e ConnectError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "connection refused"
}
