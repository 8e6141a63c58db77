package middleware

type OkResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func ErrResponse(msg string, err error) ErrorResponse {
	er := ErrorResponse{Message: msg}
	if err != nil {
		er.Error = err.Error()
	}
	return er
}
