package handlers

import (
	"attendance/recognition"
)

// Response is the JSON shape shared by the recognition and attendance
// endpoints
type Response struct {
	Success    bool     `json:"success"`
	Identity   string   `json:"identity,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Distance   *float64 `json:"distance,omitempty"`
	Message    string   `json:"message"`
}

// API bundles the handlers around the injected recognition service - request
// code never touches process-wide state directly
type API struct {
	Recognition *recognition.Service
}

func NewAPI(service *recognition.Service) *API {
	return &API{Recognition: service}
}

func successResponse(identity string, confidence float64, message string) Response {
	return Response{
		Success:    true,
		Identity:   identity,
		Confidence: &confidence,
		Message:    message,
	}
}

func failureResponse(message string) Response {
	return Response{Message: message}
}
