package handler

import (
	"github.com/vishvendra9627/tourist-safety-app/internal/identity/models"
)

// CreateRequest is the digital ID form body. Field checks live in the
// validation package so every caller gets the same messages.
type CreateRequest models.Submission

func (r *CreateRequest) Submission() models.Submission {
	return models.Submission(*r)
}

// DeleteRequest names the email whose oldest digital ID should be removed.
type DeleteRequest struct {
	Email string `json:"email"`
}

// Envelope is the {message, data} response shape the clients expect.
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}
