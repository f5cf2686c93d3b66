package dto

// ChatTurnDTO is one prior message in the conversation, oldest first.
type ChatTurnDTO struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

type DiagnoseRequest struct {
	RequestId string        `json:"request_id,omitempty"`
	Message   string        `json:"message" validate:"required,min=2,max=4000"`
	History   []ChatTurnDTO `json:"history,omitempty" validate:"max=40,dive"`
}
