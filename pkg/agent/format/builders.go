package format

// NewClarification is the canonical follow-up-question response. It is the
// only response shape that carries no confidence.
func NewClarification(message string) *StructuredResponse {
	r := &StructuredResponse{
		Type:    TypeClarification,
		Message: message,
	}
	r.Normalize()
	return r
}

// NewGuidance answers non-medical-equipment questions without invoking the
// research pipeline.
func NewGuidance(message string) *StructuredResponse {
	r := &StructuredResponse{
		Type:       TypeGuidance,
		Message:    message,
		Confidence: ConfidenceLow,
	}
	r.Normalize()
	return r
}

// NewFailure is the terminal response for an unrecoverable pipeline error.
// Internal detail never leaks into the message.
func NewFailure() *StructuredResponse {
	r := &StructuredResponse{
		Type:       TypeGuidance,
		Message:    "Something went wrong while processing your request. Please try again.",
		Confidence: ConfidenceLow,
	}
	r.Normalize()
	return r
}
