package dto

type RecentTelemetryRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=500"`
}
