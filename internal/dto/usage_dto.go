package dto

// ModelUsageResponse aggregates usage for one model.
type ModelUsageResponse struct {
	Model       string `json:"model"`
	Evaluations int64  `json:"evaluations"`
	TokensUsed  int64  `json:"tokens_used"`
}

// UsageResponse summarises a user's token consumption for the current day.
type UsageResponse struct {
	Date            string               `json:"date"`
	TokensUsed      int64                `json:"tokens_used"`
	DailyTokenQuota int                  `json:"daily_token_quota"`
	RemainingTokens *int64               `json:"remaining_tokens,omitempty"`
	ByModel         []ModelUsageResponse `json:"by_model"`
}
