package model

type Rule struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	OwnerID string `json:"owner_id"`

	Name      string `json:"name"`
	Icon      string `json:"icon"`
	Frequency string `json:"frequency"`
	WeekDays  uint8  `json:"week_days"`

	TimeSlot        string `json:"time_slot"`
	CustomTime      string `json:"custom_time,omitempty"`
	CustomStartDate string `json:"custom_start_date,omitempty"`
	CustomEndDate   string `json:"custom_end_date,omitempty"`

	Status string `json:"status"`
}

type CreatePersonalRuleRequest struct {
	Name            string `json:"name"`
	Icon            string `json:"icon"`
	Frequency       string `json:"frequency"`
	WeekDays        uint8  `json:"week_days"`
	TimeSlot        string `json:"time_slot"`
	CustomTime      string `json:"custom_time"`
	CustomStartDate string `json:"custom_start_date"`
	CustomEndDate   string `json:"custom_end_date"`
}

type CreatePersonalRuleResponse struct {
	ID string `json:"id"`
}

type UpdatePersonalRuleRequest struct {
	ID string `json:"id"`
	CreatePersonalRuleRequest
}

type UpdatePersonalRuleResponse struct{}

type DeletePersonalRuleRequest struct {
	ID string `json:"id"`
}

type DeletePersonalRuleResponse struct{}

type GetMyRulesRequest struct{}

type GetMyRulesResponse struct {
	PersonalRules  []Rule `json:"personal_rules"`
	CommunityRules []Rule `json:"community_rules"`
}

type CreateCommunityRuleRequest struct {
	CommunityID string `json:"community_id"`
	CreatePersonalRuleRequest
}

type CreateCommunityRuleResponse struct {
	ID string `json:"id"`
}

type UpdateCommunityRuleStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type UpdateCommunityRuleStatusResponse struct{}

type UploadRuleIconRequest struct{}

type UploadRuleIconResponse struct {
	URL string `json:"url"`
}
