package model

type CheckinRequest struct {
	RuleType string `json:"rule_type"`
	RuleID   string `json:"rule_id"`
}

type CheckinResponse struct {
	RecordID    string `json:"record_id"`
	CheckinTime string `json:"checkin_time"`
	Status      string `json:"status"`
}

type CancelCheckinRequest struct {
	RecordID string `json:"record_id"`
}

type CancelCheckinResponse struct{}

type GetMyRecordsRequest struct {
	Start string `json:"start" form:"start"`
	End   string `json:"end" form:"end"`
}

type GetMyRecordsResponse struct {
	Records []CheckinRecord `json:"records"`
}

type CheckinRecord struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	RuleType    string `json:"rule_type"`
	RuleID      string `json:"rule_id"`
	Date        string `json:"date"`
	PlannedTime string `json:"planned_time"`
	CheckinTime string `json:"checkin_time,omitempty"`
	Status      string `json:"status"`
}
