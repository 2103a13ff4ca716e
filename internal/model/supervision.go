package model

type SupervisionLink struct {
	ID             string `json:"id"`
	SubjectUserID  string `json:"subject_user_id"`
	ObserverUserID string `json:"observer_user_id,omitempty"`
	RuleType       string `json:"rule_type,omitempty"`
	RuleID         string `json:"rule_id,omitempty"`
	Status         string `json:"status"`
}

type CreateInviteRequest struct {
	// RuleType and RuleID restrict the invite to one rule; leave both empty
	// to share all rules.
	RuleType string `json:"rule_type"`
	RuleID   string `json:"rule_id"`
}

type CreateInviteResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type ClaimInviteRequest struct {
	Token string `json:"token"`
}

type ClaimInviteResponse struct {
	Link SupervisionLink `json:"link"`
}

type RejectLinkRequest struct {
	LinkID string `json:"link_id"`
}

type RejectLinkResponse struct{}

type GetVisibleRecordsRequest struct {
	Start string `json:"start" form:"start"`
	End   string `json:"end" form:"end"`
}

type GetVisibleRecordsResponse struct {
	Records []CheckinRecord `json:"records"`
}

type GetMyLinksRequest struct{}

type GetMyLinksResponse struct {
	AsObserver []SupervisionLink `json:"as_observer"`
	AsSubject  []SupervisionLink `json:"as_subject"`
}
