package model

type Community struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	IsDefault    bool   `json:"is_default"`
	IsBlackhouse bool   `json:"is_blackhouse"`
	LogoPicture  string `json:"logo_picture,omitempty"`
}

type CreateCommunityRequest struct {
	Name string `json:"name"`
}

type CreateCommunityResponse struct {
	ID string `json:"id"`
}

type DisableCommunityRequest struct {
	ID string `json:"id"`
}

type DisableCommunityResponse struct{}

type GetCommunitiesRequest struct{}

type GetCommunitiesResponse struct {
	Communities []Community `json:"communities"`
}

type AssignStaffRequest struct {
	CommunityID string `json:"community_id"`
	UserID      string `json:"user_id"`
	Role        string `json:"role"`
}

type AssignStaffResponse struct{}

type JoinCommunityRequest struct {
	CommunityID string `json:"community_id"`
}

type JoinCommunityResponse struct{}

type ChangeCommunityRequest struct {
	UserID      string `json:"user_id"`
	CommunityID string `json:"community_id"`
}

type ChangeCommunityResponse struct{}

type UploadCommunityLogoRequest struct {
	CommunityID string `json:"community_id"`
}

type UploadCommunityLogoResponse struct {
	URL string `json:"url"`
}
