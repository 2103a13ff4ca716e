package model

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`

	CurrentCommunityID string `json:"current_community_id,omitempty"`
	CommunityJoinedAt  string `json:"community_joined_at,omitempty"`
}

type GetMeRequest struct{}

type GetMeResponse User

type UpdateNameRequest struct {
	Name string `json:"name"`
}

type UpdateNameResponse struct{}
