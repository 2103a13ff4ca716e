package model

// AccessToken is the payload carried inside the signed access token.
type AccessToken struct {
	ID   string `mapstructure:"id" json:"id"`
	Name string `mapstructure:"name" json:"name"`
	Role string `mapstructure:"role" json:"role"`
}

type RequestCodeRequest struct {
	Phone   string `json:"phone"`
	Purpose string `json:"purpose"`
}

type RequestCodeResponse struct{}

type PhoneRegisterRequest struct {
	Phone    string `json:"phone"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type PhoneRegisterResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

type PhoneLoginRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type PhoneLoginResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

type PasswordLoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type PasswordLoginResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

type WeChatLoginRequest struct {
	Code string `json:"code"`
}

type WeChatLoginResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

type BindPhoneRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type BindPhoneResponse struct{}
