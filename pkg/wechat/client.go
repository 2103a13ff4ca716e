// Package wechat exchanges a mini-program login code for the user's OpenID
// through the jscode2session endpoint.
package wechat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

type IdentityProvider interface {
	GetOpenID(ctx context.Context, code string) (string, error)
}

type client struct {
	appID     string
	appSecret string
	endpoint  string
}

func New(appID, appSecret string) IdentityProvider {
	return &client{
		appID:     appID,
		appSecret: appSecret,
		endpoint:  "https://api.weixin.qq.com/sns/jscode2session",
	}
}

type sessionResponse struct {
	OpenID  string `json:"openid"`
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (c *client) GetOpenID(ctx context.Context, code string) (string, error) {
	q := url.Values{}
	q.Set("appid", c.appID)
	q.Set("secret", c.appSecret)
	q.Set("js_code", code)
	q.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", err
	}

	if session.ErrCode != 0 {
		return "", fmt.Errorf("jscode2session failed: %d %s", session.ErrCode, session.ErrMsg)
	}

	if session.OpenID == "" {
		return "", fmt.Errorf("jscode2session returned no openid")
	}

	return session.OpenID, nil
}

// MockProvider maps login codes to fixed OpenIDs for tests and local runs.
type MockProvider struct {
	OpenIDs map[string]string
}

func NewMockProvider() *MockProvider {
	return &MockProvider{OpenIDs: make(map[string]string)}
}

func (p *MockProvider) GetOpenID(ctx context.Context, code string) (string, error) {
	openID, ok := p.OpenIDs[code]
	if !ok {
		return "", fmt.Errorf("unknown login code")
	}

	return openID, nil
}
