// internal/service/social/vk.go
package social

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"auth-service/internal/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	vkAPIURL     = "https://api.vk.com"
	vkAPIVersion = "5.154"
	// permission bit for the email address
	vkEmailScope = "4194304"
)

type VK struct {
	oauthProvider
}

func NewVK(creds config.OAuthClient, opts ...Option) *VK {
	return &VK{newOAuthProvider(creds, endpoints.Vk, []string{vkEmailScope}, vkAPIURL, opts)}
}

func (v *VK) Name() string { return "vk" }

func (v *VK) AuthCodeURL(state, redirectURI string) string {
	return v.withRedirect(redirectURI).AuthCodeURL(state, oauth2.SetAuthURLParam("display", "page"))
}

// Exchange reads user_id and email from the token response itself; VK has no
// separate profile call that returns the email.
func (v *VK) Exchange(ctx context.Context, code, redirectURI string) (*ExternalIdentity, error) {
	token, err := v.exchange(ctx, code, redirectURI, oauth2.SetAuthURLParam("v", vkAPIVersion))
	if err != nil {
		return nil, err
	}

	socialID := extraString(token.Extra("user_id"))
	if socialID == "" {
		return nil, fmt.Errorf("vk token response has no user_id")
	}

	return &ExternalIdentity{
		Provider: v.Name(),
		SocialID: socialID,
		Email:    extraString(token.Extra("email")),
		Name:     v.userName(ctx, token),
	}, nil
}

// userName is best effort: any failure yields an empty name.
func (v *VK) userName(ctx context.Context, token *oauth2.Token) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		v.apiURL+"/method/users.get?"+url.Values{"v": {vkAPIVersion}}.Encode(), nil)
	if err != nil {
		return ""
	}
	token.SetAuthHeader(req)

	var body struct {
		Response []struct {
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
		} `json:"response"`
	}
	if err := v.getJSON(req, &body); err != nil || len(body.Response) == 0 {
		return ""
	}
	return strings.TrimSpace(body.Response[0].FirstName + " " + body.Response[0].LastName)
}

// extraString renders a token response field, which JSON may deliver as a number.
func extraString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

var _ Provider = (*VK)(nil)
