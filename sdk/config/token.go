// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type tokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
}

// ExchangeToken trades an API token for a bearer token and configures core to
// send it with every following request.
func ExchangeToken(ctx context.Context, core CoreHTTP, apiToken string) (string, error) {
	if apiToken == "" {
		return "", errors.New("api token is required")
	}

	payload, err := json.Marshal(tokenRequest{RefreshToken: apiToken})
	if err != nil {
		return "", err
	}

	body, _, err := core.Do(ctx, http.MethodPost, core.BuildURL("/oauth/token", nil), payload)
	if err != nil {
		return "", err
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("invalid token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", errors.New("token response does not contain an access token")
	}

	core.SetAccessToken(tr.AccessToken)
	return tr.AccessToken, nil
}

// NewAuthenticatedCore builds a CoreHTTP and, unless an access token is already
// configured, exchanges the API token for one.
func NewAuthenticatedCore(ctx context.Context, httpClient *http.Client, coreConfig CoreConfig) (CoreHTTP, error) {
	core := NewHTTPCore(httpClient, coreConfig)
	if coreConfig.AccessToken != "" {
		return core, nil
	}
	if _, err := ExchangeToken(ctx, core, coreConfig.APIToken); err != nil {
		return nil, err
	}
	return core, nil
}
