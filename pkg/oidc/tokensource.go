package oidc

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/sts"
)

// refreshingSource runs the refresh_token grant each time it is asked for a token
type refreshingSource struct {
	ctx          context.Context
	sts          *sts.Config
	clientID     *string
	clientSecret *string
	refreshToken string
}

func (s *refreshingSource) Token() (*oauth2.Token, error) {
	if s.refreshToken == "" {
		return nil, errors.New(errors.ErrCodeTokenExpired, "token expired and no refresh token available")
	}

	response := NewRefreshTokenRequest(s.sts, s.clientID, s.clientSecret, s.refreshToken).Execute(s.ctx)
	if !response.Success {
		return nil, errors.Newf(errors.ErrCodeUnauthorized, "refresh failed: %s", response.ErrorMessage)
	}

	// some servers only issue a refresh token once
	if response.RefreshToken != nil && *response.RefreshToken != "" {
		s.refreshToken = *response.RefreshToken
	}
	token := response.OAuth2Token()
	if token.RefreshToken == "" {
		token.RefreshToken = s.refreshToken
	}
	return token, nil
}

// RefreshTokenSource returns an oauth2.TokenSource that hands out current until
// it expires and then refreshes it against the STS token endpoint. ctx bounds
// every refresh call.
func RefreshTokenSource(ctx context.Context, config *sts.Config, clientID, clientSecret *string, current *oauth2.Token) oauth2.TokenSource {
	source := &refreshingSource{
		ctx:          ctx,
		sts:          config,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
	if current != nil {
		source.refreshToken = current.RefreshToken
	}
	return oauth2.ReuseTokenSource(current, source)
}
