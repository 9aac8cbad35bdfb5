package oidc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tendant/simple-oidc/pkg/sts"
)

func TestEndSessionURL(t *testing.T) {
	config := testSTS()

	assert.Equal(t, "https://sts.example.com/logout", EndSessionURL(config, EndSessionRequest{}))

	assert.Equal(t,
		"https://sts.example.com/logout?id_token_hint=idt&post_logout_redirect_uri=https%3A%2F%2Fapp%2F&client_id=c1",
		EndSessionURL(config, EndSessionRequest{IDTokenHint: "idt", PostLogoutRedirectURI: "https://app/", ClientID: "c1"}))

	noEndpoint := sts.NewConfig(sts.Endpoints{TokenEndpoint: "https://sts/token"})
	assert.Equal(t, "", EndSessionURL(noEndpoint, EndSessionRequest{IDTokenHint: "idt"}))
	assert.Equal(t, "", EndSessionURL(nil, EndSessionRequest{}))
}
