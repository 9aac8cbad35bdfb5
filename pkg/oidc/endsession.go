package oidc

import "github.com/tendant/simple-oidc/pkg/sts"

// EndSessionRequest describes an RP-initiated logout redirect
type EndSessionRequest struct {
	IDTokenHint           string
	PostLogoutRedirectURI string
	State                 string
	ClientID              string
}

// EndSessionURL renders the logout redirect for the STS. Empty fields are left
// out; "" is returned when the STS has no end session endpoint.
func EndSessionURL(config *sts.Config, request EndSessionRequest) string {
	if config == nil || config.EndSessionEndpoint() == "" {
		return ""
	}

	var params Params
	for _, p := range []Param{
		{Name: ParamIDTokenHint, Value: request.IDTokenHint},
		{Name: ParamPostLogoutRedirectURI, Value: request.PostLogoutRedirectURI},
		{Name: ParamState, Value: request.State},
		{Name: ParamClientID, Value: request.ClientID},
	} {
		if p.Value != "" {
			params = append(params, p)
		}
	}
	return withQuery(config.EndSessionEndpoint(), params)
}
