package oidc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/tendant/simple-oidc/pkg/sts"
)

// NoSubjectMessage is reported for a userinfo object without a sub claim
const NoSubjectMessage = "response has no sub claim"

// UserinfoRequest is a bearer authenticated GET against the userinfo endpoint
type UserinfoRequest struct {
	sts         *sts.Config
	accessToken *string
}

// NewUserinfoRequest prepares a userinfo call; the Authorization header is only
// sent when accessToken is set
func NewUserinfoRequest(config *sts.Config, accessToken *string) *UserinfoRequest {
	return &UserinfoRequest{sts: config, accessToken: accessToken}
}

// URL returns the userinfo endpoint
func (r *UserinfoRequest) URL() string {
	if r.sts == nil {
		return ""
	}
	return r.sts.UserinfoEndpoint()
}

// Execute sends the request once and never returns an error; failures are
// reported through UserinfoResponse.ErrorMessage
func (r *UserinfoRequest) Execute(ctx context.Context) *UserinfoResponse {
	if r.sts == nil {
		return &UserinfoResponse{ErrorMessage: "no STS configuration"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL(), nil)
	if err != nil {
		slog.Error("Failed to create userinfo request", "error", err)
		return &UserinfoResponse{ErrorMessage: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	if r.accessToken != nil {
		req.Header.Set("Authorization", "Bearer "+*r.accessToken)
	}

	resp, err := r.sts.HTTPClient().Do(req)
	if err != nil {
		slog.Error("Userinfo request failed", "url", r.URL(), "error", err)
		return &UserinfoResponse{ErrorMessage: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		slog.Error("Failed to read userinfo response", "error", err)
		return &UserinfoResponse{ErrorMessage: err.Error()}
	}

	response := ParseUserinfoResponse(body)
	if !response.Success {
		slog.Warn("Userinfo request rejected", "status", resp.StatusCode, "error", response.ErrorMessage)
	}
	return response
}

// UserinfoResponse is the outcome of a userinfo call
type UserinfoResponse struct {
	Success      bool
	Raw          json.RawMessage
	Claims       map[string]interface{}
	ErrorMessage string
}

// ParseUserinfoResponse interprets a userinfo body. Success requires a JSON
// object with a sub claim and no error field.
func ParseUserinfoResponse(body []byte) *UserinfoResponse {
	response := &UserinfoResponse{Raw: json.RawMessage(body)}

	var claims map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(body), &claims); err != nil {
		response.ErrorMessage = "invalid userinfo response: " + err.Error()
		return response
	}
	if claims == nil {
		response.ErrorMessage = "invalid userinfo response: not a JSON object"
		return response
	}
	response.Claims = claims

	if errValue, ok := claims["error"]; ok && errValue != nil {
		message := fmt.Sprint(errValue)
		if description, ok := claims["error_description"].(string); ok && description != "" {
			message += " /" + description
		}
		response.ErrorMessage = message
		return response
	}

	if _, ok := claims["sub"]; !ok {
		response.ErrorMessage = NoSubjectMessage
		return response
	}

	response.Success = true
	return response
}

// Subject returns the sub claim as a string, or ""
func (r *UserinfoResponse) Subject() string {
	sub, _ := r.Claims["sub"].(string)
	return sub
}

// Claim returns a single claim value
func (r *UserinfoResponse) Claim(name string) (interface{}, bool) {
	value, ok := r.Claims[name]
	return value, ok
}
