package oidc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"golang.org/x/oauth2"
)

// NoResponseMessage is reported when the token endpoint answers with an empty body
const NoResponseMessage = "no response received"

// TokenResponse is the outcome of a token request. Exactly one of Success and
// ErrorMessage is meaningful: a successful response has no error message.
type TokenResponse struct {
	Success      bool
	AccessToken  *string
	IDToken      *string
	RefreshToken *string

	// ExpiresAt is the receive time plus expires_in. A missing or non-integral
	// expires_in counts as 0, so such a token is already expired.
	ExpiresAt time.Time

	ErrorMessage string
	StatusCode   int
	Raw          []byte
}

func failedTokenResponse(message string) *TokenResponse {
	return &TokenResponse{ErrorMessage: message}
}

// ParseTokenResponse interprets a token endpoint body received at now
func ParseTokenResponse(statusCode int, body []byte, now time.Time) *TokenResponse {
	response := &TokenResponse{StatusCode: statusCode, Raw: body}

	if len(bytes.TrimSpace(body)) == 0 {
		response.ErrorMessage = NoResponseMessage
		return response
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var fields map[string]interface{}
	if err := decoder.Decode(&fields); err != nil || fields == nil {
		if err == nil {
			err = fmt.Errorf("not a JSON object")
		}
		response.ErrorMessage = fmt.Sprintf("invalid token response (status %d): %v", statusCode, err)
		return response
	}

	if errValue, ok := fields["error"]; ok && errValue != nil {
		message := fmt.Sprint(errValue)
		if description, ok := fields["error_description"].(string); ok && description != "" {
			message += ": " + description
		}
		response.ErrorMessage = message
		return response
	}

	response.AccessToken = stringField(fields, "access_token")
	response.IDToken = stringField(fields, "id_token")
	response.RefreshToken = stringField(fields, "refresh_token")
	response.ExpiresAt = now.Add(time.Duration(expiresIn(fields)) * time.Second)
	response.Success = true
	return response
}

// maxExpiresIn is the largest lifetime, in seconds, a time.Duration can hold
const maxExpiresIn = math.MaxInt64 / int64(time.Second)

// expiresIn reads expires_in as whole seconds, clamped to what a
// time.Duration can hold; anything else yields 0
func expiresIn(fields map[string]interface{}) int64 {
	var seconds int64
	switch v := fields["expires_in"].(type) {
	case json.Number:
		seconds, _ = v.Int64()
	case string:
		seconds, _ = json.Number(v).Int64()
	}
	if seconds > maxExpiresIn {
		return maxExpiresIn
	}
	if seconds < -maxExpiresIn {
		return -maxExpiresIn
	}
	return seconds
}

func stringField(fields map[string]interface{}, name string) *string {
	if value, ok := fields[name].(string); ok {
		return &value
	}
	return nil
}

// OAuth2Token converts a successful response for use with golang.org/x/oauth2.
// The id token is kept as the "id_token" extra. Returns nil for failed responses.
func (r *TokenResponse) OAuth2Token() *oauth2.Token {
	if r == nil || !r.Success {
		return nil
	}
	token := &oauth2.Token{
		AccessToken:  valueOrEmpty(r.AccessToken),
		TokenType:    "Bearer",
		RefreshToken: valueOrEmpty(r.RefreshToken),
		Expiry:       r.ExpiresAt,
	}
	if r.IDToken != nil {
		token = token.WithExtra(map[string]interface{}{"id_token": *r.IDToken})
	}
	return token
}
