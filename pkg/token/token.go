package token

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tendant/simple-oidc/pkg/jwks"
)

// Token is a decoded compact JWT. A string that does not decode is still a
// Token, in the not-a-JWT state: IsJWT is false and every check fails.
type Token struct {
	raw    string
	header map[string]interface{}
	claims jwt.MapClaims
	isJWT  bool
}

var parser = jwt.NewParser()

// Decode parses raw without verifying it. It never fails; see IsJWT.
func Decode(raw string) *Token {
	t := &Token{raw: raw}

	parsed, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	// an unknown or missing alg still leaves a structurally valid token
	if err != nil && !(errors.Is(err, jwt.ErrTokenUnverifiable) && parsed != nil) {
		slog.Debug("Token is not a JWT", "error", err)
		return t
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return t
	}
	t.header = parsed.Header
	t.claims = claims
	t.isJWT = true
	return t
}

// IsJWT reports whether the raw value decoded as a compact JWT
func (t *Token) IsJWT() bool {
	return t.isJWT
}

// Raw returns the string the token was decoded from
func (t *Token) Raw() string {
	return t.raw
}

// Header returns the JOSE header, or nil for a non-JWT
func (t *Token) Header() map[string]interface{} {
	return t.header
}

// Claims returns the payload claims, or nil for a non-JWT
func (t *Token) Claims() jwt.MapClaims {
	return t.claims
}

// Claim returns a single payload claim
func (t *Token) Claim(name string) (interface{}, bool) {
	if !t.isJWT {
		return nil, false
	}
	value, ok := t.claims[name]
	return value, ok
}

// Subject returns the sub claim, or ""
func (t *Token) Subject() string {
	if !t.isJWT {
		return ""
	}
	sub, _ := t.claims.GetSubject()
	return sub
}

// KeyID returns the kid header, or ""
func (t *Token) KeyID() string {
	kid, _ := t.header["kid"].(string)
	return kid
}

// Algorithm returns the alg header, or ""
func (t *Token) Algorithm() string {
	alg, _ := t.header["alg"].(string)
	return alg
}

// ExpiresAt returns the exp claim; the zero time when absent or malformed
func (t *Token) ExpiresAt() time.Time {
	if !t.isJWT {
		return time.Time{}
	}
	exp, err := t.claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// IsExpired is true for a non-JWT, a token without exp, and a token whose exp
// is at or before now
func (t *Token) IsExpired() bool {
	expiresAt := t.ExpiresAt()
	if expiresAt.IsZero() {
		return true
	}
	return !expiresAt.After(time.Now())
}

// IsValidAlgorithm reports whether the token is signed with RS256
func (t *Token) IsValidAlgorithm() bool {
	return t.isJWT && t.Algorithm() == jwks.DefaultAlgorithm
}

// IsSignatureValid verifies the RS256 signature with the key named by the kid
// header, along with exp and nbf. Failures are logged and reported as false.
func (t *Token) IsSignatureValid(ctx context.Context, keys jwks.Provider) bool {
	if !t.isJWT {
		return false
	}
	if keys == nil {
		slog.Warn("No key provider for signature check")
		return false
	}

	kid := t.KeyID()
	publicKey, err := keys.PublicKey(ctx, kid)
	if err != nil {
		slog.Warn("Signing key lookup failed", "kid", kid, "error", err)
		return false
	}

	_, err = jwt.Parse(t.raw, func(*jwt.Token) (interface{}, error) {
		return publicKey, nil
	}, jwt.WithValidMethods([]string{jwks.DefaultAlgorithm}))
	if err != nil {
		slog.Warn("Token signature check failed", "kid", kid, "error", err)
		return false
	}
	return true
}

// ContainsScope checks the claim named claimName for scope. A string claim is
// split on whitespace and must contain scope as a whole entry; a list claim
// must contain it as an element. A scope containing whitespace names several
// scopes and never matches. Anything else is false.
func (t *Token) ContainsScope(claimName, scope string) bool {
	value, ok := t.Claim(claimName)
	if !ok || scope == "" || strings.ContainsAny(scope, " \t\r\n") {
		return false
	}

	switch v := value.(type) {
	case string:
		return scopePattern(scope).MatchString(v)
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && s == scope {
				return true
			}
		}
	case []string:
		for _, s := range v {
			if s == scope {
				return true
			}
		}
	}
	return false
}

func scopePattern(scope string) *regexp.Regexp {
	return regexp.MustCompile(`(^|\s)` + regexp.QuoteMeta(scope) + `(\s|$)`)
}

// IsAzp reports whether the azp claim equals clientID exactly
func (t *Token) IsAzp(clientID string) bool {
	azp, ok := t.Claim("azp")
	if !ok {
		return false
	}
	s, ok := azp.(string)
	return ok && s == clientID
}
