package session

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the parts of the API's access token the storefront reads.
// They are display hints only; the API stays the authority.
type Claims struct {
	Role    string
	Email   string
	Subject string
}

var segments = jwt.NewParser(jwt.WithPaddingAllowed())

var toURLAlphabet = strings.NewReplacer("+", "-", "/", "_")

// DecodeClaims reads the payload segment of a compact token without
// verifying its signature. It returns nil for anything malformed. Any JSON
// object is accepted; claims of an unexpected type read as empty.
func DecodeClaims(token string) *Claims {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) < 2 || parts[1] == "" {
		return nil
	}

	raw, err := segments.DecodeSegment(toURLAlphabet.Replace(parts[1]))
	if err != nil {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m jwt.MapClaims
	if err := dec.Decode(&m); err != nil || m == nil {
		return nil
	}

	return &Claims{
		Role:    claimString(m, "role"),
		Email:   claimString(m, "correo"),
		Subject: claimString(m, "sub"),
	}
}

func claimString(m jwt.MapClaims, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}

func RoleFromToken(token string) Role {
	c := DecodeClaims(token)
	if c == nil {
		return RoleGuest
	}
	return ParseRole(c.Role)
}
