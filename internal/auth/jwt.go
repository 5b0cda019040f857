package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmynk/splitledger/internal/models"
)

// ErrDecode is returned when a credential cannot be decoded into an identity.
var ErrDecode = errors.New("failed to decode credential")

// Claims are the JWT claims the auth service issues. Older tokens carry the
// user id as "user_id" or only in "sub". Ids may be JSON strings or numbers.
type Claims struct {
	ID       models.FlexString `json:"id,omitempty"`
	UserID   models.FlexString `json:"user_id,omitempty"`
	Username string            `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Decoder extracts the user identity from a bearer token.
type Decoder struct {
	secretKey []byte
	parser    *jwt.Parser
}

// NewDecoder creates a decoder. With an empty secret tokens are decoded
// without signature verification, the same trust a browser client has; with a
// secret, HS256 signatures are verified. Expiry is never enforced here: the
// session gate owns that decision.
func NewDecoder(secretKey string) *Decoder {
	return &Decoder{
		secretKey: []byte(secretKey),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

// Verifies reports whether signatures are checked.
func (d *Decoder) Verifies() bool {
	return len(d.secretKey) > 0
}

// Decode returns the identity carried by tokenString.
func (d *Decoder) Decode(tokenString string) (*models.User, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrDecode)
	}

	claims := &Claims{}
	var err error
	if d.Verifies() {
		_, err = d.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return d.secretKey, nil
		})
	} else {
		_, _, err = d.parser.ParseUnverified(tokenString, claims)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	user := &models.User{ID: claims.userID(), Username: claims.Username}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: token has no id claim", ErrDecode)
	}
	if claims.ExpiresAt != nil {
		user.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return user, nil
}

func (c *Claims) userID() string {
	switch {
	case c.ID != "":
		return string(c.ID)
	case c.UserID != "":
		return string(c.UserID)
	default:
		return c.Subject
	}
}
