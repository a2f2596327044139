package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Role      string `json:"role"`
	ChannelID string `json:"channel_id,omitempty"`

	jwt.RegisteredClaims
}

type JWT struct {
	Secret   []byte
	TokenTTL time.Duration
	Issuer   string
}

func (j JWT) Sign(id Identity) (token string, expiresAt time.Time, err error) {
	if len(j.Secret) == 0 {
		return "", time.Time{}, errors.New("jwt secret is empty")
	}
	if id.UserID == "" {
		return "", time.Time{}, errors.New("subject is empty")
	}
	ttl := j.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now().UTC()
	expiresAt = now.Add(ttl)
	claims := Claims{
		Role:      string(id.Role),
		ChannelID: id.ChannelID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    j.issuer(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, expiresAt, nil
}

func (j JWT) Verify(token string) (Identity, error) {
	if len(j.Secret) == 0 {
		return Identity{}, errors.New("jwt secret is empty")
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return j.Secret, nil
	}, jwt.WithIssuer(j.issuer()))
	if err != nil {
		return Identity{}, err
	}
	c, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Identity{}, errors.New("invalid token")
	}
	role, ok := ParseRole(c.Role)
	if !ok {
		return Identity{}, errors.New("unknown role claim")
	}
	sub := strings.TrimSpace(c.Subject)
	if sub == "" {
		return Identity{}, errors.New("missing subject")
	}
	return Identity{UserID: sub, Role: role, ChannelID: strings.TrimSpace(c.ChannelID)}, nil
}

func (j JWT) issuer() string {
	if j.Issuer == "" {
		return "adstream"
	}
	return j.Issuer
}
