package pkg

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrCSRFMissing  = errors.New("the CSRF token is missing")
	ErrCSRFMismatch = errors.New("the CSRF tokens do not match")
	ErrCSRFExpired  = errors.New("the CSRF token has expired")
	ErrCSRFInvalid  = errors.New("the CSRF token is invalid")
)

const csrfSubject = "csrf"

// CSRFIssuer 签发/校验 CSRF token（HS256），token 同时下发到 body 和 cookie
type CSRFIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCSRFIssuer(secret string, ttl time.Duration) *CSRFIssuer {
	return &CSRFIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *CSRFIssuer) TTL() time.Duration {
	return i.ttl
}

func (i *CSRFIssuer) Generate() (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   csrfSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	})
	return token.SignedString(i.secret)
}

// Verify 双重提交校验：header 与 cookie 必须一致且签名有效
func (i *CSRFIssuer) Verify(header, cookie string) error {
	if header == "" {
		return ErrCSRFMissing
	}
	if header != cookie {
		return ErrCSRFMismatch
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(header, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(csrfSubject),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrCSRFExpired
		}
		return ErrCSRFInvalid
	}
	if !token.Valid {
		return ErrCSRFInvalid
	}
	return nil
}
