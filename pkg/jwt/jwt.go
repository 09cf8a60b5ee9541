package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identify an authenticated browser session.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// Session is the authenticated principal stored in request context.
type Session struct {
	UserID    int64
	SessionID string
}

// Config holds token settings.
type Config struct {
	Secret string        `env:"JWT_SECRET,required"`
	Issuer string        `env:"JWT_ISSUER" envDefault:"notifyhub"`
	TTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`
}

// Service issues and verifies HS256 session tokens.
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// New returns a Service for cfg.
func New(cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSigningKey
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &Service{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: cfg.TTL, now: time.Now}, nil
}

// Issue signs a token for the given session.
func (s *Service) Issue(sess Session) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(sess.UserID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		SessionID: sess.SessionID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies tok and returns the session it names.
func (s *Service) Parse(tok string) (Session, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	_, err := jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, errors.Join(ErrExpiredToken, err)
		}
		return Session{}, errors.Join(ErrInvalidToken, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Session{}, ErrInvalidClaims
	}

	return Session{UserID: userID, SessionID: claims.SessionID}, nil
}
