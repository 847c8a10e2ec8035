package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"aquajudge/contexts/contest-judging/contest-engine/ports"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errMissingIdentity = errors.New("caller identity is required")
	errInvalidIdentity = errors.New("caller identity is invalid")
)

// Identity resolves the calling actor. With a secret it accepts only
// HS256 bearer tokens carrying sub and role claims; without one it trusts
// the X-User-Id and X-User-Role headers set by the gateway.
type Identity struct {
	secret []byte
}

func NewIdentity(secret string) Identity {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return Identity{}
	}
	return Identity{secret: []byte(secret)}
}

type actorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (i Identity) Resolve(r *http.Request) (ports.Actor, error) {
	if len(i.secret) == 0 {
		return actorFromHeaders(r)
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return ports.Actor{}, errMissingIdentity
	}

	claims := &actorClaims{}
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return ports.Actor{}, fmt.Errorf("%w: %v", errInvalidIdentity, err)
	}
	return buildActor(claims.Subject, claims.Role)
}

// IssueToken signs an actor token. Used by tests and local tooling.
func (i Identity) IssueToken(actor ports.Actor) (string, error) {
	if len(i.secret) == 0 {
		return "", errors.New("identity secret is not configured")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, actorClaims{
		Role:             string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{Subject: actor.UserID},
	})
	return token.SignedString(i.secret)
}

func actorFromHeaders(r *http.Request) (ports.Actor, error) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		return ports.Actor{}, errMissingIdentity
	}
	return buildActor(userID, r.Header.Get("X-User-Role"))
}

func buildActor(userID string, role string) (ports.Actor, error) {
	actor := ports.Actor{
		UserID: strings.TrimSpace(userID),
		Role:   ports.ActorRole(strings.ToLower(strings.TrimSpace(role))),
	}
	if actor.UserID == "" {
		return ports.Actor{}, errMissingIdentity
	}
	if !actor.Role.Valid() {
		return ports.Actor{}, fmt.Errorf("%w: unknown role %q", errInvalidIdentity, role)
	}
	return actor, nil
}

// requireActor writes a 401 and reports false when the request carries no
// usable identity.
func (s *Server) requireActor(w http.ResponseWriter, r *http.Request) (ports.Actor, bool) {
	actor, err := s.identity.Resolve(r)
	if err != nil {
		code := "missing_identity"
		if errors.Is(err, errInvalidIdentity) {
			code = "invalid_identity"
		}
		writeContestError(w, http.StatusUnauthorized, code, err.Error())
		return ports.Actor{}, false
	}
	return actor, true
}
