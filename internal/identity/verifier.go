package identity

import (
	"context"
	"fmt"
	"strings"

	"zakatdesk/pkg/types"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

const (
	claimGroups     = "cognito:groups"
	claimMasjidID   = "custom:masjid_id"
	claimMasjidName = "custom:masjid_name"
)

type KeySource interface {
	Lookup(ctx context.Context, url string) (jwk.Set, error)
}

// Verifier checks Cognito-issued JWTs against the pool's JWKS.
type Verifier struct {
	keys    KeySource
	jwksURL string
}

func NewVerifier(keys KeySource, jwksURL string) *Verifier {
	return &Verifier{keys: keys, jwksURL: jwksURL}
}

// NewCognitoVerifier registers the issuer's JWKS with a refreshing cache.
func NewCognitoVerifier(ctx context.Context, issuerURL string) (*Verifier, error) {
	cache, err := jwk.NewCache(ctx, httprc.NewClient())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jwk cache: %w", err)
	}

	jwksURL := fmt.Sprintf("%s/.well-known/jwks.json", strings.TrimSuffix(issuerURL, "/"))
	if err := cache.Register(ctx, jwksURL); err != nil {
		return nil, fmt.Errorf("failed to register jwks %s with cache: %w", jwksURL, err)
	}

	return NewVerifier(cache, jwksURL), nil
}

func (v *Verifier) Authenticate(ctx context.Context, rawToken string) (types.Actor, error) {
	set, err := v.keys.Lookup(ctx, v.jwksURL)
	if err != nil {
		return types.Actor{}, fmt.Errorf("failed to fetch jwks: %w", err)
	}

	token, err := jwt.Parse([]byte(rawToken), jwt.WithKeySet(set), jwt.WithValidate(true))
	if err != nil {
		return types.Actor{}, fmt.Errorf("%w: invalid token: %w", types.ErrPermissionDenied, err)
	}

	return ActorFromToken(token)
}

// ActorFromToken maps Cognito claims onto an Actor. Membership in the
// super_admin or admin group decides the role.
func ActorFromToken(token jwt.Token) (types.Actor, error) {
	subject, ok := token.Subject()
	if !ok || subject == "" {
		return types.Actor{}, fmt.Errorf("%w: token has no subject", types.ErrPermissionDenied)
	}

	actor := types.Actor{
		ID:         subject,
		Name:       stringClaim(token, "name"),
		Email:      stringClaim(token, "email"),
		Phone:      stringClaim(token, "phone_number"),
		Role:       types.RoleApplicant,
		MasjidID:   stringClaim(token, claimMasjidID),
		MasjidName: stringClaim(token, claimMasjidName),
	}

	if actor.Name == "" {
		actor.Name = strings.TrimSpace(stringClaim(token, "given_name") + " " + stringClaim(token, "family_name"))
	}

	var groups []any
	if err := token.Get(claimGroups, &groups); err == nil {
		actor.Role = roleFromGroups(groups)
	}

	return actor, nil
}

func stringClaim(token jwt.Token, name string) string {
	var v string
	if err := token.Get(name, &v); err != nil {
		return ""
	}
	return v
}

func roleFromGroups(groups []any) types.Role {
	role := types.RoleApplicant
	for _, g := range groups {
		switch fmt.Sprint(g) {
		case string(types.RoleSuperAdmin):
			return types.RoleSuperAdmin
		case string(types.RoleAdmin):
			role = types.RoleAdmin
		}
	}
	return role
}
