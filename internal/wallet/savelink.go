package wallet

// savelink.go signs "save to wallet" links.
//
// The link carries a JWT signed by the service account. The wallet app sends it to the provider, which checks the
// signature against the service account's published keys and adds the referenced pass object to the user's wallet.

import (
	"fmt"
	"strings"
	"time"

	"github.com/information-sharing-networks/walletpass/internal/crypto"
)

// DefaultSaveURLTemplate is the provider's save link, {token} is replaced by the signed JWT
const DefaultSaveURLTemplate = "https://pay.google.com/gp/v/save/{token}"

const tokenPlaceholder = "{token}"

// claim values expected by the provider
const (
	SaveLinkAudience = "google"
	SaveLinkType     = "savetowallet"
)

// SaveLinkClaims is the payload of a save link JWT
type SaveLinkClaims struct {
	Issuer   string          `json:"iss"`
	Audience string          `json:"aud"`
	Type     string          `json:"typ"`
	Origins  []string        `json:"origins"`
	IssuedAt int64           `json:"iat"`
	Payload  SaveLinkPayload `json:"payload"`
}

type SaveLinkPayload struct {
	GenericObjects []ObjectReference `json:"genericObjects"`
}

type ObjectReference struct {
	ID string `json:"id"`
}

// ObjectIDs returns the ids of the objects referenced by the claims
func (c SaveLinkClaims) ObjectIDs() []string {
	ids := make([]string, 0, len(c.Payload.GenericObjects))
	for _, o := range c.Payload.GenericObjects {
		ids = append(ids, o.ID)
	}
	return ids
}

// SaveLinkSigner produces save links. It does no network I/O.
type SaveLinkSigner struct {
	template string
	now      func() time.Time
}

// NewSaveLinkSigner returns a signer producing links from template (DefaultSaveURLTemplate when empty).
// The template must contain {token} exactly once.
func NewSaveLinkSigner(template string) (*SaveLinkSigner, error) {
	if template == "" {
		template = DefaultSaveURLTemplate
	}
	if strings.Count(template, tokenPlaceholder) != 1 {
		return nil, NewValidationError(fmt.Sprintf("save url template %q must contain %s exactly once", template, tokenPlaceholder))
	}
	return &SaveLinkSigner{template: template, now: time.Now}, nil
}

// Token returns the signed save link JWT for objectID. origin is the site allowed to show the save button.
func (s *SaveLinkSigner) Token(creds *Credentials, objectID, origin string) (string, error) {
	if creds == nil || creds.SigningKey() == nil {
		return "", NewCredentialError("no signing key available")
	}

	claims := SaveLinkClaims{
		Issuer:   creds.ClientEmail,
		Audience: SaveLinkAudience,
		Type:     SaveLinkType,
		Origins:  []string{origin},
		IssuedAt: s.now().Unix(),
		Payload: SaveLinkPayload{
			GenericObjects: []ObjectReference{{ID: objectID}},
		},
	}

	payload, err := crypto.MarshalCanonical(claims)
	if err != nil {
		return "", WrapInternalError(err, "failed to encode save link claims")
	}

	token, err := crypto.SignRS256(payload, creds.SigningKey())
	if err != nil {
		return "", WrapCredentialError(err, "failed to sign save link")
	}
	return token, nil
}

// SignURL returns the save link URL for objectID
func (s *SaveLinkSigner) SignURL(creds *Credentials, objectID, origin string) (string, error) {
	token, err := s.Token(creds, objectID, origin)
	if err != nil {
		return "", err
	}
	return strings.Replace(s.template, tokenPlaceholder, token, 1), nil
}

// TokenFromURL extracts the JWT from a save link produced with the same template
func (s *SaveLinkSigner) TokenFromURL(link string) (string, error) {
	prefix, suffix, _ := strings.Cut(s.template, tokenPlaceholder)
	if !strings.HasPrefix(link, prefix) || !strings.HasSuffix(link, suffix) || len(link) <= len(prefix)+len(suffix) {
		return "", NewValidationError("link does not match the save url template")
	}
	return link[len(prefix) : len(link)-len(suffix)], nil
}
