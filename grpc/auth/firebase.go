package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	fbAuth "firebase.google.com/go/auth"

	pkgAuth "github.com/pagenote-project/pagenote/pkg/auth"
	"github.com/pagenote-project/pagenote/pkg/utils"
)

type FirebaseAuthClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbAuth.Token, error)
}

type Authenticator struct {
	client FirebaseAuthClient
	// When non-empty, only accounts with an email in one of these domains may sign in.
	// E.g., ["example.com"]
	allowedEmailDomains []string
}

func New(client FirebaseAuthClient, allowedEmailDomains []string) *Authenticator {
	// Domains are compared against the lowercased domain of the email claim.
	domains := utils.Filter(
		utils.Map(allowedEmailDomains, func(domain string) string { return strings.ToLower(strings.TrimSpace(domain)) }),
		func(domain string) bool { return domain != "" },
	)
	return &Authenticator{
		client:              client,
		allowedEmailDomains: domains,
	}
}

func (a *Authenticator) Verify(ctx context.Context, token string) (pkgAuth.Actor, error) {
	decodedToken, err := a.client.VerifyIDToken(ctx, token)
	if err != nil {
		return pkgAuth.Actor{}, fmt.Errorf("failed to verify the token: %w", err)
	}
	if decodedToken.UID == "" {
		return pkgAuth.Actor{}, fmt.Errorf("failed to verify the token: missing user id")
	}

	email, _ := decodedToken.Claims["email"].(string)
	if len(a.allowedEmailDomains) > 0 {
		if err := a.checkEmailDomain(email); err != nil {
			return pkgAuth.Actor{}, err
		}
	}

	return pkgAuth.Actor{ID: decodedToken.UID, Email: email}, nil
}

func (a *Authenticator) checkEmailDomain(email string) error {
	if email == "" {
		return fmt.Errorf("failed to verify the token: invalid email in claim")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("failed to verify the token: invalid email format")
	}
	splitEmail := strings.Split(email, "@")
	if len(splitEmail) != 2 {
		return fmt.Errorf("failed to verify the token: malformed email structure (expected single '@')")
	}
	if !utils.Contains(a.allowedEmailDomains, strings.ToLower(splitEmail[1])) {
		return fmt.Errorf("failed to verify the token: invalid email domain")
	}
	return nil
}
