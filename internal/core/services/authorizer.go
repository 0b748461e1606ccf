package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/melih/aesir/internal/core/domain"
	"github.com/melih/aesir/internal/core/ports"
)

// Authorizer admits callers whose credential belongs to the allowed
// organization. Every call hits the identity provider; nothing is cached.
type Authorizer struct {
	lookup     ports.OrgLookup
	allowedOrg string
}

// NewAuthorizer creates an Authorizer. An empty allowedOrg admits any
// credential the identity provider accepts.
func NewAuthorizer(lookup ports.OrgLookup, allowedOrg string) *Authorizer {
	return &Authorizer{lookup: lookup, allowedOrg: allowedOrg}
}

// Authorize returns nil when credential may trigger builds, otherwise a
// *domain.Error of kind AuthInvalid or AuthForbidden.
func (a *Authorizer) Authorize(ctx context.Context, credential string) error {
	if credential == "" {
		logrus.Error("Missing credentials")
		return errInvalidCredentials()
	}

	orgs, err := a.lookup.UserOrganizations(ctx, credential)
	if err != nil {
		logrus.Errorf("Got wrong GitHub credentials: %v", err)
		return errInvalidCredentials()
	}
	logrus.Debug("Working credentials for GitHub")

	if a.allowedOrg == "" {
		return nil
	}
	for _, org := range orgs {
		if org == a.allowedOrg {
			return nil
		}
	}

	logrus.WithField("org", a.allowedOrg).Error("Not in allowed organization")
	return domain.NewError(domain.AuthForbidden,
		"User not allowed to deploy",
		"User is not in allowed organization to deploy")
}

func errInvalidCredentials() error {
	return domain.NewError(domain.AuthInvalid,
		"Authentication required",
		"Invalid GitHub credentials")
}
