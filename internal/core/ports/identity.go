package ports

import "context"

// OrgLookup resolves the organizations a credential's owner belongs to.
// Any error means the credential could not be verified.
type OrgLookup interface {
	UserOrganizations(ctx context.Context, credential string) ([]string, error)
}
