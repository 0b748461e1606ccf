package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/melih/aesir/internal/core/domain"
	"github.com/melih/aesir/internal/core/services"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		allowedOrg string
		lookup     *fakeLookup
		wantKind   *domain.ErrorKind
		wantCalls  int
	}{
		{
			name:       "member of allowed org",
			credential: "user:tok",
			allowedOrg: "acme",
			lookup:     &fakeLookup{orgs: []string{"other", "acme"}},
			wantCalls:  1,
		},
		{
			name:       "not a member",
			credential: "user:tok",
			allowedOrg: "acme",
			lookup:     &fakeLookup{orgs: []string{"other"}},
			wantKind:   kind(domain.AuthForbidden),
			wantCalls:  1,
		},
		{
			name:       "no memberships",
			credential: "user:tok",
			allowedOrg: "acme",
			lookup:     &fakeLookup{},
			wantKind:   kind(domain.AuthForbidden),
			wantCalls:  1,
		},
		{
			name:       "lookup rejected",
			credential: "user:bad",
			allowedOrg: "acme",
			lookup:     &fakeLookup{err: errors.New("request failed, got status code: 401")},
			wantKind:   kind(domain.AuthInvalid),
			wantCalls:  1,
		},
		{
			name:       "missing credential skips lookup",
			allowedOrg: "acme",
			lookup:     &fakeLookup{orgs: []string{"acme"}},
			wantKind:   kind(domain.AuthInvalid),
		},
		{
			name:       "no allowed org configured",
			credential: "user:tok",
			lookup:     &fakeLookup{},
			wantCalls:  1,
		},
		{
			name:       "no allowed org still needs valid credential",
			credential: "user:bad",
			lookup:     &fakeLookup{err: errors.New("unauthorized")},
			wantKind:   kind(domain.AuthInvalid),
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := services.NewAuthorizer(tt.lookup, tt.allowedOrg)
			err := a.Authorize(context.Background(), tt.credential)

			if tt.wantKind == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, domain.IsKind(err, *tt.wantKind), "got %v", err)
			}
			assert.Equal(t, tt.wantCalls, tt.lookup.calls)
		})
	}
}

func TestAuthorizeEachRequest(t *testing.T) {
	lookup := &fakeLookup{orgs: []string{"acme"}}
	a := services.NewAuthorizer(lookup, "acme")

	for i := 0; i < 3; i++ {
		assert.NoError(t, a.Authorize(context.Background(), "user:tok"))
	}
	assert.Equal(t, 3, lookup.calls)
}

func kind(k domain.ErrorKind) *domain.ErrorKind {
	return &k
}
