package main

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/organizations"
	"github.com/aws/aws-sdk-go/service/organizations/organizationsiface"
	"github.com/pkg/errors"
)

// AccountResolver maps an account id to its name and root e-mail.
// A miss is not an error: it yields two empty strings.
type AccountResolver interface {
	Resolve(ctx context.Context, accountID string) (name, email string, err error)
}

type AccountMetadata struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type OrganizationsResolver struct {
	org organizationsiface.OrganizationsAPI
}

func NewOrganizationsResolver(org organizationsiface.OrganizationsAPI) *OrganizationsResolver {
	return &OrganizationsResolver{org: org}
}

func (r *OrganizationsResolver) Resolve(ctx context.Context, accountID string) (string, string, error) {
	var found *organizations.Account
	err := r.org.ListAccountsPagesWithContext(ctx, &organizations.ListAccountsInput{},
		func(out *organizations.ListAccountsOutput, lastPage bool) bool {
			for _, a := range out.Accounts {
				if aws.StringValue(a.Id) == accountID {
					found = a
					return false
				}
			}
			return true
		})
	if err != nil {
		return "", "", errors.Wrap(err, "list accounts")
	}
	if found == nil {
		return "", "", nil
	}

	return aws.StringValue(found.Name), aws.StringValue(found.Email), nil
}
