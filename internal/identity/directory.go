// Package identity resolves who a caller is: applicant snapshots for new
// cases and verified actors for HTTP requests.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"zakatdesk/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

type Directory interface {
	Applicant(ctx context.Context, applicantID string) (*types.ApplicantSnapshot, error)
}

type CognitoAPI interface {
	AdminGetUser(ctx context.Context, params *cognitoidentityprovider.AdminGetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminGetUserOutput, error)
}

// CognitoDirectory reads applicant attributes from the user pool.
type CognitoDirectory struct {
	client     CognitoAPI
	userPoolID string
}

func NewCognitoDirectory(client CognitoAPI, userPoolID string) *CognitoDirectory {
	return &CognitoDirectory{client: client, userPoolID: userPoolID}
}

func (d *CognitoDirectory) Applicant(ctx context.Context, applicantID string) (*types.ApplicantSnapshot, error) {
	out, err := d.client.AdminGetUser(ctx, &cognitoidentityprovider.AdminGetUserInput{
		UserPoolId: aws.String(d.userPoolID),
		Username:   aws.String(applicantID),
	})
	if err != nil {
		var notFound *ctypes.UserNotFoundException
		if errors.As(err, &notFound) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up cognito user %s: %w", applicantID, err)
	}

	attrs := make(map[string]string, len(out.UserAttributes))
	for _, attr := range out.UserAttributes {
		attrs[aws.ToString(attr.Name)] = aws.ToString(attr.Value)
	}

	name := attrs["name"]
	if name == "" {
		name = strings.TrimSpace(attrs["given_name"] + " " + attrs["family_name"])
	}

	return &types.ApplicantSnapshot{
		ApplicantName:  name,
		ApplicantEmail: attrs["email"],
		ApplicantPhone: attrs["phone_number"],
	}, nil
}

// Chain asks each directory in turn and returns the first hit. Lookup
// errors fall through to the next directory.
type Chain []Directory

func (c Chain) Applicant(ctx context.Context, applicantID string) (*types.ApplicantSnapshot, error) {
	var lastErr error
	for _, d := range c {
		if d == nil {
			continue
		}

		snapshot, err := d.Applicant(ctx, applicantID)
		if err == nil {
			return snapshot, nil
		}
		if !errors.Is(err, types.ErrNotFound) {
			lastErr = err
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, types.ErrNotFound
}
