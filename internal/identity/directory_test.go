package identity

import (
	"context"
	"errors"
	"testing"

	"zakatdesk/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCognito struct {
	users map[string][]ctypes.AttributeType
	err   error
}

func (f *fakeCognito) AdminGetUser(_ context.Context, in *cognitoidentityprovider.AdminGetUserInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminGetUserOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	attrs, ok := f.users[aws.ToString(in.Username)]
	if !ok {
		return nil, &ctypes.UserNotFoundException{Message: aws.String("User does not exist.")}
	}
	return &cognitoidentityprovider.AdminGetUserOutput{Username: in.Username, UserAttributes: attrs}, nil
}

func attr(name, value string) ctypes.AttributeType {
	return ctypes.AttributeType{Name: aws.String(name), Value: aws.String(value)}
}

func TestCognitoDirectory(t *testing.T) {
	d := NewCognitoDirectory(&fakeCognito{users: map[string][]ctypes.AttributeType{
		"u1": {attr("given_name", "Amina"), attr("family_name", "Yusuf"), attr("email", "amina@example.com"), attr("phone_number", "+15555550100")},
	}}, "pool")

	snapshot, err := d.Applicant(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Amina Yusuf", snapshot.ApplicantName)
	assert.Equal(t, "amina@example.com", snapshot.ApplicantEmail)
	assert.Equal(t, "+15555550100", snapshot.ApplicantPhone)

	_, err = d.Applicant(context.Background(), "missing")
	require.ErrorIs(t, err, types.ErrNotFound)
}

type staticDirectory struct {
	snapshot *types.ApplicantSnapshot
	err      error
}

func (s staticDirectory) Applicant(context.Context, string) (*types.ApplicantSnapshot, error) {
	return s.snapshot, s.err
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	hit := staticDirectory{snapshot: &types.ApplicantSnapshot{ApplicantName: "from db"}}
	miss := staticDirectory{err: types.ErrNotFound}
	broken := staticDirectory{err: errors.New("throttled")}

	got, err := Chain{broken, miss, hit}.Applicant(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "from db", got.ApplicantName)

	_, err = Chain{miss, nil}.Applicant(ctx, "u1")
	require.ErrorIs(t, err, types.ErrNotFound)

	_, err = Chain{broken, miss}.Applicant(ctx, "u1")
	require.EqualError(t, err, "throttled")
}
