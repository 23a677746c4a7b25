package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// CognitoAPI is the subset of the Cognito identity provider client used by
// the portal. *cognitoidentityprovider.Client satisfies it.
type CognitoAPI interface {
	SignUp(ctx context.Context, in *cognitoidentityprovider.SignUpInput, opts ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, in *cognitoidentityprovider.ConfirmSignUpInput, opts ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmSignUpOutput, error)
	ResendConfirmationCode(ctx context.Context, in *cognitoidentityprovider.ResendConfirmationCodeInput, opts ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ResendConfirmationCodeOutput, error)
	InitiateAuth(ctx context.Context, in *cognitoidentityprovider.InitiateAuthInput, opts ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	AdminGetUser(ctx context.Context, in *cognitoidentityprovider.AdminGetUserInput, opts ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminGetUserOutput, error)
	AdminEnableUser(ctx context.Context, in *cognitoidentityprovider.AdminEnableUserInput, opts ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminEnableUserOutput, error)
	AdminDisableUser(ctx context.Context, in *cognitoidentityprovider.AdminDisableUserInput, opts ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminDisableUserOutput, error)
	ForgotPassword(ctx context.Context, in *cognitoidentityprovider.ForgotPasswordInput, opts ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, in *cognitoidentityprovider.ConfirmForgotPasswordInput, opts ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmForgotPasswordOutput, error)
}

// Cognito implements Provider against an AWS Cognito user pool. The vendor
// binding lives in the custom:vendor attribute.
type Cognito struct {
	client   CognitoAPI
	clientID string
	poolID   string
}

var _ Provider = (*Cognito)(nil)

// NewCognito wraps a Cognito client for the given app client and user pool.
func NewCognito(client CognitoAPI, clientID, poolID string) *Cognito {
	return &Cognito{client: client, clientID: clientID, poolID: poolID}
}

const vendorAttribute = "custom:vendor"

func (c *Cognito) SignUp(ctx context.Context, user User, password string) error {
	_, err := c.client.SignUp(ctx, &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(c.clientID),
		Username: aws.String(user.Email),
		Password: aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(user.Email)},
			{Name: aws.String("name"), Value: aws.String(user.Name)},
			{Name: aws.String(vendorAttribute), Value: aws.String(user.Vendor)},
		},
	})
	return translate(err)
}

func (c *Cognito) ConfirmSignUp(ctx context.Context, email, code string) error {
	_, err := c.client.ConfirmSignUp(ctx, &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(c.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	})
	return translate(err)
}

func (c *Cognito) ResendConfirmation(ctx context.Context, email string) error {
	_, err := c.client.ResendConfirmationCode(ctx, &cognitoidentityprovider.ResendConfirmationCodeInput{
		ClientId: aws.String(c.clientID),
		Username: aws.String(email),
	})
	return translate(err)
}

func (c *Cognito) Login(ctx context.Context, creds Credentials) (User, error) {
	_, err := c.client.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		ClientId: aws.String(c.clientID),
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		AuthParameters: map[string]string{
			"USERNAME": creds.Email,
			"PASSWORD": creds.Password,
		},
	})
	if err != nil {
		return User{}, translate(err)
	}
	return c.GetUser(ctx, creds.Email)
}

func (c *Cognito) GetUser(ctx context.Context, email string) (User, error) {
	out, err := c.client.AdminGetUser(ctx, &cognitoidentityprovider.AdminGetUserInput{
		UserPoolId: aws.String(c.poolID),
		Username:   aws.String(email),
	})
	if err != nil {
		return User{}, translate(err)
	}

	user := User{
		Email:       email,
		IsEnabled:   out.Enabled,
		IsConfirmed: out.UserStatus == types.UserStatusTypeConfirmed,
	}
	for _, attr := range out.UserAttributes {
		switch aws.ToString(attr.Name) {
		case "name":
			user.Name = aws.ToString(attr.Value)
		case vendorAttribute:
			user.Vendor = aws.ToString(attr.Value)
		}
	}
	return user, nil
}

func (c *Cognito) EnableUser(ctx context.Context, email string) error {
	_, err := c.client.AdminEnableUser(ctx, &cognitoidentityprovider.AdminEnableUserInput{
		UserPoolId: aws.String(c.poolID),
		Username:   aws.String(email),
	})
	return translate(err)
}

func (c *Cognito) DisableUser(ctx context.Context, email string) error {
	_, err := c.client.AdminDisableUser(ctx, &cognitoidentityprovider.AdminDisableUserInput{
		UserPoolId: aws.String(c.poolID),
		Username:   aws.String(email),
	})
	return translate(err)
}

func (c *Cognito) ForgotPassword(ctx context.Context, email string) error {
	_, err := c.client.ForgotPassword(ctx, &cognitoidentityprovider.ForgotPasswordInput{
		ClientId: aws.String(c.clientID),
		Username: aws.String(email),
	})
	return translate(err)
}

func (c *Cognito) ConfirmForgotPassword(ctx context.Context, email, code, password string) error {
	_, err := c.client.ConfirmForgotPassword(ctx, &cognitoidentityprovider.ConfirmForgotPasswordInput{
		ClientId:         aws.String(c.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(password),
	})
	return translate(err)
}

// translate maps Cognito error types onto the package sentinels. Unknown
// errors pass through wrapped.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var (
		notFound     *types.UserNotFoundException
		notConfirmed *types.UserNotConfirmedException
		exists       *types.UsernameExistsException
		notAuth      *types.NotAuthorizedException
		badCode      *types.CodeMismatchException
		expiredCode  *types.ExpiredCodeException
	)
	switch {
	case errors.As(err, &notFound):
		return ErrUserNotFound
	case errors.As(err, &notConfirmed):
		return ErrUserNotConfirmed
	case errors.As(err, &exists):
		return ErrUserExists
	case errors.As(err, &notAuth):
		return ErrNotAuthorized
	case errors.As(err, &badCode), errors.As(err, &expiredCode):
		return ErrCodeMismatch
	default:
		return fmt.Errorf("identity provider: %w", err)
	}
}
