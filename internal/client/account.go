package client

import (
	"context"

	"github.com/coachpo/brokerlink/internal/auth"
	"github.com/coachpo/brokerlink/internal/schema"
)

// RegisterParams carries the fields submitted when registering a new user.
type RegisterParams struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

// Register submits a new user registration. Unauthenticated.
func (c *Client) Register(ctx context.Context, params RegisterParams) error {
	return c.postPublic(ctx, "user/register", params, nil)
}

type apiKeyResponse struct {
	Token  string `json:"token"`
	Secret string `json:"secret"`
}

// CreateAPIKey exchanges an email/password pair for an API key. Unauthenticated.
func (c *Client) CreateAPIKey(ctx context.Context, email, password string) (auth.Credentials, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var resp apiKeyResponse
	if err := c.postPublic(ctx, "apikey/create", body, &resp); err != nil {
		return auth.Credentials{}, err
	}
	return auth.Credentials{Token: resp.Token, Secret: resp.Secret}, nil
}

// RequestAPIKey starts the email-based key issuance flow and returns the
// claim token the user completes out of band. Unauthenticated.
func (c *Client) RequestAPIKey(ctx context.Context, email string) (string, error) {
	body := struct {
		Email string `json:"email"`
	}{Email: email}

	var resp struct {
		ClaimToken string `json:"claimToken"`
	}
	if err := c.postPublic(ctx, "apikey/request", body, &resp); err != nil {
		return "", err
	}
	return resp.ClaimToken, nil
}

// ClaimAPIKey redeems a claim token for an API key. Unauthenticated.
func (c *Client) ClaimAPIKey(ctx context.Context, claimToken string) (auth.Credentials, error) {
	body := struct {
		ClaimToken string `json:"claimToken"`
	}{ClaimToken: claimToken}

	var resp apiKeyResponse
	if err := c.postPublic(ctx, "apikey/claim", body, &resp); err != nil {
		return auth.Credentials{}, err
	}
	return auth.Credentials{Token: resp.Token, Secret: resp.Secret}, nil
}

type userInfoRequest struct {
	signedBody
	Email string `json:"email,omitempty"`
}

// UserInfo fetches the account profile. The email filter is optional; pass
// an empty string for the key's own account. Responses may omit the
// permissions field, which decodes as "absent", not "empty".
func (c *Client) UserInfo(ctx context.Context, email string) (schema.UserInfo, error) {
	var info schema.UserInfo
	if err := c.postSigned(ctx, "user/info", &userInfoRequest{Email: email}, &info); err != nil {
		return schema.UserInfo{}, err
	}
	return info, nil
}

type resetPasswordRequest struct {
	signedBody
	Email string `json:"email"`
}

// ResetPassword triggers the password reset flow for the account.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	return c.postSigned(ctx, "user/resetpassword", &resetPasswordRequest{Email: email}, nil)
}

type updateEmailRequest struct {
	signedBody
	NewEmail string `json:"newEmail"`
}

// UpdateEmail changes the account email.
func (c *Client) UpdateEmail(ctx context.Context, newEmail string) error {
	return c.postSigned(ctx, "user/updateemail", &updateEmailRequest{NewEmail: newEmail}, nil)
}

type updatePasswordRequest struct {
	signedBody
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdatePassword changes the account password.
func (c *Client) UpdatePassword(ctx context.Context, currentPassword, newPassword string) error {
	body := &updatePasswordRequest{CurrentPassword: currentPassword, NewPassword: newPassword}
	return c.postSigned(ctx, "user/updatepassword", body, nil)
}

type updatePhotoRequest struct {
	signedBody
	Photo       string `json:"photo"`
	ContentType string `json:"contentType"`
}

// UpdatePhoto replaces the account photo. The photo is base64 encoded.
func (c *Client) UpdatePhoto(ctx context.Context, photo, contentType string) error {
	body := &updatePhotoRequest{Photo: photo, ContentType: contentType}
	return c.postSigned(ctx, "user/updatephoto", body, nil)
}

type kycRequest struct {
	signedBody
}

// CreateKYCRequest starts a hosted identity verification session and
// returns its URL.
func (c *Client) CreateKYCRequest(ctx context.Context) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.postSigned(ctx, "user/kyc", &kycRequest{}, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}
