package grpc

import (
	"context"

	authpb "messaging-service/pb/auth"

	"messaging-service/internal/errs"
)

// TokenVerifier validates bearer credentials. Satisfied by AuthClient and
// mocked in tests.
type TokenVerifier interface {
	ValidateToken(ctx context.Context, token string) (int, error)
}

// AuthClient wraps the auth-service gRPC client.
type AuthClient struct {
	client authpb.AuthServiceClient
}

// NewAuthClient constructs the wrapper.
func NewAuthClient(client authpb.AuthServiceClient) *AuthClient {
	return &AuthClient{client: client}
}

// ValidateToken verifies the JWT and returns the authenticated user id.
func (a *AuthClient) ValidateToken(ctx context.Context, token string) (int, error) {
	resp, err := a.client.ValidateToken(ctx, &authpb.ValidateTokenRequest{Token: token})
	if err != nil {
		return 0, err
	}
	if !resp.GetValid() || resp.GetUserId() == 0 {
		return 0, errs.ErrInvalidToken
	}
	return int(resp.GetUserId()), nil
}
