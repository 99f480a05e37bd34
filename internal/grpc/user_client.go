package grpc

import (
	"context"
	"time"

	userpb "messaging-service/pb/user"

	"messaging-service/internal/errs"
)

// UserDirectory is the profile/friend-graph collaborator consumed for
// counterpart joins, presence fan-out, and last-seen write-back.
type UserDirectory interface {
	GetUser(ctx context.Context, userID int) (*userpb.GetUserResponse, error)
	BulkUsers(ctx context.Context, ids []int) ([]*userpb.GetUserResponse, error)
	AreFriends(ctx context.Context, userID, friendID int) (bool, error)
	FriendIDs(ctx context.Context, userID int) ([]int, error)
	UpdateLastSeen(ctx context.Context, userID int, at time.Time) error
}

// UserClient wraps the user-service gRPC client.
type UserClient struct {
	client userpb.UserInternalClient
}

// NewUserClient constructs the wrapper.
func NewUserClient(client userpb.UserInternalClient) *UserClient {
	return &UserClient{client: client}
}

// GetUser retrieves user details.
func (u *UserClient) GetUser(ctx context.Context, userID int) (*userpb.GetUserResponse, error) {
	resp, err := u.client.GetUser(ctx, &userpb.GetUserRequest{UserId: int64(userID)})
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.GetId() == 0 {
		return nil, errs.NotFound("user not found")
	}
	return resp, nil
}

// BulkUsers fetches multiple users in one call.
func (u *UserClient) BulkUsers(ctx context.Context, ids []int) ([]*userpb.GetUserResponse, error) {
	if len(ids) == 0 {
		return []*userpb.GetUserResponse{}, nil
	}
	id64s := make([]int64, 0, len(ids))
	for _, id := range ids {
		id64s = append(id64s, int64(id))
	}

	resp, err := u.client.BulkUsers(ctx, &userpb.BulkUsersRequest{Ids: id64s})
	if err != nil {
		return nil, err
	}
	return resp.GetUsers(), nil
}

// AreFriends verifies friendship between two users.
func (u *UserClient) AreFriends(ctx context.Context, userID, friendID int) (bool, error) {
	resp, err := u.client.AreFriends(ctx, &userpb.AreFriendsRequest{UserId: int64(userID), FriendId: int64(friendID)})
	if err != nil {
		return false, err
	}
	return resp.GetAreFriends(), nil
}

// FriendIDs lists a user's friends for presence fan-out.
func (u *UserClient) FriendIDs(ctx context.Context, userID int) ([]int, error) {
	resp, err := u.client.FriendIDs(ctx, &userpb.FriendIDsRequest{UserId: int64(userID)})
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(resp.GetFriendIds()))
	for _, id := range resp.GetFriendIds() {
		ids = append(ids, int(id))
	}
	return ids, nil
}

// UpdateLastSeen writes the user's last-seen timestamp back to the profile
// store when the final connection drops.
func (u *UserClient) UpdateLastSeen(ctx context.Context, userID int, at time.Time) error {
	_, err := u.client.UpdateLastSeen(ctx, &userpb.UpdateLastSeenRequest{UserId: int64(userID), LastSeenUnix: at.Unix()})
	return err
}
