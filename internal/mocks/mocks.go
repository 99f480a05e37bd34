package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	grpcclient "messaging-service/internal/grpc"
	"messaging-service/internal/models"
	"messaging-service/internal/presence"
	"messaging-service/internal/repositories"
	userpb "messaging-service/pb/user"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Append(ctx context.Context, env models.MessageEnvelope) (models.MessageEnvelope, error) {
	args := m.Called(ctx, env)
	var stored models.MessageEnvelope
	if val := args.Get(0); val != nil {
		stored = val.(models.MessageEnvelope)
	}
	return stored, args.Error(1)
}

func (m *MessageRepositoryMock) GetEnvelope(ctx context.Context, id string) (models.MessageEnvelope, error) {
	args := m.Called(ctx, id)
	var env models.MessageEnvelope
	if val := args.Get(0); val != nil {
		env = val.(models.MessageEnvelope)
	}
	return env, args.Error(1)
}

func (m *MessageRepositoryMock) ListConversation(ctx context.Context, sessionID string, limit, offset int) ([]models.MessageEnvelope, error) {
	args := m.Called(ctx, sessionID, limit, offset)
	var msgs []models.MessageEnvelope
	if val := args.Get(0); val != nil {
		msgs = val.([]models.MessageEnvelope)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkDelivered(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, sessionID string, viewerID int) (int, error) {
	args := m.Called(ctx, sessionID, viewerID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) SoftDelete(ctx context.Context, id string, requesterID int) error {
	args := m.Called(ctx, id, requesterID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) CountUnread(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) LatestPerSession(ctx context.Context, userID, limit int) ([]models.MessageEnvelope, error) {
	args := m.Called(ctx, userID, limit)
	var msgs []models.MessageEnvelope
	if val := args.Get(0); val != nil {
		msgs = val.([]models.MessageEnvelope)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) UnreadPerSession(ctx context.Context, userID int) (map[string]int, error) {
	args := m.Called(ctx, userID)
	var counts map[string]int
	if val := args.Get(0); val != nil {
		counts = val.(map[string]int)
	}
	return counts, args.Error(1)
}

type KeyRepositoryMock struct {
	mock.Mock
}

func (m *KeyRepositoryMock) Insert(ctx context.Context, pair models.UserKeyPair) error {
	args := m.Called(ctx, pair)
	return args.Error(0)
}

func (m *KeyRepositoryMock) Current(ctx context.Context, userID int) (models.UserKeyPair, error) {
	args := m.Called(ctx, userID)
	var pair models.UserKeyPair
	if val := args.Get(0); val != nil {
		pair = val.(models.UserKeyPair)
	}
	return pair, args.Error(1)
}

func (m *KeyRepositoryMock) Version(ctx context.Context, userID, version int) (models.UserKeyPair, error) {
	args := m.Called(ctx, userID, version)
	var pair models.UserKeyPair
	if val := args.Get(0); val != nil {
		pair = val.(models.UserKeyPair)
	}
	return pair, args.Error(1)
}

func (m *KeyRepositoryMock) CurrentVersion(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type UserDirectoryMock struct {
	mock.Mock
}

func (m *UserDirectoryMock) GetUser(ctx context.Context, userID int) (*userpb.GetUserResponse, error) {
	args := m.Called(ctx, userID)
	var user *userpb.GetUserResponse
	if val := args.Get(0); val != nil {
		user = val.(*userpb.GetUserResponse)
	}
	return user, args.Error(1)
}

func (m *UserDirectoryMock) BulkUsers(ctx context.Context, ids []int) ([]*userpb.GetUserResponse, error) {
	args := m.Called(ctx, ids)
	var users []*userpb.GetUserResponse
	if val := args.Get(0); val != nil {
		users = val.([]*userpb.GetUserResponse)
	}
	return users, args.Error(1)
}

func (m *UserDirectoryMock) AreFriends(ctx context.Context, userID, friendID int) (bool, error) {
	args := m.Called(ctx, userID, friendID)
	return args.Bool(0), args.Error(1)
}

func (m *UserDirectoryMock) FriendIDs(ctx context.Context, userID int) ([]int, error) {
	args := m.Called(ctx, userID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *UserDirectoryMock) UpdateLastSeen(ctx context.Context, userID int, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

type TokenVerifierMock struct {
	mock.Mock
}

func (m *TokenVerifierMock) ValidateToken(ctx context.Context, token string) (int, error) {
	args := m.Called(ctx, token)
	return args.Int(0), args.Error(1)
}

type RegistryMock struct {
	mock.Mock
}

func (m *RegistryMock) Connect(ctx context.Context, userID int, connID string) (bool, string, error) {
	args := m.Called(ctx, userID, connID)
	return args.Bool(0), args.String(1), args.Error(2)
}

func (m *RegistryMock) Disconnect(ctx context.Context, connID string) (int, bool, error) {
	args := m.Called(ctx, connID)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *RegistryMock) Touch(ctx context.Context, connID string) error {
	args := m.Called(ctx, connID)
	return args.Error(0)
}

func (m *RegistryMock) IsOnline(ctx context.Context, userID int) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *RegistryMock) Lookup(ctx context.Context, userID int) (models.PresenceEntry, bool, error) {
	args := m.Called(ctx, userID)
	var entry models.PresenceEntry
	if val := args.Get(0); val != nil {
		entry = val.(models.PresenceEntry)
	}
	return entry, args.Bool(1), args.Error(2)
}

var (
	_ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
	_ repositories.KeyRepository     = (*KeyRepositoryMock)(nil)
	_ grpcclient.UserDirectory       = (*UserDirectoryMock)(nil)
	_ grpcclient.TokenVerifier       = (*TokenVerifierMock)(nil)
	_ presence.Registry              = (*RegistryMock)(nil)
)
