package conversations

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	userpb "messaging-service/pb/user"
)

func TestRecentConversationsJoinsEverything(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	users := new(mocks.UserDirectoryMock)
	registry := new(mocks.RegistryMock)
	agg := NewAggregator(messages, users, registry)

	latest := []models.MessageEnvelope{
		{ID: "m-9", SessionID: "1:2", SenderID: 2, ReceiverID: 1},
		{ID: "m-5", SessionID: "1:3", SenderID: 1, ReceiverID: 3},
	}
	messages.On("LatestPerSession", mock.Anything, 1, 20).Return(latest, nil).Once()
	messages.On("UnreadPerSession", mock.Anything, 1).Return(map[string]int{"1:2": 4}, nil).Once()
	users.On("BulkUsers", mock.Anything, []int{2, 3}).Return([]*userpb.GetUserResponse{
		{Id: 2, Username: "bob"},
		{Id: 3, Username: "carol"},
	}, nil).Once()
	registry.On("IsOnline", mock.Anything, 2).Return(true, nil).Once()
	registry.On("IsOnline", mock.Anything, 3).Return(false, nil).Once()

	summaries, err := agg.RecentConversations(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "1:2", summaries[0].SessionID)
	assert.Equal(t, 2, summaries[0].CounterpartID)
	assert.Equal(t, "bob", summaries[0].CounterpartUsername)
	assert.Equal(t, 4, summaries[0].UnreadCount)
	assert.True(t, summaries[0].CounterpartOnline)
	assert.Equal(t, "m-9", summaries[0].LastMessage.ID)

	assert.Equal(t, 3, summaries[1].CounterpartID)
	assert.Zero(t, summaries[1].UnreadCount)
	assert.False(t, summaries[1].CounterpartOnline)
}

func TestRecentConversationsEmpty(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	agg := NewAggregator(messages, nil, nil)

	messages.On("LatestPerSession", mock.Anything, 1, 20).Return([]models.MessageEnvelope{}, nil).Once()

	summaries, err := agg.RecentConversations(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Empty(t, summaries)
	messages.AssertNotCalled(t, "UnreadPerSession", mock.Anything, mock.Anything)
}

func TestRecentConversationsSurvivesDirectoryOutage(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	users := new(mocks.UserDirectoryMock)
	registry := new(mocks.RegistryMock)
	agg := NewAggregator(messages, users, registry)

	messages.On("LatestPerSession", mock.Anything, 1, 20).Return([]models.MessageEnvelope{
		{ID: "m-1", SessionID: "1:2", SenderID: 2, ReceiverID: 1},
	}, nil).Once()
	messages.On("UnreadPerSession", mock.Anything, 1).Return(map[string]int{}, nil).Once()
	users.On("BulkUsers", mock.Anything, []int{2}).Return(nil, errors.New("directory down")).Once()
	registry.On("IsOnline", mock.Anything, 2).Return(false, nil).Once()

	summaries, err := agg.RecentConversations(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Empty(t, summaries[0].CounterpartUsername)
	assert.Equal(t, 2, summaries[0].CounterpartID)
}
