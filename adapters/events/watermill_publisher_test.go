package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lopushok9/whatbird/core"
)

func subscribe(t *testing.T, pubSub *gochannel.GoChannel, topic string) <-chan *message.Message {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	messages, err := pubSub.Subscribe(ctx, topic)
	require.NoError(t, err)
	return messages
}

func receive(t *testing.T, messages <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-messages:
		msg.Ack()
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestPublishIdentityCreated(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })
	messages := subscribe(t, pubSub, "whatbird.identity.created")

	pub := NewWatermillPublisher(pubSub, "whatbird")
	identity := core.NewIdentity("user-1", core.ChainSolana, "PublicKey123", time.Unix(1700000000, 0).UTC())
	require.NoError(t, pub.PublishIdentityCreated(context.Background(), identity))

	var event IdentityCreatedEvent
	require.NoError(t, json.Unmarshal(receive(t, messages).Payload, &event))
	assert.Equal(t, "user-1", event.UserID)
	assert.Equal(t, "PublicKey123", event.PublicKey)
	assert.Equal(t, "solana", event.Chain)
}

func TestPublishLogout(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })
	messages := subscribe(t, pubSub, LogoutTopic)

	pub := NewWatermillPublisher(pubSub, "")
	require.NoError(t, pub.PublishLogout(context.Background(), "user-1", "refresh-1"))

	var event LogoutEvent
	require.NoError(t, json.Unmarshal(receive(t, messages).Payload, &event))
	assert.Equal(t, LogoutEvent{UserID: "user-1", RefreshID: "refresh-1"}, event)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "session.logout", Topic("", LogoutTopic))
	assert.Equal(t, "whatbird.session.logout", Topic("whatbird", LogoutTopic))
}
