package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	session "github.com/shopglow/go-session"
)

func TestBridgePublishReachesEverySubscriber(t *testing.T) {
	bridge := session.NewUnauthorizedBridge()

	first, second := 0, 0
	bridge.Subscribe(func() { first++ })
	bridge.Subscribe(func() { second++ })

	bridge.Publish()
	bridge.Publish()

	assert.Equal(t, 2, first)
	assert.Equal(t, 2, second)
}

func TestBridgePublishBeforeSubscribeIsLost(t *testing.T) {
	bridge := session.NewUnauthorizedBridge()

	bridge.Publish()

	calls := 0
	bridge.Subscribe(func() { calls++ })

	assert.Equal(t, 0, calls)

	bridge.Publish()
	assert.Equal(t, 1, calls)
}

func TestBridgeUnsubscribeStopsDelivery(t *testing.T) {
	bridge := session.NewUnauthorizedBridge()

	calls := 0
	unsubscribe := bridge.Subscribe(func() { calls++ })

	bridge.Publish()
	unsubscribe()
	bridge.Publish()

	assert.Equal(t, 1, calls)
}

func TestBridgeUnsubscribeTwiceIsNoop(t *testing.T) {
	bridge := session.NewUnauthorizedBridge()

	calls := 0
	unsubscribe := bridge.Subscribe(func() { calls++ })
	kept := 0
	bridge.Subscribe(func() { kept++ })

	unsubscribe()
	unsubscribe()

	bridge.Publish()
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, kept)
}

func TestBridgeNilSubscriberIsIgnored(t *testing.T) {
	bridge := session.NewUnauthorizedBridge()

	unsubscribe := bridge.Subscribe(nil)
	assert.NotPanics(t, func() {
		bridge.Publish()
		unsubscribe()
	})
}

func TestBridgeSubscriberMayUnsubscribeDuringPublish(t *testing.T) {
	bridge := session.NewUnauthorizedBridge()

	var unsubscribe func()
	calls := 0
	unsubscribe = bridge.Subscribe(func() {
		calls++
		unsubscribe()
	})

	bridge.Publish()
	bridge.Publish()

	assert.Equal(t, 1, calls)
}
