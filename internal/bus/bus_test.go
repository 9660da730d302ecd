package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openverse/campus-api/internal/models"
)

func TestSubscribeDeliversCurrentSnapshot(t *testing.T) {
	b := NewContentBus()
	b.Publish([]models.ContentItem{{ID: "item-1"}})

	var got [][]models.ContentItem
	unsubscribe := b.Subscribe(func(items []models.ContentItem) {
		got = append(got, items)
	})
	defer unsubscribe()

	require.Len(t, got, 1)
	assert.Equal(t, "item-1", got[0][0].ID)
}

func TestPublishPreservesMutationOrder(t *testing.T) {
	b := NewContentBus()

	var seen []int
	unsubscribe := b.Subscribe(func(items []models.ContentItem) {
		seen = append(seen, len(items))
	})
	defer unsubscribe()

	b.Publish([]models.ContentItem{{ID: "a"}})
	b.Publish([]models.ContentItem{{ID: "a"}, {ID: "b"}})
	b.Publish([]models.ContentItem{{ID: "a"}})

	// Initial empty snapshot, then each post-mutation snapshot in order.
	assert.Equal(t, []int{0, 1, 2, 1}, seen)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewContentBus()

	calls := 0
	unsubscribe := b.Subscribe(func(items []models.ContentItem) { calls++ })
	require.Equal(t, 1, calls)

	unsubscribe()
	unsubscribe() // second call is a no-op
	b.Publish([]models.ContentItem{{ID: "a"}})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, b.Subscribers())
}

func TestUnsubscribeDuringDeliveryIsSafe(t *testing.T) {
	b := NewContentBus()

	var unsubscribe func()
	calls := 0
	unsubscribe = b.Subscribe(func(items []models.ContentItem) {
		calls++
		if unsubscribe != nil {
			unsubscribe()
		}
	})

	b.Publish([]models.ContentItem{{ID: "a"}})
	b.Publish([]models.ContentItem{{ID: "b"}})

	// Initial delivery plus at most the in-flight publish.
	assert.LessOrEqual(t, calls, 2)
	assert.Equal(t, 0, b.Subscribers())
}

func TestMultipleSubscribersEachReceiveEverySnapshot(t *testing.T) {
	b := NewContentBus()

	first, second := 0, 0
	u1 := b.Subscribe(func(items []models.ContentItem) { first++ })
	u2 := b.Subscribe(func(items []models.ContentItem) { second++ })
	defer u1()
	defer u2()

	b.Publish([]models.ContentItem{{ID: "a"}})
	b.Publish([]models.ContentItem{{ID: "b"}})

	assert.Equal(t, 3, first)
	assert.Equal(t, 3, second)
}

func TestUserBusPublish(t *testing.T) {
	b := NewUserBus()

	var got []models.User
	unsubscribe := b.Subscribe(func(user models.User) { got = append(got, user) })
	defer unsubscribe()

	b.Publish(models.User{EnrollmentID: "21BCE100", KarmaPoints: 10})

	require.Len(t, got, 1)
	assert.Equal(t, 10, got[0].KarmaPoints)
}
