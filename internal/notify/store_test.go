package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Append(t *testing.T) {
	t.Run("prepends, most recent first", func(t *testing.T) {
		store := NewStore()

		store.Append(Notification{ID: 1, Type: TypeReservationCreated})
		store.Append(Notification{ID: 2, Type: TypeReservationUpdated})
		store.Append(Notification{ID: 3, Type: TypePaymentReceived})

		all := store.All()
		require.Len(t, all, 3)
		assert.Equal(t, int64(3), all[0].ID)
		assert.Equal(t, int64(2), all[1].ID)
		assert.Equal(t, int64(1), all[2].ID)
	})

	t.Run("drops redelivered IDs", func(t *testing.T) {
		store := NewStore()

		assert.True(t, store.Append(Notification{ID: 7}))
		assert.False(t, store.Append(Notification{ID: 7}))
		assert.Equal(t, 1, store.Len())
	})
}

func TestStore_MarkRead(t *testing.T) {
	store := NewStore()
	store.Append(Notification{ID: 1})
	store.Append(Notification{ID: 2})

	assert.True(t, store.MarkRead(1))
	assert.False(t, store.MarkRead(99))

	assert.Equal(t, 1, store.UnreadCount())

	all := store.All()
	assert.True(t, all[1].IsRead)
	assert.False(t, all[0].IsRead)
}

func TestStore_Clear(t *testing.T) {
	store := NewStore()
	store.Append(Notification{ID: 1})
	store.Append(Notification{ID: 2})

	store.Clear()
	assert.Equal(t, 0, store.Len())

	// A cleared ID may be delivered again.
	assert.True(t, store.Append(Notification{ID: 1}))
}

func TestStore_AllReturnsCopy(t *testing.T) {
	store := NewStore()
	store.Append(Notification{ID: 1, Message: "original"})

	all := store.All()
	all[0].Message = "mutated"

	assert.Equal(t, "original", store.All()[0].Message)
}

func TestType_Category(t *testing.T) {
	tests := []struct {
		typ  Type
		want Category
	}{
		{TypeReservationCreated, CategoryReservation},
		{TypeReservationCancelled, CategoryReservation},
		{TypeParkingLotUpdated, CategoryParkingLot},
		{TypeUserDeleted, CategoryUser},
		{TypePaymentRefunded, CategoryPayment},
		{TypeSystemMaintenance, CategorySystem},
		{Type("mystery_event"), CategoryUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.Category(), "type %s", tt.typ)
	}
}

func TestNotification_Decode(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	n := Notification{
		ID:        42,
		Type:      TypeReservationApproved,
		Message:   "your spot is confirmed",
		CreatedAt: created,
	}

	assert.Equal(t, CategoryReservation, n.Type.Category())
	assert.False(t, n.IsRead)
}
