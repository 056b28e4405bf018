package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusIsValid(t *testing.T) {
	for _, s := range []Status{
		StatusPending, StatusPaid, StatusFailed, StatusCancelled,
		StatusPendingVerification, StatusProcessing, StatusShipped, StatusDelivered,
	} {
		assert.True(t, s.IsValid(), string(s))
	}

	// the set is case-sensitive: these are not members
	for _, s := range []Status{"", "Paid", "PENDING", "shipped", "Refunded", "pendingVerification"} {
		assert.False(t, s.IsValid(), string(s))
	}
}

func TestStatusNotifiable(t *testing.T) {
	assert.True(t, StatusPaid.Notifiable())
	assert.True(t, StatusProcessing.Notifiable())
	assert.True(t, StatusShipped.Notifiable())
	assert.True(t, StatusDelivered.Notifiable())
	assert.True(t, StatusPendingVerification.Notifiable())

	assert.False(t, StatusPending.Notifiable())
	assert.False(t, StatusFailed.Notifiable())
	assert.False(t, StatusCancelled.Notifiable())
}
