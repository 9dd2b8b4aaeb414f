package settlement_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zenithcrm/backend/internal/domain/settlement"
	"github.com/zenithcrm/backend/internal/domain/shared/valueobject"
)

func newTestRefund(t *testing.T, amount, charges float64) *settlement.Refund {
	t.Helper()
	r, err := settlement.NewRefund(
		uuid.New(),
		uuid.New(),
		nil,
		nil,
		valueobject.NewMoneyINRFromFloat(amount),
		valueobject.NewMoneyINRFromFloat(charges),
		"booking cancelled",
	)
	require.NoError(t, err)
	return r
}

func TestNewRefund(t *testing.T) {
	dealID := uuid.New()
	clientID := uuid.New()
	paymentSource := settlement.RefundSourcePayment
	sourceID := uuid.New()

	tests := []struct {
		name           string
		dealID         uuid.UUID
		clientID       uuid.UUID
		sourceType     *settlement.RefundSourceType
		sourceID       *uuid.UUID
		amount         valueobject.Money
		charges        valueobject.Money
		reason         string
		expectedNet    string
		expectedErr    bool
		expectedErrMsg string
	}{
		{
			name:        "net amount is amount minus charges",
			dealID:      dealID,
			clientID:    clientID,
			amount:      valueobject.NewMoneyINRFromFloat(20000),
			charges:     valueobject.NewMoneyINRFromFloat(2000),
			reason:      "booking cancelled",
			expectedNet: "18000.00",
		},
		{
			name:        "linked to a source payment",
			dealID:      dealID,
			clientID:    clientID,
			sourceType:  &paymentSource,
			sourceID:    &sourceID,
			amount:      valueobject.NewMoneyINRFromFloat(5000),
			charges:     valueobject.ZeroINR(),
			reason:      "duplicate payment",
			expectedNet: "5000.00",
		},
		{
			name:           "charges exceeding amount",
			dealID:         dealID,
			clientID:       clientID,
			amount:         valueobject.NewMoneyINRFromFloat(1000),
			charges:        valueobject.NewMoneyINRFromFloat(1500),
			reason:         "booking cancelled",
			expectedErr:    true,
			expectedErrMsg: "exceed the refund amount",
		},
		{
			name:           "non-positive amount",
			dealID:         dealID,
			clientID:       clientID,
			amount:         valueobject.ZeroINR(),
			charges:        valueobject.ZeroINR(),
			reason:         "booking cancelled",
			expectedErr:    true,
			expectedErrMsg: "Refund amount must be positive",
		},
		{
			name:           "source type without source ID",
			dealID:         dealID,
			clientID:       clientID,
			sourceType:     &paymentSource,
			amount:         valueobject.NewMoneyINRFromFloat(1000),
			charges:        valueobject.ZeroINR(),
			reason:         "booking cancelled",
			expectedErr:    true,
			expectedErrMsg: "Source ID is required",
		},
		{
			name:           "missing reason",
			dealID:         dealID,
			clientID:       clientID,
			amount:         valueobject.NewMoneyINRFromFloat(1000),
			charges:        valueobject.ZeroINR(),
			reason:         "",
			expectedErr:    true,
			expectedErrMsg: "Refund reason is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := settlement.NewRefund(tt.dealID, tt.clientID, tt.sourceType, tt.sourceID, tt.amount, tt.charges, tt.reason)
			if tt.expectedErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErrMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedNet, r.NetRefundAmount.StringFixed(2))
			assert.Equal(t, settlement.RefundStatusPending, r.Status)
			assert.Contains(t, r.RefundNumber, "REF-")
		})
	}
}

func TestRefundTransitions(t *testing.T) {
	approver := uuid.New()

	t.Run("pending approved processed", func(t *testing.T) {
		r := newTestRefund(t, 20000, 2000)

		require.NoError(t, r.Approve(approver))
		assert.Equal(t, settlement.RefundStatusApproved, r.Status)
		require.NotNil(t, r.ApprovedAt)
		require.NotNil(t, r.ApprovedBy)

		require.NoError(t, r.Process())
		assert.Equal(t, settlement.RefundStatusProcessed, r.Status)
		require.NotNil(t, r.ProcessedAt)
	})

	t.Run("process before approve fails", func(t *testing.T) {
		r := newTestRefund(t, 20000, 2000)
		err := r.Process()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Cannot process refund in PENDING status")
		assert.Equal(t, settlement.RefundStatusPending, r.Status)
		assert.Nil(t, r.ProcessedAt)
	})

	t.Run("reject is terminal", func(t *testing.T) {
		r := newTestRefund(t, 20000, 0)
		require.NoError(t, r.Reject("charges disputed"))
		assert.Equal(t, settlement.RefundStatusRejected, r.Status)
		require.NotNil(t, r.RejectedAt)

		require.Error(t, r.Approve(approver))
		require.Error(t, r.Process())
	})

	t.Run("approve from approved fails", func(t *testing.T) {
		r := newTestRefund(t, 20000, 0)
		require.NoError(t, r.Approve(approver))
		err := r.Approve(approver)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Cannot approve refund")
	})

	t.Run("reject after approval fails", func(t *testing.T) {
		r := newTestRefund(t, 20000, 0)
		require.NoError(t, r.Approve(approver))
		err := r.Reject("too late")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Cannot reject refund")
	})
}

func TestRefundNetAmountNeverNegative(t *testing.T) {
	r := newTestRefund(t, 100, 100)
	assert.True(t, r.NetRefundAmount.Equal(decimal.Zero))
	assert.False(t, r.NetRefundAmount.IsNegative())
}
