package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/hazina/backend/internal/domain/mobilemoney"
	"github.com/hazina/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(t *testing.T, checkoutID, merchantID string, funding *mobilemoney.FundingTarget) *mobilemoney.Transaction {
	t.Helper()
	req := &mobilemoney.ChargeRequest{PhoneNumber: "254712345678", Amount: 1200, AccountReference: "HAZINA", Description: "Contribution"}
	require.NoError(t, req.Validate())
	resp := &mobilemoney.ChargeResponse{
		MerchantRequestID: merchantID,
		CheckoutRequestID: checkoutID,
		ResponseCode:      mobilemoney.ResponseCodeAccepted,
	}
	return mobilemoney.NewPendingTransaction(uuid.New(), req, resp, funding)
}

const successCallback = `{"Body":{"stkCallback":{"MerchantRequestID":"m-1","CheckoutRequestID":"ws_CO_1","ResultCode":0,"ResultDesc":"The service request is processed successfully.","CallbackMetadata":{"Item":[{"Name":"Amount","Value":1200},{"Name":"MpesaReceiptNumber","Value":"NLJ7RT61SV"},{"Name":"PhoneNumber","Value":254712345678}]}}}}`

func TestGormMobileMoneyRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormMobileMoneyRepository(db, time.Second)
	ctx := context.Background()

	tx := newTestTransaction(t, "ws_CO_1", "m-1", nil)
	require.NoError(t, repo.Create(ctx, tx))

	found, err := repo.FindByID(ctx, tx.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, mobilemoney.TransactionStatusPending, found.Status)
	assert.Equal(t, "254712345678", found.PhoneNumber)
	assert.True(t, decimal.NewFromInt(1200).Equal(found.Amount))
	assert.Nil(t, found.Funding)
	assert.Nil(t, found.RawCallback)

	t.Run("duplicate correlation id", func(t *testing.T) {
		dup := newTestTransaction(t, "ws_CO_1", "m-2", nil)
		err := repo.Create(ctx, dup)
		assert.ErrorIs(t, err, mobilemoney.ErrDuplicateCorrelationID)
	})

	t.Run("missing transaction", func(t *testing.T) {
		got, err := repo.FindByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestGormMobileMoneyRepository_FindByCorrelation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormMobileMoneyRepository(db, 0)
	ctx := context.Background()

	tx := newTestTransaction(t, "ws_CO_9", "m-9", nil)
	require.NoError(t, repo.Create(ctx, tx))

	tests := []struct {
		name       string
		checkoutID string
		merchantID string
		wantFound  bool
	}{
		{name: "checkout id matches", checkoutID: "ws_CO_9", wantFound: true},
		{name: "falls back to merchant id", checkoutID: "ws_CO_unknown", merchantID: "m-9", wantFound: true},
		{name: "merchant id only", merchantID: "m-9", wantFound: true},
		{name: "no match", checkoutID: "nope", merchantID: "nope"},
		{name: "both empty", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindByCorrelation(ctx, tt.checkoutID, tt.merchantID)
			require.NoError(t, err)
			if tt.wantFound {
				require.NotNil(t, got)
				assert.Equal(t, tx.ID, got.ID)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestGormMobileMoneyRepository_Complete(t *testing.T) {
	t.Run("funded success posts a contribution once", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormMobileMoneyRepository(db, 0)
		ledger := NewGormLedgerStore(db, 0)
		fx := seedGroup(t, db)
		ctx := context.Background()

		tx := newTestTransaction(t, "ws_CO_1", "m-1", &mobilemoney.FundingTarget{GroupID: fx.group.ID, MemberID: fx.member.ID})
		require.NoError(t, repo.Create(ctx, tx))

		result, err := mobilemoney.ParseCallback([]byte(successCallback))
		require.NoError(t, err)

		now := time.Now().UTC()
		require.NoError(t, tx.ApplyCallback(result, []byte(successCallback), now))
		funded, err := tx.FundedContribution(now)
		require.NoError(t, err)
		require.NotNil(t, funded)
		require.NoError(t, repo.Complete(ctx, tx, funded))

		stored, err := repo.FindByID(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, mobilemoney.TransactionStatusSuccess, stored.Status)
		assert.Equal(t, "NLJ7RT61SV", stored.ReceiptNumber)
		require.NotNil(t, stored.ResultCode)
		assert.Equal(t, 0, *stored.ResultCode)
		assert.JSONEq(t, successCallback, string(stored.RawCallback))
		require.NotNil(t, stored.FundedClaimID)
		require.NotNil(t, stored.Funding)
		assert.Equal(t, fx.member.ID, stored.Funding.MemberID)

		records, err := ledger.ListClaimRecords(ctx, fx.group.ID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, *stored.FundedClaimID, records[0].Claim.ID)
		assert.Equal(t, contribution.ApprovalStatusApproved, records[0].Status)
		assert.Equal(t, contribution.MethodMobileMoney, records[0].Claim.Method)
		assert.Equal(t, "NLJ7RT61SV", records[0].Claim.Reference)

		// replaying the callback against the stale in-memory copy changes nothing
		replay := newTestTransaction(t, "ws_CO_1", "m-1", tx.Funding)
		replay.ID = tx.ID
		require.NoError(t, replay.ApplyCallback(result, []byte(successCallback), now))
		replayFunded, err := replay.FundedContribution(now)
		require.NoError(t, err)
		err = repo.Complete(ctx, replay, replayFunded)
		assert.ErrorIs(t, err, mobilemoney.ErrTransactionAlreadyResolved)

		balance, err := ledger.FindGroupBalance(ctx, fx.group.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(1200).Equal(balance.Total))
		assert.Equal(t, int64(1), balance.EntryCount)
	})

	t.Run("failed payment is recorded without posting", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormMobileMoneyRepository(db, 0)
		ctx := context.Background()

		tx := newTestTransaction(t, "ws_CO_2", "m-2", nil)
		require.NoError(t, repo.Create(ctx, tx))

		raw := []byte(`{"Body":{"stkCallback":{"MerchantRequestID":"m-2","CheckoutRequestID":"ws_CO_2","ResultCode":1032,"ResultDesc":"Request cancelled by user"}}}`)
		result, err := mobilemoney.ParseCallback(raw)
		require.NoError(t, err)
		require.NoError(t, tx.ApplyCallback(result, raw, time.Now().UTC()))
		require.NoError(t, repo.Complete(ctx, tx, nil))

		stored, err := repo.FindByID(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, mobilemoney.TransactionStatusFailed, stored.Status)
		require.NotNil(t, stored.ResultCode)
		assert.Equal(t, 1032, *stored.ResultCode)
		assert.Equal(t, "Request cancelled by user", stored.ResultDesc)
		assert.Empty(t, stored.ReceiptNumber)
		assert.Equal(t, 2, stored.Version)
	})
}

func TestGormMobileMoneyRepository_StoreUnavailable(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormMobileMoneyRepository(gormDB, 0)

	mock.ExpectQuery(`SELECT \* FROM "mobile_money_transactions"`).WillReturnError(sql.ErrConnDone)

	_, err := repo.FindByCorrelation(context.Background(), "ws_CO_1", "m-1")
	assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
