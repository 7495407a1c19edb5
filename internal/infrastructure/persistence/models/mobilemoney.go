package models

import (
	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/mobilemoney"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// MobileMoneyTransactionModel is the persistence model for an STK push transaction
type MobileMoneyTransactionModel struct {
	AggregateModel
	UserID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type              string          `gorm:"type:varchar(20);not null"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PhoneNumber       string          `gorm:"type:varchar(15);not null"`
	AccountReference  string          `gorm:"type:varchar(20)"`
	Description       string          `gorm:"type:varchar(20)"`
	MerchantRequestID string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	CheckoutRequestID string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	ReceiptNumber     string          `gorm:"type:varchar(30)"`
	ResultCode        *int
	ResultDesc        string         `gorm:"type:text"`
	Status            string         `gorm:"type:varchar(20);not null;index"`
	RawCallback       datatypes.JSON `gorm:"column:raw_callback"`
	FundingGroupID    *uuid.UUID     `gorm:"type:uuid"`
	FundingMemberID   *uuid.UUID     `gorm:"type:uuid"`
	FundedClaimID     *uuid.UUID     `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (MobileMoneyTransactionModel) TableName() string {
	return "mobile_money_transactions"
}

// ToDomain converts the model to a domain Transaction
func (m *MobileMoneyTransactionModel) ToDomain() *mobilemoney.Transaction {
	tx := &mobilemoney.Transaction{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		UserID:            m.UserID,
		Type:              mobilemoney.TransactionType(m.Type),
		Amount:            m.Amount,
		PhoneNumber:       m.PhoneNumber,
		AccountReference:  m.AccountReference,
		Description:       m.Description,
		MerchantRequestID: m.MerchantRequestID,
		CheckoutRequestID: m.CheckoutRequestID,
		ReceiptNumber:     m.ReceiptNumber,
		ResultCode:        m.ResultCode,
		ResultDesc:        m.ResultDesc,
		Status:            mobilemoney.TransactionStatus(m.Status),
		FundedClaimID:     m.FundedClaimID,
	}
	if len(m.RawCallback) > 0 {
		tx.RawCallback = []byte(m.RawCallback)
	}
	if m.FundingGroupID != nil && m.FundingMemberID != nil {
		tx.Funding = &mobilemoney.FundingTarget{GroupID: *m.FundingGroupID, MemberID: *m.FundingMemberID}
	}
	return tx
}

// MobileMoneyTransactionModelFromDomain creates a model from a domain Transaction
func MobileMoneyTransactionModelFromDomain(tx *mobilemoney.Transaction) *MobileMoneyTransactionModel {
	m := &MobileMoneyTransactionModel{
		UserID:            tx.UserID,
		Type:              string(tx.Type),
		Amount:            tx.Amount,
		PhoneNumber:       tx.PhoneNumber,
		AccountReference:  tx.AccountReference,
		Description:       tx.Description,
		MerchantRequestID: tx.MerchantRequestID,
		CheckoutRequestID: tx.CheckoutRequestID,
		ReceiptNumber:     tx.ReceiptNumber,
		ResultCode:        tx.ResultCode,
		ResultDesc:        tx.ResultDesc,
		Status:            string(tx.Status),
		FundedClaimID:     tx.FundedClaimID,
	}
	if len(tx.RawCallback) > 0 {
		m.RawCallback = datatypes.JSON(tx.RawCallback)
	}
	if tx.Funding != nil {
		groupID, memberID := tx.Funding.GroupID, tx.Funding.MemberID
		m.FundingGroupID = &groupID
		m.FundingMemberID = &memberID
	}
	m.FromDomainAggregateRoot(tx.BaseAggregateRoot)
	return m
}
