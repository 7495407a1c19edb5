package mobilemoney

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "0700000000", want: "254700000000"},
		{input: "0712 345-678", want: "254712345678"},
		{input: "+254712345678", want: "254712345678"},
		{input: "254712345678", want: "254712345678"},
		{input: "712345678", want: "254712345678"},
		{input: "0110000000", want: "254110000000"},
		{input: "0200000000", wantErr: true},
		{input: "07000", wantErr: true},
		{input: "07000000000", wantErr: true},
		{input: "07a0000000", wantErr: true},
		{input: "25471234567+", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizePhoneNumber(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPhoneNumber)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChargeRequest_Validate(t *testing.T) {
	req := &ChargeRequest{
		PhoneNumber:      "254712345678",
		Amount:           500,
		AccountReference: " CHAMA-CONTRIBUTION ",
		Description:      "Monthly contribution for October",
	}
	assert.NoError(t, req.Validate())
	assert.Equal(t, "CHAMA-CONTRI", req.AccountReference)
	assert.Equal(t, "Monthly contr", req.Description)

	assert.ErrorIs(t, (&ChargeRequest{PhoneNumber: "254712345678", Amount: 0, AccountReference: "x"}).Validate(), ErrInvalidAmount)
	assert.ErrorIs(t, (&ChargeRequest{PhoneNumber: "123", Amount: 10, AccountReference: "x"}).Validate(), ErrInvalidPhoneNumber)
	assert.ErrorIs(t, (&ChargeRequest{PhoneNumber: "254712345678", Amount: 10}).Validate(), ErrInvalidAccountRef)

	noDesc := &ChargeRequest{PhoneNumber: "254712345678", Amount: 10, AccountReference: "x"}
	assert.NoError(t, noDesc.Validate())
	assert.Equal(t, "Payment", noDesc.Description)
}
