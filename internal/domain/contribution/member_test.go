package contribution

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestHasManagerCapability(t *testing.T) {
	groupID := uuid.New()

	tests := []struct {
		name   string
		member *Member
		want   bool
	}{
		{name: "nil member", member: nil, want: false},
		{name: "treasurer", member: &Member{GroupID: groupID, Role: RoleTreasurer, Active: true}, want: true},
		{name: "admin", member: &Member{GroupID: groupID, Role: RoleAdmin, Active: true}, want: true},
		{name: "plain member", member: &Member{GroupID: groupID, Role: RoleMember, Active: true}, want: false},
		{name: "inactive treasurer", member: &Member{GroupID: groupID, Role: RoleTreasurer, Active: false}, want: false},
		{name: "treasurer of another group", member: &Member{GroupID: uuid.New(), Role: RoleTreasurer, Active: true}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasManagerCapability(tt.member, groupID))
		})
	}
}

func TestNewPaymentMethod(t *testing.T) {
	groupID := uuid.New()

	method, err := NewPaymentMethod(groupID, MethodKindTill, " Chama Till ", "123456")
	assert.NoError(t, err)
	assert.True(t, method.AcceptsSubmissionsFor(groupID))
	assert.False(t, method.AcceptsSubmissionsFor(uuid.New()))
	assert.Equal(t, "Chama Till", method.DisplayName)

	method.Deactivate(method.CreatedAt)
	assert.False(t, method.AcceptsSubmissionsFor(groupID))

	_, err = NewPaymentMethod(groupID, MethodKind("bank"), "x", "1")
	assert.ErrorIs(t, err, ErrInvalidMethodKind)
	_, err = NewPaymentMethod(groupID, MethodKindPhone, "", "1")
	assert.ErrorIs(t, err, ErrInvalidMethodName)
	_, err = NewPaymentMethod(groupID, MethodKindPhone, "x", " ")
	assert.ErrorIs(t, err, ErrInvalidMethodDestination)
}

func TestDeclaredMethod_IsGeneric(t *testing.T) {
	assert.True(t, MethodMobileMoney.IsGeneric())
	assert.True(t, MethodCash.IsGeneric())
	assert.True(t, MethodBankTransfer.IsGeneric())
	assert.True(t, MethodCard.IsGeneric())
	assert.False(t, MethodPaymentMethod.IsGeneric())
	assert.False(t, DeclaredMethod("bitcoin").IsGeneric())
}
