package contribution

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/shared"
)

// MethodKind is the kind of a group's collection destination
type MethodKind string

const (
	MethodKindPhone   MethodKind = "phone"
	MethodKindTill    MethodKind = "till"
	MethodKindPaybill MethodKind = "paybill"
)

// IsValid returns true if the kind is known
func (k MethodKind) IsValid() bool {
	switch k {
	case MethodKindPhone, MethodKindTill, MethodKindPaybill:
		return true
	default:
		return false
	}
}

// DeclaredMethod is how a member says they paid. It is either one of the
// generic tags or MethodPaymentMethod, in which case the claim carries the id
// of a group PaymentMethod.
type DeclaredMethod string

const (
	MethodMobileMoney   DeclaredMethod = "mobile_money"
	MethodCash          DeclaredMethod = "cash"
	MethodBankTransfer  DeclaredMethod = "bank_transfer"
	MethodCard          DeclaredMethod = "card"
	MethodPaymentMethod DeclaredMethod = "payment_method"
)

// IsGeneric returns true for the recognized generic method tags
func (m DeclaredMethod) IsGeneric() bool {
	switch m {
	case MethodMobileMoney, MethodCash, MethodBankTransfer, MethodCard:
		return true
	default:
		return false
	}
}

// String returns the string representation of DeclaredMethod
func (m DeclaredMethod) String() string {
	return string(m)
}

// PaymentMethod is a named destination for funds belonging to one group.
// It is soft-deactivated, never deleted.
type PaymentMethod struct {
	shared.BaseEntity
	GroupID     uuid.UUID
	Kind        MethodKind
	DisplayName string
	Number      string
	Active      bool
}

// NewPaymentMethod creates an active payment method
func NewPaymentMethod(groupID uuid.UUID, kind MethodKind, displayName, number string) (*PaymentMethod, error) {
	if !kind.IsValid() {
		return nil, ErrInvalidMethodKind
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrInvalidMethodName
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, ErrInvalidMethodDestination
	}
	return &PaymentMethod{
		BaseEntity:  shared.NewBaseEntity(),
		GroupID:     groupID,
		Kind:        kind,
		DisplayName: displayName,
		Number:      number,
		Active:      true,
	}, nil
}

// Deactivate hides the method from new submissions. Claims that already
// reference it stay resolvable.
func (p *PaymentMethod) Deactivate(at time.Time) {
	p.Active = false
	p.Touch(at)
}

// AcceptsSubmissionsFor reports whether a new claim in groupID may use p
func (p *PaymentMethod) AcceptsSubmissionsFor(groupID uuid.UUID) bool {
	return p != nil && p.Active && p.GroupID == groupID
}
