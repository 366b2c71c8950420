package enums

import "fmt"

// CounterpartyRole identifies which entity table a transaction's debt or
// payment applies to.
type CounterpartyRole string

const (
	CounterpartyRoleMember   CounterpartyRole = "member"
	CounterpartyRoleCustomer CounterpartyRole = "customer"
	CounterpartyRoleSupplier CounterpartyRole = "supplier"
	CounterpartyRoleEmployee CounterpartyRole = "employee"
)

var validCounterpartyRoles = []CounterpartyRole{
	CounterpartyRoleMember,
	CounterpartyRoleCustomer,
	CounterpartyRoleSupplier,
	CounterpartyRoleEmployee,
}

// IsValid reports whether the value matches the canonical counterparty role enum.
func (r CounterpartyRole) IsValid() bool {
	for _, candidate := range validCounterpartyRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseCounterpartyRole converts the raw string to CounterpartyRole.
func ParseCounterpartyRole(value string) (CounterpartyRole, error) {
	for _, candidate := range validCounterpartyRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid counterparty role %q", value)
}
