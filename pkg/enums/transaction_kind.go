package enums

import "fmt"

// TransactionKind describes the allowed values for the `kind` column in transactions.
type TransactionKind string

const (
	TransactionKindMembership         TransactionKind = "membership"
	TransactionKindSale               TransactionKind = "sale"
	TransactionKindPurchase           TransactionKind = "purchase"
	TransactionKindExpense            TransactionKind = "expense"
	TransactionKindDebtPayment        TransactionKind = "debt_payment"
	TransactionKindSupplierPayment    TransactionKind = "supplier_payment"
	TransactionKindAdvance            TransactionKind = "advance"
	TransactionKindSalaryPayment      TransactionKind = "salary_payment"
	TransactionKindPersonalWithdrawal TransactionKind = "personal_withdrawal"
)

var validTransactionKinds = []TransactionKind{
	TransactionKindMembership,
	TransactionKindSale,
	TransactionKindPurchase,
	TransactionKindExpense,
	TransactionKindDebtPayment,
	TransactionKindSupplierPayment,
	TransactionKindAdvance,
	TransactionKindSalaryPayment,
	TransactionKindPersonalWithdrawal,
}

// TransactionKinds returns the canonical kind list in declaration order.
func TransactionKinds() []TransactionKind {
	out := make([]TransactionKind, len(validTransactionKinds))
	copy(out, validTransactionKinds)
	return out
}

// IsValid reports whether the value matches the canonical transaction kind enum.
func (k TransactionKind) IsValid() bool {
	for _, candidate := range validTransactionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseTransactionKind converts the raw string to TransactionKind.
func ParseTransactionKind(value string) (TransactionKind, error) {
	for _, candidate := range validTransactionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction kind %q", value)
}

// CashSign returns the contribution of one unit of amount to the cash balance:
// +1 for money received, -1 for money paid out. The mapping is total over the
// enum; an unknown kind panics so a new kind cannot silently skew the balance.
func (k TransactionKind) CashSign() int64 {
	switch k {
	case TransactionKindSale, TransactionKindMembership, TransactionKindDebtPayment:
		return 1
	case TransactionKindPurchase,
		TransactionKindExpense,
		TransactionKindSalaryPayment,
		TransactionKindAdvance,
		TransactionKindSupplierPayment,
		TransactionKindPersonalWithdrawal:
		return -1
	}
	panic(fmt.Sprintf("transaction kind %q has no cash sign", k))
}

// IsPayroll reports whether the kind represents a payroll outflow.
func (k TransactionKind) IsPayroll() bool {
	return k == TransactionKindAdvance || k == TransactionKindSalaryPayment
}
