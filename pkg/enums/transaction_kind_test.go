package enums

import "testing"

func TestCashSignTotal(t *testing.T) {
	inflows := map[TransactionKind]bool{
		TransactionKindSale:        true,
		TransactionKindMembership:  true,
		TransactionKindDebtPayment: true,
	}
	for _, kind := range validTransactionKinds {
		want := int64(-1)
		if inflows[kind] {
			want = 1
		}
		if got := kind.CashSign(); got != want {
			t.Fatalf("CashSign(%s) = %d, want %d", kind, got, want)
		}
	}
}

func TestCashSignUnknownKindPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown kind")
		}
	}()
	_ = TransactionKind("refund").CashSign()
}

func TestParseTransactionKind(t *testing.T) {
	kind, err := ParseTransactionKind("supplier_payment")
	if err != nil {
		t.Fatalf("ParseTransactionKind: %v", err)
	}
	if kind != TransactionKindSupplierPayment {
		t.Fatalf("unexpected kind %q", kind)
	}
	if _, err := ParseTransactionKind("SALE"); err == nil {
		t.Fatal("expected error for non-canonical casing")
	}
}
