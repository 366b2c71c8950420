package ledger

import (
	"fmt"

	"github.com/samerhaddad/clubledger-backend/pkg/enums"
	pkgerrors "github.com/samerhaddad/clubledger-backend/pkg/errors"
)

// SettleInvoice applies the invoice arithmetic shared by memberships, sales,
// and purchases: net = gross − discount, cash mode forces paid to net, and
// debt is the unpaid remainder. Credit paid above net is rejected so debt can
// never go negative.
func SettleInvoice(grossCents, discountCents int64, mode enums.PaymentMode, paidCents int64) (paid, debt int64, err error) {
	if grossCents < 0 {
		return 0, 0, pkgerrors.New(pkgerrors.CodeValidation, "amount must be non-negative")
	}
	if discountCents < 0 {
		return 0, 0, pkgerrors.New(pkgerrors.CodeValidation, "discount must be non-negative")
	}
	net := grossCents - discountCents
	if net < 0 {
		return 0, 0, pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds the invoice amount")
	}
	switch mode {
	case enums.PaymentModeCash:
		paid = net
	case enums.PaymentModeCredit:
		if paidCents < 0 {
			return 0, 0, pkgerrors.New(pkgerrors.CodeValidation, "paid must be non-negative")
		}
		if paidCents > net {
			return 0, 0, pkgerrors.New(pkgerrors.CodeValidation, "paid exceeds the net amount")
		}
		paid = paidCents
	default:
		return 0, 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment mode %q", mode))
	}
	return paid, net - paid, nil
}
