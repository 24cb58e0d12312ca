package tx

import (
	"math"

	"github.com/pkg/errors"
)

var (
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// Validate checks that the required fields of the transaction's variant
// are present. It performs no semantic checks: balances, signatures and
// referenced items are not looked at.
func Validate(t *Tx) error {
	if t == nil {
		return errors.Wrap(ErrInvalidTransaction, "nil tx")
	}

	if !t.Type.known() {
		return errors.Wrapf(ErrInvalidTransaction, "unknown tx type %q", string(t.Type))
	}

	if t.ID == "" {
		return invalid("transaction_id")
	}
	if t.Ts <= 0 || !finite(t.Ts) {
		return invalid("timestamp")
	}
	if t.Signature == "" {
		return invalid("signature")
	}

	switch t.Type {
	case TxType_Transfer:
		d, ok := t.Data.(*Transfer)
		if !ok || d == nil {
			return errors.Wrapf(ErrInvalidTransaction, "expected transfer data, got %T", t.Data)
		}
		return isTransferValid(d)
	case TxType_DataUpload, TxType_ModelUpload:
		d, ok := t.Data.(*Upload)
		if !ok || d == nil {
			return errors.Wrapf(ErrInvalidTransaction, "expected upload data, got %T", t.Data)
		}
		return isUploadValid(d)
	case TxType_DataPurchase, TxType_ModelPurchase:
		d, ok := t.Data.(*Purchase)
		if !ok || d == nil {
			return errors.Wrapf(ErrInvalidTransaction, "expected purchase data, got %T", t.Data)
		}
		return isPurchaseValid(t.Type, d)
	}

	return errors.Wrap(ErrInvalidTransaction, "unknown tx type")
}

func IsValid(t *Tx) bool {
	return Validate(t) == nil
}

func isTransferValid(d *Transfer) error {
	if d.Sender == "" {
		return invalid("sender")
	}
	if d.Recipient == "" {
		return invalid("recipient")
	}
	if !finite(d.Amount) {
		return invalid("amount")
	}
	return nil
}

func isUploadValid(d *Upload) error {
	if d.Owner == "" {
		return invalid("owner")
	}
	if d.Metadata == nil {
		return invalid("metadata")
	}
	if !finite(d.Price) {
		return invalid("price")
	}
	return nil
}

func isPurchaseValid(t TxType, d *Purchase) error {
	if d.Buyer == "" {
		return invalid("buyer")
	}
	if d.Seller == "" {
		return invalid("seller")
	}
	if d.ItemID == "" {
		return invalid(itemKey(t))
	}
	if !finite(d.Amount) {
		return invalid("amount")
	}
	return nil
}

func invalid(field string) error {
	return errors.Wrapf(ErrInvalidTransaction, "missing %s", field)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
