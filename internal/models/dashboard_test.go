package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetVoucherTotal(t *testing.T) {
	vouchers := []Voucher{
		{Amount: 100, VType: "cash_in"},
		{Amount: 40, VType: VoucherTypeCashOut},
	}
	assert.Equal(t, 60.0, NetVoucherTotal(vouchers))
}

func TestNetVoucherTotalUnknownTypesAdd(t *testing.T) {
	vouchers := []Voucher{
		{Amount: 10, VType: "fee"},
		{Amount: 5, VType: ""},
		{Amount: 20, VType: VoucherTypeCashOut},
	}
	assert.Equal(t, -5.0, NetVoucherTotal(vouchers))
	assert.Equal(t, 0.0, NetVoucherTotal(nil))
}
