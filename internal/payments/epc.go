package payments

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"

	pkgerrors "github.com/abiball/abiball-backend/pkg/errors"
)

// EPCPayload renders the EPC-069-12 (version 002) payload for a SEPA credit
// transfer. The output is consumed verbatim by banking apps, so the line
// layout is part of the wire contract: eleven newline-joined fields, empty
// fields included.
func EPCPayload(holder, iban, bic string, amount decimal.Decimal, reference string) string {
	fields := []string{
		"BCD",
		"002",
		"1",
		"SCT",
		bic,
		holder,
		strings.Join(strings.Fields(iban), ""),
		fmt.Sprintf("EUR%s", amount.StringFixed(2)),
		"",
		reference,
		"",
	}
	return strings.Join(fields, "\n")
}

// QRPNG encodes a payload as a 300px PNG QR code.
func QRPNG(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, 300)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode qr code")
	}
	return png, nil
}
