package fixtures

import (
	"github.com/nimasrn/smartcart/internal/model"
)

var (
	MilkPacket = map[string]any{"barcode": "189943756592", "name": "Milk Packet", "price": 25}
	Bread      = map[string]any{"barcode": "218285417523", "name": "Bread", "price": 30}
	FreeSample = map[string]any{"barcode": "000000000001", "name": "Free Sample", "price": 0}

	Asha = model.CustomerSaveRequest{Name: "Asha", Mobile: "9990001111", Email: "asha@example.com"}
	Ravi = model.CustomerSaveRequest{Name: "Ravi", Mobile: "9990002222", Email: "ravi@example.com"}
)

func CashIntent(c model.CustomerSaveRequest) model.CashIntentCreateRequest {
	return model.CashIntentCreateRequest{Name: c.Name, Mobile: c.Mobile}
}

func Verify(mobile, code string) model.CashierCodeVerifyRequest {
	return model.CashierCodeVerifyRequest{Mobile: mobile, CashierCode: code}
}

func Purchase(c model.CustomerSaveRequest, paymentMethod, cashierCode string) model.PurchaseCreateRequest {
	return model.PurchaseCreateRequest{
		Name:          c.Name,
		Mobile:        c.Mobile,
		Email:         c.Email,
		PaymentMethod: paymentMethod,
		CashierCode:   cashierCode,
		Products: []model.PurchaseItem{
			{Barcode: "189943756592", Name: "Milk Packet", Price: 25, Quantity: 2},
			{Barcode: "218285417523", Name: "Bread", Price: 30, Quantity: 1},
		},
	}
}
