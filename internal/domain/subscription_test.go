package domain

import (
	"testing"
	"time"
)

func TestPaymentMethod_Validate(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	valid := PaymentMethod{Type: "card", CardNumber: "4242 4242 4242 4242", ExpMonth: 12, ExpYear: 2030, CVC: "123"}

	tests := []struct {
		name    string
		mutate  func(p *PaymentMethod)
		wantErr bool
	}{
		{name: "valid", mutate: func(p *PaymentMethod) {}},
		{name: "letters in number", mutate: func(p *PaymentMethod) { p.CardNumber = "4242abcd42424242" }, wantErr: true},
		{name: "too short", mutate: func(p *PaymentMethod) { p.CardNumber = "4242" }, wantErr: true},
		{name: "bad month", mutate: func(p *PaymentMethod) { p.ExpMonth = 13 }, wantErr: true},
		{name: "expired last month", mutate: func(p *PaymentMethod) { p.ExpYear = 2026; p.ExpMonth = 5 }, wantErr: true},
		{name: "expires this month", mutate: func(p *PaymentMethod) { p.ExpYear = 2026; p.ExpMonth = 6 }},
		{name: "bad cvc", mutate: func(p *PaymentMethod) { p.CVC = "1" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm := valid
			tt.mutate(&pm)
			err := pm.Validate(now)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPaymentMethod_Last4(t *testing.T) {
	pm := PaymentMethod{CardNumber: "4000-0000-0000-0002"}
	if pm.Last4() != "0002" {
		t.Errorf("Last4() = %q", pm.Last4())
	}
}

func TestBillingCycle_PeriodEnd(t *testing.T) {
	start := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	if got := BillingYearly.PeriodEnd(start); !got.Equal(time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("yearly end = %v", got)
	}
	if got := BillingMonthly.PeriodEnd(start); got.Month() != time.March {
		t.Errorf("monthly end from Jan 31 normalizes into March, got %v", got)
	}
	if BillingCycle("weekly").Valid() {
		t.Error("weekly must not be valid")
	}
}
