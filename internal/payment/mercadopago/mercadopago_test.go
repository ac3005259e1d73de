package mercadopago

import (
	"errors"
	"testing"
)

func TestValidateConfig(t *testing.T) {
	cfg := &Config{
		AccessToken: "APP_USR-token",
		BaseURL:     "https://api.mercadopago.com",
		Currency:    "ARS",
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("ValidateConfig should pass, got: %v", err)
	}
	if err := ValidateConfig(&Config{}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid for empty config, got: %v", err)
	}
	if err := ValidateConfig(nil); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid for nil config, got: %v", err)
	}
}

func TestCreatePreferenceInputValidation(t *testing.T) {
	cfg := &Config{AccessToken: "token"}
	_, err := CreatePreference(nil, cfg, CreateInput{OrderNo: "", OrderID: 0})
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid for empty order, got: %v", err)
	}
	_, err = CreatePreference(nil, cfg, CreateInput{
		OrderNo: "ORD-1",
		OrderID: 1,
		Items:   []PreferenceItem{{Title: "Zapatilla", Quantity: 0, UnitPrice: "1000"}},
	})
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid for invalid quantity, got: %v", err)
	}
	_, err = CreatePreference(nil, cfg, CreateInput{OrderNo: "ORD-1", OrderID: 1, Total: "no-number"})
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid for invalid total, got: %v", err)
	}
}

func TestReadString(t *testing.T) {
	raw := map[string]interface{}{
		"id": float64(123456789),
		"point_of_interaction": map[string]interface{}{
			"transaction_data": map[string]interface{}{
				"ticket_url": "https://www.mercadopago.com/ticket",
			},
		},
	}
	if got := readString(raw, "id"); got != "123456789" {
		t.Fatalf("unexpected id: %s", got)
	}
	if got := readString(raw, "point_of_interaction", "transaction_data", "ticket_url"); got != "https://www.mercadopago.com/ticket" {
		t.Fatalf("unexpected nested value: %s", got)
	}
	if got := readString(raw, "missing", "path"); got != "" {
		t.Fatalf("expected empty string for missing path, got: %s", got)
	}
}

func TestReadUint(t *testing.T) {
	metadata := map[string]interface{}{
		"order_id": float64(42),
		"user_id":  "7",
		"cart_id":  "not-a-number",
	}
	if got := readUint(metadata, "order_id"); got != 42 {
		t.Fatalf("unexpected order id: %d", got)
	}
	if got := readUint(metadata, "user_id"); got != 7 {
		t.Fatalf("unexpected user id: %d", got)
	}
	if got := readUint(metadata, "cart_id"); got != 0 {
		t.Fatalf("expected zero for invalid value, got: %d", got)
	}
}
