package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrConfigInvalid   = errors.New("mercadopago config invalid")
	ErrRequestFailed   = errors.New("mercadopago request failed")
	ErrResponseInvalid = errors.New("mercadopago response invalid")
	ErrPaymentNotFound = errors.New("mercadopago payment not found")
)

const (
	defaultBaseURL = "https://api.mercadopago.com"
	defaultTimeout = 12 * time.Second
)

// Config MercadoPago 渠道配置。
type Config struct {
	AccessToken     string `json:"access_token"`
	BaseURL         string `json:"base_url"`
	NotificationURL string `json:"notification_url"`
	Currency        string `json:"currency"`
	TimeoutMS       int    `json:"timeout_ms"`
}

// PreferenceItem 支付偏好条目。
type PreferenceItem struct {
	Title     string
	Quantity  int
	UnitPrice string
}

// CreateInput 创建支付偏好输入。
type CreateInput struct {
	OrderNo   string
	OrderID   uint
	UserID    uint
	CartID    uint
	Total     string
	Items     []PreferenceItem
	PayerName string
	PayerMail string
}

// CreateResult 创建支付偏好返回。
type CreateResult struct {
	PreferenceID      string
	InitPoint         string
	SandboxInitPoint  string
	ExternalReference string
	Raw               map[string]interface{}
}

// PaymentDetail 支付单详情。
type PaymentDetail struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
	TransactionAmount string
	CurrencyID        string
	OrderID           uint
	Metadata          map[string]interface{}
	Raw               map[string]interface{}
}

// ValidateConfig 校验配置。
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return fmt.Errorf("%w: access_token is required", ErrConfigInvalid)
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base != "" {
		if _, err := url.ParseRequestURI(base); err != nil {
			return fmt.Errorf("%w: base_url is invalid", ErrConfigInvalid)
		}
	}
	return nil
}

// CreatePreference 创建支付偏好，返回跳转链接。
// external_reference 写入订单号，metadata 携带 order_id/user_id/cart_id 供回调对账。
func CreatePreference(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.OrderNo) == "" || input.OrderID == 0 {
		return nil, fmt.Errorf("%w: preference input is invalid", ErrConfigInvalid)
	}

	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "ARS"
	}

	items := make([]map[string]interface{}, 0, len(input.Items))
	for _, item := range input.Items {
		price, err := strconv.ParseFloat(strings.TrimSpace(item.UnitPrice), 64)
		if err != nil || item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: preference item is invalid", ErrConfigInvalid)
		}
		items = append(items, map[string]interface{}{
			"title":       strings.TrimSpace(item.Title),
			"quantity":    item.Quantity,
			"unit_price":  price,
			"currency_id": currency,
		})
	}
	if len(items) == 0 {
		total, err := strconv.ParseFloat(strings.TrimSpace(input.Total), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: preference total is invalid", ErrConfigInvalid)
		}
		items = append(items, map[string]interface{}{
			"title":       "Pedido " + input.OrderNo,
			"quantity":    1,
			"unit_price":  total,
			"currency_id": currency,
		})
	}

	payload := map[string]interface{}{
		"items":              items,
		"external_reference": strings.TrimSpace(input.OrderNo),
		"metadata": map[string]interface{}{
			"order_id": input.OrderID,
			"user_id":  input.UserID,
			"cart_id":  input.CartID,
		},
	}
	if notifyURL := strings.TrimSpace(cfg.NotificationURL); notifyURL != "" {
		payload["notification_url"] = notifyURL
	}
	if mail := strings.TrimSpace(input.PayerMail); mail != "" {
		payer := map[string]interface{}{"email": mail}
		if name := strings.TrimSpace(input.PayerName); name != "" {
			payer["name"] = name
		}
		payload["payer"] = payer
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request failed", ErrRequestFailed)
	}

	respBody, statusCode, err := doJSONRequest(ctx, cfg, http.MethodPost, "/checkout/preferences", body)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: create preference status %d", ErrResponseInvalid, statusCode)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}

	result := &CreateResult{Raw: raw}
	result.PreferenceID = strings.TrimSpace(readString(raw, "id"))
	result.InitPoint = strings.TrimSpace(readString(raw, "init_point"))
	result.SandboxInitPoint = strings.TrimSpace(readString(raw, "sandbox_init_point"))
	result.ExternalReference = strings.TrimSpace(readString(raw, "external_reference"))
	if result.PreferenceID == "" || (result.InitPoint == "" && result.SandboxInitPoint == "") {
		return nil, fmt.Errorf("%w: missing preference id or init point", ErrResponseInvalid)
	}
	return result, nil
}

// GetPayment 按支付单 ID 拉取网关完整详情。
func GetPayment(ctx context.Context, cfg *Config, paymentID string) (*PaymentDetail, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment id is empty", ErrConfigInvalid)
	}

	respBody, statusCode, err := doJSONRequest(ctx, cfg, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil)
	if err != nil {
		return nil, err
	}
	if statusCode == http.StatusNotFound {
		return nil, ErrPaymentNotFound
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: get payment status %d", ErrResponseInvalid, statusCode)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}

	detail := &PaymentDetail{Raw: raw}
	detail.ID = strings.TrimSpace(readString(raw, "id"))
	detail.Status = strings.ToLower(strings.TrimSpace(readString(raw, "status")))
	detail.StatusDetail = strings.TrimSpace(readString(raw, "status_detail"))
	detail.ExternalReference = strings.TrimSpace(readString(raw, "external_reference"))
	detail.TransactionAmount = strings.TrimSpace(readString(raw, "transaction_amount"))
	detail.CurrencyID = strings.TrimSpace(readString(raw, "currency_id"))
	if metadata, ok := raw["metadata"].(map[string]interface{}); ok {
		detail.Metadata = metadata
		detail.OrderID = readUint(metadata, "order_id")
	}
	if detail.ID == "" || detail.Status == "" {
		return nil, fmt.Errorf("%w: missing payment id or status", ErrResponseInvalid)
	}
	return detail, nil
}

func doJSONRequest(ctx context.Context, cfg *Config, method, endpoint string, body []byte) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := withTimeout(ctx, cfg)
	defer cancel()

	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(cfg.AccessToken))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: http request failed", ErrRequestFailed)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrRequestFailed)
	}
	return respBody, resp.StatusCode, nil
}

func withTimeout(ctx context.Context, cfg *Config) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	timeout := defaultTimeout
	if cfg != nil && cfg.TimeoutMS >= 500 && cfg.TimeoutMS <= 60000 {
		timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	return context.WithTimeout(ctx, timeout)
}

func readString(raw map[string]interface{}, path ...string) string {
	if raw == nil {
		return ""
	}
	var current interface{} = raw
	for _, seg := range path {
		next, ok := current.(map[string]interface{})
		if !ok {
			return ""
		}
		current = next[seg]
	}
	if current == nil {
		return ""
	}
	switch val := current.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", current)
	}
}

func readUint(raw map[string]interface{}, key string) uint {
	if raw == nil {
		return 0
	}
	switch val := raw[key].(type) {
	case float64:
		if val > 0 {
			return uint(val)
		}
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(val), 10, 64)
		if err == nil {
			return uint(parsed)
		}
	case json.Number:
		parsed, err := strconv.ParseUint(val.String(), 10, 64)
		if err == nil {
			return uint(parsed)
		}
	}
	return 0
}
