package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/tienda-next/internal/config"
	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"
)

// EmailService 邮件发送服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendRegisterEmail 发送注册欢迎邮件
func (s *EmailService) SendRegisterEmail(toEmail, name string) error {
	subject := "¡Bienvenido a la tienda!"
	body := fmt.Sprintf("Hola %s:\n\nTu cuenta fue creada con éxito. Ya podés empezar a comprar.\n\nGracias por registrarte.", displayName(name))
	return s.sendTextEmail(toEmail, subject, body)
}

// SendResetPasswordEmail 发送重置密码邮件（带跳转链接）
func (s *EmailService) SendResetPasswordEmail(toEmail, redirectURL string) error {
	subject := "Recuperá tu contraseña"
	body := fmt.Sprintf("Recibimos un pedido para restablecer tu contraseña.\n\nIngresá al siguiente enlace para continuar:\n%s\n\nSi no fuiste vos, ignorá este mensaje.", redirectURL)
	return s.sendTextEmail(toEmail, subject, body)
}

// SendCartReminderEmail 发送购物车超时提醒邮件
func (s *EmailService) SendCartReminderEmail(toEmail, name string) error {
	subject := "Tenés productos esperando en tu carrito"
	body := fmt.Sprintf("Hola %s:\n\nDejaste productos en tu carrito. Completá la compra antes de que se agoten.\n\nTe esperamos en la tienda.", displayName(name))
	return s.sendTextEmail(toEmail, subject, body)
}

// PaymentStatusEmailInput 支付状态邮件输入
type PaymentStatusEmailInput struct {
	Status   string
	Name     string
	OrderNo  string
	Total    models.Money
	Currency string
	Items    []models.OrderItem
}

// SendPaymentStatusEmail 发送支付状态通知邮件
func (s *EmailService) SendPaymentStatusEmail(toEmail string, input PaymentStatusEmailInput) error {
	var subject, headline string
	switch strings.ToLower(strings.TrimSpace(input.Status)) {
	case constants.MpPaymentStatusApproved:
		subject = fmt.Sprintf("%s, ¡tu pago fue aprobado!", displayName(input.Name))
		headline = "Tu pago fue acreditado y ya estamos preparando tu pedido."
	case constants.MpPaymentStatusCancelled, constants.MpPaymentStatusRejected:
		subject = fmt.Sprintf("%s, tu pago fue rechazado", displayName(input.Name))
		headline = "El pago no pudo procesarse. Podés intentar nuevamente desde tu carrito."
	default:
		subject = fmt.Sprintf("%s, tu pago está pendiente", displayName(input.Name))
		headline = "Estamos esperando la confirmación del medio de pago."
	}

	var buf bytes.Buffer
	buf.WriteString(headline)
	buf.WriteString("\n\n")
	if input.OrderNo != "" {
		buf.WriteString(fmt.Sprintf("Pedido: %s\n", input.OrderNo))
	}
	for _, item := range input.Items {
		line := fmt.Sprintf("- %s x%d: %s %s", item.ProductName, item.Quantity, input.Currency, item.FinalPrice.MulInt(item.Quantity).String())
		if item.Discount.IsPositive() {
			line += fmt.Sprintf(" (descuento %s por unidad)", item.Discount.String())
		}
		buf.WriteString(line + "\n")
	}
	if !input.Total.IsZero() {
		buf.WriteString(fmt.Sprintf("\nTotal: %s %s\n", input.Currency, input.Total.String()))
	}
	return s.sendTextEmail(toEmail, subject, buf.String())
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "cliente"
	}
	return name
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	msg := buildEmailMessage(from, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" || s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.UseSSL {
		return normalizeEmailSendError(sendMailWithSSL(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
	}
	if s.cfg.UseTLS {
		return normalizeEmailSendError(sendMailWithStartTLS(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
	}
	return normalizeEmailSendError(sendMailPlain(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func sendMailWithSSL(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailWithStartTLS(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func normalizeEmailSendError(err error) error {
	if err == nil {
		return nil
	}
	if isEmailRecipientRejected(err) {
		return ErrEmailRecipientRejected
	}
	return err
}

func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	if message == "" {
		return false
	}
	directKeywords := []string{
		"no such recipient",
		"no such user",
		"recipient not found",
		"recipient address rejected",
		"invalid recipient",
		"user unknown",
		"unknown user",
		"unknown mailbox",
		"mailbox unavailable",
	}
	for _, keyword := range directKeywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	if strings.Contains(message, "550") {
		hints := []string{"recipient", "user", "mailbox", "address", "rcpt"}
		for _, hint := range hints {
			if strings.Contains(message, hint) {
				return true
			}
		}
	}
	return false
}
