package utils

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// EmailConfig holds email configuration
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func emailConfigFromEnv() EmailConfig {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil || port == 0 {
		port = 587
	}
	return EmailConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
}

// EmailEnabled reports whether an outbound mail channel is configured.
func EmailEnabled() bool {
	return os.Getenv("SMTP_HOST") != ""
}

// SendEmail sends an HTML email using the configured SMTP server
func SendEmail(to, subject, body string) error {
	config := emailConfigFromEnv()

	m := gomail.NewMessage()
	m.SetHeader("From", config.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}

	return nil
}

// PaymentReceivedBody renders the settlement notification email body.
func PaymentReceivedBody(amount, receipt string) string {
	return fmt.Sprintf(`
		<h2>Payment Received</h2>
		<p>A payment of KES %s has been settled to your SokoPay wallet.</p>
		<p>M-Pesa receipt: <strong>%s</strong></p>
	`, amount, receipt)
}

// DailyDigestBody renders the daily sales digest email body.
func DailyDigestBody(total string, date string) string {
	return fmt.Sprintf(`
		<h2>Daily Sales Summary</h2>
		<p>Your settled sales for %s total <strong>KES %s</strong>.</p>
	`, date, total)
}
