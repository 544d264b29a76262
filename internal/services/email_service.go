package services

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Mailer delivers outbound notification email.
type Mailer interface {
	SendPasswordReset(toEmail, username, resetLink string) error
}

// EmailService sends mail over plain SMTP. Credentials are optional for
// unauthenticated relays.
type EmailService struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewEmailService() *EmailService {
	viper.SetDefault("smtp.host", "localhost")
	viper.SetDefault("smtp.port", "587")
	viper.SetDefault("smtp.from", "no-reply@fintrack.local")

	return &EmailService{
		host:     viper.GetString("smtp.host"),
		port:     viper.GetString("smtp.port"),
		username: viper.GetString("smtp.username"),
		password: viper.GetString("smtp.password"),
		from:     viper.GetString("smtp.from"),
	}
}

// SendPasswordReset emails the reset link to the user.
func (s *EmailService) SendPasswordReset(toEmail, username, resetLink string) error {
	subject := "Password Reset Request"
	body := passwordResetBody(username, resetLink)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", toEmail)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	addr := s.host + ":" + s.port
	if err := smtp.SendMail(addr, auth, s.from, []string{toEmail}, []byte(msg.String())); err != nil {
		log.Printf("[MAIL] Failed to send password reset email to %s: %v", toEmail, err)
		return err
	}

	log.Printf("[MAIL] Password reset email sent to %s", toEmail)
	return nil
}

func passwordResetBody(username, resetLink string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h2>Personal Finance Tracker</h2>
	<p>Hello <strong>%s</strong>,</p>
	<p>We received a request to reset the password for your Personal Finance Tracker account.</p>
	<p><a href="%s" style="display: inline-block; padding: 12px 24px; background-color: #F39C12; color: white; text-decoration: none; border-radius: 5px;">Reset Your Password</a></p>
	<p>For security reasons, this link will expire in 15 minutes. If you didn't request this, please ignore this email.</p>
	<p>Best regards,<br>The Finance Tracker Team</p>
	<p style="font-size: 12px; color: #777;">&copy; %d Personal Finance Tracker. All rights reserved.</p>
</body>
</html>`, username, resetLink, time.Now().Year())
}
