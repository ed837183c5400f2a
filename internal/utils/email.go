package utils

import (
	"github.com/pkg/errors"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"vendora_back_end/internal/config"
	"vendora_back_end/internal/models"
)

// SendEmail est le point d'envoi unique; les tests le remplacent.
var SendEmail = sendSMTP

func sendSMTP(to, subject, htmlBody string) error {
	cfg := config.App
	if cfg.SMTPHost == "" {
		return errors.New("SMTP non configuré")
	}

	msg := mail.NewMsg()
	if err := msg.From(cfg.EmailFrom); err != nil {
		return errors.Wrap(err, "adresse expéditeur")
	}
	if err := msg.To(to); err != nil {
		return errors.Wrap(err, "adresse destinataire")
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(cfg.SMTPUsername),
		mail.WithPassword(cfg.SMTPPassword),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return errors.Wrap(err, "client SMTP")
	}

	zap.S().Infof("📤 Envoi de l'e-mail à %s", to)
	return client.DialAndSend(msg)
}

// SendOTPEmail envoie le code de vérification d'inscription.
func SendOTPEmail(to, name, otp string) error {
	return SendEmail(to, "Verify your email - Vendora", otpEmailHTML(name, otp))
}

// SendPasswordResetEmail envoie le lien de réinitialisation.
func SendPasswordResetEmail(to, name, resetURL string) error {
	return SendEmail(to, "Reset your password - Vendora", passwordResetEmailHTML(name, resetURL))
}

// SendOrderConfirmationEmail récapitule une commande créée.
func SendOrderConfirmationEmail(order *models.Order, to string) error {
	subject := "Order confirmation " + order.OrderNumber + " - Vendora"
	if err := SendEmail(to, subject, orderConfirmationHTML(order)); err != nil {
		zap.L().Error("❌ Erreur envoi email commande", zap.String("order", order.OrderNumber), zap.Error(err))
		return err
	}
	zap.S().Infof("📧 Email de confirmation envoyé: %s → %s", order.OrderNumber, to)
	return nil
}
