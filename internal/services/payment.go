package services

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/refund"
	"github.com/stripe/stripe-go/v83/webhook"
	"go.uber.org/zap"

	"vendora_back_end/internal/config"
)

// Événements Stripe traités
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
	IntentSucceeded       = "succeeded"
)

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Metadata     map[string]string
	LastError    string
}

type Refund struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
	Status string  `json:"status"`
}

type WebhookEvent struct {
	Type   string
	Intent *PaymentIntent
}

// PaymentGateway isole le fournisseur de paiement.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*PaymentIntent, error)
	Refund(ctx context.Context, intentID string, amountCents int64, reason string) (*Refund, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

var Payments PaymentGateway = stripeGateway{}

// InitStripe pose la clé secrète globale du SDK.
func InitStripe(cfg *config.Config) {
	if cfg.StripeSecretKey == "" {
		zap.S().Warn("⚠️ STRIPE_SECRET_KEY manquant, paiements indisponibles")
		return
	}
	stripe.Key = cfg.StripeSecretKey
	zap.S().Info("💳 Stripe configuré")
}

type stripeGateway struct{}

func fromStripe(pi *stripe.PaymentIntent) *PaymentIntent {
	out := &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Metadata:     pi.Metadata,
	}
	if pi.LastPaymentError != nil {
		out.LastError = pi.LastPaymentError.Msg
	}
	return out
}

func (stripeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: metadata,
	}
	params.Context = ctx

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, errors.Wrap(err, "création PaymentIntent")
	}
	zap.S().Infof("💳 PaymentIntent créé : %s (%d cents)", intent.ID, amountCents)
	return fromStripe(intent), nil
}

func (stripeGateway) GetIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	intent, err := paymentintent.Get(id, params)
	if err != nil {
		return nil, errors.Wrap(err, "lecture PaymentIntent")
	}
	return fromStripe(intent), nil
}

func (stripeGateway) Refund(ctx context.Context, intentID string, amountCents int64, reason string) (*Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
		Amount:        stripe.Int64(amountCents),
		Reason:        stripe.String(reason),
	}
	params.Context = ctx

	r, err := refund.New(params)
	if err != nil {
		return nil, errors.Wrap(err, "remboursement Stripe")
	}
	return &Refund{ID: r.ID, Amount: float64(r.Amount) / 100, Status: string(r.Status)}, nil
}

func (stripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	secret := config.App.StripeWebhookSecret
	var event stripe.Event

	if secret == "" {
		if config.App.IsProduction() {
			return nil, errors.New("STRIPE_WEBHOOK_SECRET manquant")
		}
		zap.S().Warn("⚠️ Pas de STRIPE_WEBHOOK_SECRET, signature non vérifiée")
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, errors.Wrap(err, "JSON invalide")
		}
	} else {
		var err error
		event, err = webhook.ConstructEvent(payload, signature, secret)
		if err != nil {
			return nil, errors.Wrap(err, "signature Stripe invalide")
		}
	}

	out := &WebhookEvent{Type: string(event.Type)}
	if event.Type == EventPaymentSucceeded || event.Type == EventPaymentFailed {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, errors.Wrap(err, "décodage PaymentIntent")
		}
		out.Intent = fromStripe(&pi)
	}
	return out, nil
}
