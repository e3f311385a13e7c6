package push

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/parlorchat/parlor/internal/database"
)

// ErrSubscriptionGone marks an endpoint the push service reports as
// permanently invalid; the dispatcher prunes its subscription.
var ErrSubscriptionGone = errors.New("push subscription gone")

type Sender interface {
	Send(sub database.PushSubscription, payload []byte) error
}

// WebPushSender delivers payloads to browser push services using
// VAPID-signed Web Push requests.
type WebPushSender struct {
	publicKey  string
	privateKey string
	subscriber string
	timeout    time.Duration
}

func NewWebPushSender(publicKey, privateKey, subscriber string) *WebPushSender {
	return &WebPushSender{
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: subscriber,
		timeout:    10 * time.Second,
	}
}

func (s *WebPushSender) Send(sub database.PushSubscription, payload []byte) error {
	resp, err := webpush.SendNotification(payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             30,
		HTTPClient:      &http.Client{Timeout: s.timeout},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("push endpoint returned status %d", resp.StatusCode)
	}

	return nil
}
