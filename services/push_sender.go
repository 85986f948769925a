package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firebase.google.com/go/v4/messaging"

	"github.com/busticket/busticket_backend/models"
)

// AndroidChannelID is the notification channel registered by the mobile app.
const AndroidChannelID = "busticket_fcm_channel"

// MessagingClient is satisfied by *messaging.Client.
type MessagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type PushSender struct {
	client MessagingClient
}

func NewPushSender(client MessagingClient) *PushSender {
	return &PushSender{client: client}
}

func (s *PushSender) Channel() models.Channel { return models.ChannelPush }

func (s *PushSender) Send(ctx context.Context, user *models.User, n *models.Notification) error {
	if user.FCMToken == "" {
		return errors.New("recipient has no FCM token")
	}
	if _, err := s.client.Send(ctx, pushMessage(user.FCMToken, n)); err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	return nil
}

func pushMessage(token string, n *models.Notification) *messaging.Message {
	androidPriority := "normal"
	if n.Priority == models.PriorityHigh {
		androidPriority = "high"
	}
	badge := 1
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Message,
		},
		Data: pushData(n),
		Android: &messaging.AndroidConfig{
			Priority: androidPriority,
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: AndroidChannelID,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: n.Title,
						Body:  n.Message,
					},
					Sound:    "default",
					Badge:    &badge,
					Category: string(n.Type),
				},
			},
		},
	}
}

// pushData flattens the notification data to FCM's string map. Non-string
// values are formatted with %v.
func pushData(n *models.Notification) map[string]string {
	result := map[string]string{
		"notificationId": n.ID.Hex(),
		"type":           string(n.Type),
		"priority":       string(n.Priority),
		"timestamp":      n.CreatedAt.Format(time.RFC3339),
	}
	for key, value := range n.Data {
		if str, ok := value.(string); ok {
			result[key] = str
		} else {
			result[key] = fmt.Sprint(value)
		}
	}
	return result
}
