package services

import (
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var (
	// FirebaseApp is the Firebase app instance
	FirebaseApp *firebase.App
	// MessagingClient is the Firebase Cloud Messaging client
	MessagingClient *messaging.Client
)

// InitFirebase initializes Firebase Admin SDK
func InitFirebase() error {
	ctx := context.Background()

	serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
	if serviceAccountPath == "" {
		log.Println("Warning: FIREBASE_SERVICE_ACCOUNT_PATH not set. Push notifications will be disabled.")
		return nil
	}

	opt := option.WithCredentialsFile(serviceAccountPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return fmt.Errorf("error initializing firebase app: %v", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("error getting messaging client: %v", err)
	}

	FirebaseApp = app
	MessagingClient = client

	log.Println("Firebase Cloud Messaging initialized successfully")
	return nil
}

// NotificationPayload represents the notification data
type NotificationPayload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

func sendToToken(ctx context.Context, token string, payload NotificationPayload) error {
	if MessagingClient == nil {
		return nil // push disabled
	}

	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: payload.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "shutterhub_default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
					Badge: intPtr(1),
				},
			},
		},
	}

	_, err := MessagingClient.Send(ctx, message)
	return err
}

func intPtr(n int) *int {
	return &n
}

// SendNewRequestNotification pushes an open instant request to a nearby
// photographer.
func SendNewRequestNotification(ctx context.Context, token string, requestID uint, sessionType string, distanceMeters float64) {
	payload := NotificationPayload{
		Title: "New instant photo request nearby",
		Body:  fmt.Sprintf("A %s session about %.0fm away is looking for a photographer", sessionType, distanceMeters),
		Data: map[string]string{
			"type":      "instant_request",
			"requestId": fmt.Sprintf("%d", requestID),
		},
	}
	if err := sendToToken(ctx, token, payload); err != nil {
		log.Printf("Failed to send new-request push for request %d: %v", requestID, err)
	}
}

// SendMatchFoundNotification tells the photographer the guest approved them.
func SendMatchFoundNotification(ctx context.Context, token string, requestID uint, guestName string) {
	payload := NotificationPayload{
		Title: "You're booked!",
		Body:  fmt.Sprintf("%s approved you for their instant photo session", guestName),
		Data: map[string]string{
			"type":      "match_found",
			"requestId": fmt.Sprintf("%d", requestID),
		},
	}
	if err := sendToToken(ctx, token, payload); err != nil {
		log.Printf("Failed to send match-found push for request %d: %v", requestID, err)
	}
}

// SendPhotosDeliveredNotification tells the guest their photos are ready.
func SendPhotosDeliveredNotification(ctx context.Context, token string, requestID uint) {
	payload := NotificationPayload{
		Title: "Your photos are ready",
		Body:  "Your photographer has delivered the photos from your session",
		Data: map[string]string{
			"type":      "photos_delivered",
			"requestId": fmt.Sprintf("%d", requestID),
		},
	}
	if err := sendToToken(ctx, token, payload); err != nil {
		log.Printf("Failed to send delivery push for request %d: %v", requestID, err)
	}
}

// SubscribeToTopic subscribes device tokens to a broadcast topic
func SubscribeToTopic(ctx context.Context, tokens []string, topic string) error {
	if MessagingClient == nil {
		return nil
	}

	_, err := MessagingClient.SubscribeToTopic(ctx, tokens, topic)
	return err
}

// UnsubscribeFromTopic removes device tokens from a broadcast topic
func UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) error {
	if MessagingClient == nil {
		return nil
	}

	_, err := MessagingClient.UnsubscribeFromTopic(ctx, tokens, topic)
	return err
}
