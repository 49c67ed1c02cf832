package handlers

import (
	"errors"
	"fmt"
	"log"

	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	config "github.com/prismlearn/mentor_platform/configs"
	"github.com/prismlearn/mentor_platform/services"
	"github.com/prismlearn/mentor_platform/websocket"
)

type RealtimeHandler struct {
	hub      *websocket.Hub
	bookings *services.BookingService
}

func NewRealtimeHandler(hub *websocket.Hub, bookings *services.BookingService) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, bookings: bookings}
}

// ClientMessage is the verb envelope clients send over the socket.
type ClientMessage struct {
	Type      string `json:"type"`
	Token     string `json:"token,omitempty"`
	PostID    string `json:"post_id,omitempty"`
	BookingID string `json:"booking_id,omitempty"`
	StudentID string `json:"student_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Recipient string `json:"recipient_id,omitempty"`
	IsTyping  bool   `json:"is_typing,omitempty"`
}

// ServeWs runs one connection's lifecycle: first message must be an auth
// frame carrying a valid JWT, after which the connection joins the registry
// and the verb loop starts. Unregister on any exit path.
func (h *RealtimeHandler) ServeWs(c *websocketcontrib.Conn) {
	var authMsg ClientMessage
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
		log.Printf("WebSocket auth failed: invalid or missing auth message, error: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		c.Close()
		return
	}

	claims, err := parseToken(authMsg.Token)
	if err != nil {
		log.Printf("WebSocket auth failed: invalid token, error: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		c.Close()
		return
	}

	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		log.Printf("WebSocket auth failed: invalid user_id, error: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid user ID"})
		c.Close()
		return
	}

	client := h.hub.Register(c)
	h.hub.Authenticate(client, userID)
	defer func() {
		h.hub.Unregister(client)
		c.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.ReadJSON(&msg); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseAbnormalClosure) {
				log.Printf("WebSocket closed for user %s: %v", userID, err)
			} else {
				log.Printf("WebSocket read error for user %s: %v", userID, err)
			}
			break
		}

		switch msg.Type {
		case "joinPost":
			if msg.PostID != "" {
				h.hub.Subscribe(client, "post:"+msg.PostID)
			}
		case "leavePost":
			if msg.PostID != "" {
				h.hub.Unsubscribe(client, "post:"+msg.PostID)
			}
		case "bookingResponse":
			// Mentor-side relays a live status hint to the student; the
			// durable path stays with the scheduler's dispatcher.
			bookingID, err := uuid.Parse(msg.BookingID)
			if err != nil {
				_ = c.WriteJSON(fiber.Map{"error": "Invalid booking ID"})
				continue
			}
			studentID, err := uuid.Parse(msg.StudentID)
			if err != nil {
				_ = c.WriteJSON(fiber.Map{"error": "Invalid student ID"})
				continue
			}
			if err := h.bookings.VerifyMentor(bookingID, userID); err != nil {
				_ = c.WriteJSON(fiber.Map{"error": "Not authorized for this booking"})
				continue
			}
			h.hub.SendToUser(studentID, fiber.Map{
				"type": "bookingUpdate",
				"payload": fiber.Map{
					"booking_id": msg.BookingID,
					"status":     msg.Status,
				},
			})
		case "typing":
			recipientID, err := uuid.Parse(msg.Recipient)
			if err != nil {
				_ = c.WriteJSON(fiber.Map{"error": "Invalid recipient ID"})
				continue
			}
			h.hub.SendToUser(recipientID, fiber.Map{
				"type": "userTyping",
				"payload": fiber.Map{
					"user_id":   userID.String(),
					"is_typing": msg.IsTyping,
				},
			})
		default:
			_ = c.WriteJSON(fiber.Map{"error": "Unknown message type"})
		}
	}
}

func parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.Config("JWT_SECRET")), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
