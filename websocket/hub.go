package websocket

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/soundrise/phonics_coach/models"
)

// Client is an admin dashboard connection subscribed to the live checkout
// event feed.
type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
}

var clients = make(map[uuid.UUID]*websocket.Conn)
var clientsMu sync.RWMutex

var Register = make(chan *Client)
var Unregister = make(chan *Client)
var broadcast = make(chan *models.CheckoutEvent, 64)

// BroadcastEvent pushes a checkout event to connected admin dashboards.
// Best-effort: if the hub is saturated the event is dropped, never blocking
// the checkout flow that produced it.
func BroadcastEvent(event *models.CheckoutEvent) {
	select {
	case broadcast <- event:
	default:
		log.Printf("Event feed saturated, dropping event for %s", event.ReferenceID)
	}
}

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Admin feed client registered: %s", client.UserID)
			clientsMu.Lock()
			clients[client.UserID] = client.Conn
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Admin feed client unregistered: %s", client.UserID)
			clientsMu.Lock()
			if conn, ok := clients[client.UserID]; ok && conn == client.Conn {
				delete(clients, client.UserID)
			}
			clientsMu.Unlock()
		case event := <-broadcast:
			clientsMu.Lock()
			for userID, conn := range clients {
				if err := conn.WriteJSON(event); err != nil {
					log.Printf("Error sending event to admin client %s: %v", userID, err)
					conn.Close()
					delete(clients, userID)
				}
			}
			clientsMu.Unlock()
		}
	}
}
