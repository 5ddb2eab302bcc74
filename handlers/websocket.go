package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"attendance/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// SendSocketFunc returns true if data was successfully sent
type SendSocketFunc func([]byte) bool

type ConnectedClient struct {
	fun SendSocketFunc
}

var (
	connectedClients = cmap.New[*ConnectedClient]()
	upgrader         = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
)

// AttendanceFeed keeps a socket open and pushes each newly recorded
// attendance event to the connected dashboard
func (a *API) AttendanceFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Print("upgrade:", err)
		return
	}
	defer conn.Close()

	// Setup client
	isConnected := true
	id := uuid.NewString()
	client := ConnectedClient{}
	client.fun = func(data []byte) bool {
		if !isConnected {
			return false
		}
		err := conn.WriteMessage(websocket.TextMessage, data)
		if err != nil {
			log.Println("write err:", err)
			isConnected = false
			return false
		}
		return true
	}
	connectedClients.Set(id, &client)
	defer connectedClients.Remove(id)
	// Main read cycle
	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			isConnected = false
			break
		}
		if string(message) == "ping" {
			conn.WriteMessage(mt, []byte("pong"))
		}
	}
}

type attendanceEvent struct {
	Type   string                  `json:"type"`
	Record models.AttendanceRecord `json:"record"`
}

// BroadcastAttendance notifies all connected feed clients of a new record.
// Slow or dead clients just miss the event.
func BroadcastAttendance(rec *models.AttendanceRecord) {
	if rec == nil || connectedClients.Count() == 0 {
		return
	}
	data, err := json.Marshal(attendanceEvent{Type: "attendance", Record: *rec})
	if err != nil {
		return
	}
	for _, client := range connectedClients.Items() {
		client.fun(data)
	}
}
