package socket

import (
	"log"
	"sync"

	"collabmatch_server/models"
	"collabmatch_server/services"

	socketio "github.com/googollee/go-socket.io"
)

// Server relays conversation snapshots to socket.io rooms keyed by
// conversation id. Each room holds a single ConversationService
// subscription, refcounted across the sockets joined to it, so the
// subscription is cancelled when the last socket leaves.
type Server struct {
	IO            *socketio.Server
	conversations *services.ConversationService

	mu        sync.Mutex
	roomSubs  map[string]*roomSubscription
	connRooms map[string][]string
}

type roomSubscription struct {
	sub  *services.Subscription
	refs int
}

// NewSocketServer initializes the socket.io server and its event handlers
func NewSocketServer(conversations *services.ConversationService) *Server {
	srv := &Server{
		IO:            socketio.NewServer(nil),
		conversations: conversations,
		roomSubs:      make(map[string]*roomSubscription),
		connRooms:     make(map[string][]string),
	}

	srv.IO.OnConnect("/", func(c socketio.Conn) error {
		log.Println("✅ Socket connected:", c.ID())
		return nil
	})

	srv.IO.OnEvent("/", "join", func(c socketio.Conn, conversationID string) {
		if conversationID == "" {
			log.Println("❌ Invalid conversationId in join request")
			return
		}
		c.Join(conversationID)
		srv.acquire(c.ID(), conversationID)
		log.Printf("👥 Socket %s joined conversation %s", c.ID(), conversationID)
	})

	srv.IO.OnEvent("/", "leave", func(c socketio.Conn, conversationID string) {
		if conversationID == "" {
			return
		}
		c.Leave(conversationID)
		srv.release(c.ID(), conversationID)
	})

	srv.IO.OnDisconnect("/", func(c socketio.Conn, reason string) {
		srv.releaseAll(c.ID())
		log.Println("❌ Socket disconnected:", c.ID(), reason)
	})

	return srv
}

func (s *Server) acquire(connID, conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.roomSubs[conversationID]
	if !ok {
		sub := s.conversations.Listen(conversationID, func(snapshot []models.Message) {
			s.IO.BroadcastToRoom("/", conversationID, "messages", snapshot)
		})
		room = &roomSubscription{sub: sub}
		s.roomSubs[conversationID] = room
	}
	room.refs++
	s.connRooms[connID] = append(s.connRooms[connID], conversationID)
}

func (s *Server) release(connID, conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(connID, conversationID)
}

func (s *Server) releaseAll(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conversationID := range s.connRooms[connID] {
		s.releaseRoomLocked(conversationID)
	}
	delete(s.connRooms, connID)
}

func (s *Server) releaseLocked(connID, conversationID string) {
	rooms := s.connRooms[connID]
	for i, room := range rooms {
		if room == conversationID {
			s.connRooms[connID] = append(rooms[:i], rooms[i+1:]...)
			s.releaseRoomLocked(conversationID)
			return
		}
	}
}

func (s *Server) releaseRoomLocked(conversationID string) {
	room, ok := s.roomSubs[conversationID]
	if !ok {
		return
	}
	room.refs--
	if room.refs <= 0 {
		room.sub.Cancel()
		delete(s.roomSubs, conversationID)
	}
}
