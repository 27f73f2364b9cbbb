package chat

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/rbkdev/securechat/aes"
	"github.com/rbkdev/securechat/framing"
	"github.com/rbkdev/securechat/rsa"
	"github.com/rbkdev/securechat/session"
)

// remoteClient is one connected peer as seen from the server side.
type remoteClient struct {
	username string
	conn     *framing.Conn
	session  *session.Session
	state    ConnState
}

// Server accepts connections, runs the handshake for each, and relays
// messages between connected clients.
type Server struct {
	chatname string
	priv     *rsa.PrivateKey
	pub      *rsa.PublicKey

	aesKeyBits    int
	rsaKeyBits    int
	rsaIterations int

	log *slog.Logger

	ln net.Listener

	mu      sync.RWMutex
	clients map[string]*remoteClient

	closeOnce sync.Once
	done      chan struct{}
}

// NewServer generates the server's RSA identity and returns a Server ready
// to Listen. chatname is the name the server broadcasts under; it must pass
// ValidateUsername.
func NewServer(chatname string, aesKeyBits, rsaKeyBits, rsaIterations int, log *slog.Logger) (*Server, error) {
	if err := ValidateUsername(chatname); err != nil {
		return nil, err
	}

	priv, pub, err := rsa.GenerateKeyPair(rsaKeyBits, rsaIterations)
	if err != nil {
		return nil, fmt.Errorf("chat: generating server identity: %w", err)
	}

	if log == nil {
		log = slog.Default()
	}

	return &Server{
		chatname:      chatname,
		priv:          priv,
		pub:           pub,
		aesKeyBits:    aesKeyBits,
		rsaKeyBits:    rsaKeyBits,
		rsaIterations: rsaIterations,
		log:           log,
		clients:       make(map[string]*remoteClient),
		done:          make(chan struct{}),
	}, nil
}

// Listen binds the server's TCP listener.
func (s *Server) Listen(address string) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("chat: listen: %w", err)
	}
	s.ln = ln
	return nil
}

// Serve accepts connections until the listener is closed, handling each in
// its own goroutine. It returns nil once Close has been called.
func (s *Server) Serve() error {
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
				s.log.Warn("accept failed", "error", err)
				continue
			}
		}

		go s.handleConn(nc)
	}
}

func (s *Server) handleConn(nc net.Conn) {
	conn := framing.New(nc)

	client, err := s.handshake(conn)
	if err != nil {
		s.log.Info("handshake rejected", "error", err)
		conn.Close()
		return
	}

	s.log.Info("client joined", "username", client.username)
	s.receiveLoop(client)
}

// handshake runs the accept-side protocol: public key exchange, RSA-wrapped
// username delivery and validation, and RSA-wrapped session key delivery.
func (s *Server) handshake(conn *framing.Conn) (*remoteClient, error) {
	if err := conn.Send(s.pub.Serialize()); err != nil {
		return nil, fmt.Errorf("%w: sending public key: %v", ErrHandshakeRejected, err)
	}

	rawPub, err := conn.Recv()
	if err != nil {
		return nil, fmt.Errorf("%w: receiving client public key: %v", ErrHandshakeRejected, err)
	}
	clientPub, err := rsa.DeserializePublicKey(rawPub)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing client public key: %v", ErrHandshakeRejected, err)
	}
	state := StateKeysExchanged

	rawUsername, err := conn.Recv()
	if err != nil {
		return nil, fmt.Errorf("%w: receiving username: %v", ErrHandshakeRejected, err)
	}
	username := string(s.priv.Decrypt(rawUsername))

	if err := ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshakeRejected, err)
	}

	// Optimization: reject an obviously-taken name before doing the RSA
	// encrypt and AES key generation below. The authoritative check, which
	// closes the TOCTOU window against a second client racing in with the
	// same name, happens under the write lock right before insertion.
	s.mu.RLock()
	_, taken := s.clients[username]
	s.mu.RUnlock()
	if username == s.chatname || taken {
		return nil, fmt.Errorf("%w: %w: %q", ErrHandshakeRejected, ErrUsernameTaken, username)
	}
	state = StateAuthenticated

	key, err := aes.GenerateKey(s.aesKeyBits)
	if err != nil {
		return nil, fmt.Errorf("%w: generating session key: %v", ErrHandshakeRejected, err)
	}

	keyCipher, err := clientPub.Encrypt(key.Serialize())
	if err != nil {
		return nil, fmt.Errorf("%w: wrapping session key: %v", ErrHandshakeRejected, err)
	}
	if err := conn.Send(keyCipher); err != nil {
		return nil, fmt.Errorf("%w: sending session key: %v", ErrHandshakeRejected, err)
	}

	sess := session.New(conn, key)
	client := &remoteClient{username: username, conn: conn, session: sess, state: state}

	s.mu.Lock()
	if username == s.chatname || s.clients[username] != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %w: %q", ErrHandshakeRejected, ErrUsernameTaken, username)
	}
	existing := make([]*remoteClient, 0, len(s.clients))
	for _, c := range s.clients {
		existing = append(existing, c)
	}
	client.state = StateSessionOpen
	s.clients[username] = client
	s.mu.Unlock()

	joinMsg := []byte(fmt.Sprintf("%s: %s has joined the chat", s.chatname, username))
	for _, c := range existing {
		if sendErr := c.session.Send(joinMsg); sendErr != nil {
			s.log.Warn("failed to deliver join notice", "to", c.username, "error", sendErr)
		}
	}

	welcome := []byte(fmt.Sprintf("%s: Welcome to the chat %q", s.chatname, s.chatname))
	if err := sess.Send(welcome); err != nil {
		s.log.Warn("failed to deliver welcome message", "to", username, "error", err)
	}

	return client, nil
}

// ClientState reports the handshake state of a connected client.
func (s *Server) ClientState(username string) (ConnState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[username]
	if !ok {
		return StateClosed, false
	}
	return client.state, true
}

// receiveLoop forwards every message client sends to all other connected
// clients, until the session errors (disconnect or integrity failure).
func (s *Server) receiveLoop(client *remoteClient) {
	for {
		message, err := client.session.Recv()
		if err != nil {
			s.log.Info("client disconnected", "username", client.username, "error", err)
			s.removeClient(client.username)
			return
		}

		s.forward(client.username, message)
	}
}

func (s *Server) forward(from string, message []byte) {
	out := append([]byte(from+": "), message...)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for username, c := range s.clients {
		if username == from {
			continue
		}
		if err := c.session.Send(out); err != nil {
			s.log.Warn("failed to forward message", "to", username, "error", err)
		}
	}
}

// Broadcast sends message to every connected client, prefixed with the
// server's chatname, as if typed locally at the server's console.
func (s *Server) Broadcast(message string) {
	out := []byte(fmt.Sprintf("%s: %s", s.chatname, message))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for username, c := range s.clients {
		if err := c.session.Send(out); err != nil {
			s.log.Warn("failed to broadcast", "to", username, "error", err)
		}
	}
}

func (s *Server) removeClient(username string) {
	s.mu.Lock()
	client, ok := s.clients[username]
	delete(s.clients, username)
	s.mu.Unlock()

	if ok {
		client.state = StateClosed
		client.conn.Close()
	}
}

// Close closes the listener and every connected client's connection.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)

		if s.ln != nil {
			err = s.ln.Close()
		}

		s.mu.Lock()
		clients := s.clients
		s.clients = make(map[string]*remoteClient)
		s.mu.Unlock()

		for _, c := range clients {
			c.state = StateClosed
			c.conn.Close()
		}
	})
	return err
}
