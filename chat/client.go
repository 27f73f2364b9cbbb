package chat

import (
	"fmt"

	"github.com/rbkdev/securechat/aes"
	"github.com/rbkdev/securechat/framing"
	"github.com/rbkdev/securechat/rsa"
	"github.com/rbkdev/securechat/session"
)

// Client is the connect-side half of the protocol: it generates its own RSA
// identity on Connect and negotiates a session key with the server.
type Client struct {
	username string

	rsaKeyBits    int
	rsaIterations int

	conn    *framing.Conn
	session *session.Session
	state   ConnState
}

// State reports where the client is in the handshake/session lifecycle.
func (c *Client) State() ConnState {
	return c.state
}

// NewClient returns a Client that will offer username on Connect.
// ValidateUsername is not enforced here; the server is authoritative and
// will reject a malformed name during the handshake.
func NewClient(username string, rsaKeyBits, rsaIterations int) *Client {
	return &Client{
		username:      username,
		rsaKeyBits:    rsaKeyBits,
		rsaIterations: rsaIterations,
	}
}

// Connect dials address and runs the connect-side handshake: public key
// exchange, RSA-wrapped username delivery, and RSA-unwrapped session key
// receipt.
func (c *Client) Connect(address string) error {
	conn, err := framing.Dial(address)
	if err != nil {
		return fmt.Errorf("chat: dial: %w", err)
	}

	priv, pub, err := rsa.GenerateKeyPair(c.rsaKeyBits, c.rsaIterations)
	if err != nil {
		conn.Close()
		return fmt.Errorf("chat: generating client identity: %w", err)
	}

	rawServerPub, err := conn.Recv()
	if err != nil {
		conn.Close()
		return fmt.Errorf("%w: receiving server public key: %v", ErrHandshakeRejected, err)
	}
	serverPub, err := rsa.DeserializePublicKey(rawServerPub)
	if err != nil {
		conn.Close()
		return fmt.Errorf("%w: parsing server public key: %v", ErrHandshakeRejected, err)
	}

	if err := conn.Send(pub.Serialize()); err != nil {
		conn.Close()
		return fmt.Errorf("%w: sending client public key: %v", ErrHandshakeRejected, err)
	}
	c.state = StateKeysExchanged

	usernameCipher, err := serverPub.Encrypt([]byte(c.username))
	if err != nil {
		conn.Close()
		return fmt.Errorf("%w: wrapping username: %v", ErrHandshakeRejected, err)
	}
	if err := conn.Send(usernameCipher); err != nil {
		conn.Close()
		return fmt.Errorf("%w: sending username: %v", ErrHandshakeRejected, err)
	}

	rawKeyCipher, err := conn.Recv()
	if err != nil {
		conn.Close()
		return fmt.Errorf("%w: receiving session key: %v", ErrHandshakeRejected, err)
	}
	keyData := priv.Decrypt(rawKeyCipher)

	key, err := aes.DeserializeKey(keyData)
	if err != nil {
		conn.Close()
		return fmt.Errorf("%w: parsing session key: %v", ErrHandshakeRejected, err)
	}
	c.state = StateAuthenticated

	c.conn = conn
	c.session = session.New(conn, key)
	c.state = StateSessionOpen
	return nil
}

// Send encrypts and sends message over the established session.
func (c *Client) Send(message string) error {
	if c.session == nil {
		return ErrNotConnected
	}
	return c.session.Send([]byte(message))
}

// Recv blocks for the next message delivered over the established session.
func (c *Client) Recv() (string, error) {
	if c.session == nil {
		return "", ErrNotConnected
	}
	message, err := c.session.Recv()
	if err != nil {
		return "", err
	}
	return string(message), nil
}

// Disconnect closes the underlying connection and clears session state.
func (c *Client) Disconnect() error {
	if c.conn == nil {
		return ErrNotConnected
	}
	err := c.conn.Close()
	c.conn = nil
	c.session = nil
	c.state = StateClosed
	return err
}
