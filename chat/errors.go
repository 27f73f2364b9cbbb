package chat

import "errors"

// ErrInvalidUsername is returned when a proposed username fails validation:
// empty, longer than 32 characters, or containing characters outside
// [A-Za-z0-9_].
var ErrInvalidUsername = errors.New("chat: invalid username")

// ErrUsernameTaken is returned when a proposed username collides with the
// server's chatname or an already-connected client.
var ErrUsernameTaken = errors.New("chat: username already in use")

// ErrNotConnected is returned by Client.Send/Recv/Disconnect when no session
// has been established yet.
var ErrNotConnected = errors.New("chat: not connected")

// ErrHandshakeRejected marks a handshake that could not be completed. On the
// server side it wraps a bad or duplicate username or a transport failure
// partway through; Client.Connect wraps its failures from the key exchange
// onward with it.
var ErrHandshakeRejected = errors.New("chat: handshake rejected")
