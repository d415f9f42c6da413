// Package gateway serves chat conversations over WebSocket.
//
// Each connection to /ws is one session: the server opens it with the
// OnChatStart hook, feeds every {"type":"message"} frame to OnMessage in
// arrival order and drops the session when the socket closes. Replies are
// streamed back as message.send and message.update frames.
package gateway
