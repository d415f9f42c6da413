// Package assistant wires the weather agent into chat conversations.
//
// OnChatStart prepares a session: it requires the model API key, binds the
// agent to its provider and greets the user. OnMessage runs one turn: it
// shows a placeholder, runs the agent over the session history, replaces the
// placeholder with the answer and stores the updated history.
package assistant
