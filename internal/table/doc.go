// Package table coordinates the live game table: who is connected, which room
// each participant sits in, and which hero they play.
//
// The Coordinator owns the session directory and the room registry behind one
// mutex. Operations run to completion under that lock and collect the notices
// their state change produced; the notices are handed to a Notifier after the
// state lock is released, in the order they were produced.
//
// Connection lifecycle:
//
//	unauthenticated -> Login -> authenticated
//	authenticated   -> CreateRoom/JoinRoom -> in room
//	in room         -> LeaveRoom -> authenticated
//	any             -> Disconnect -> gone
package table
