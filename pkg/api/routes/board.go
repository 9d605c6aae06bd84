package routes

import "github.com/travigo/departureboard/pkg/board"

// Board is the part of the frame loop the API talks to. Both methods are safe from any goroutine.
type Board interface {
	Latest() *board.Published
	Send(command board.Command) bool
}
