package node

import "fmt"

type Error struct {
	Node *Node
	Err  error
}

func (e Error) Error() string {
	return fmt.Sprintf("received an error on %s: %v", e.Node, e.Err)
}

func (e Error) Unwrap() error {
	return e.Err
}

type ErrClosed struct{}

func (ErrClosed) Error() string {
	return "the node is closed"
}

type ErrAlreadyServing struct{}

func (ErrAlreadyServing) Error() string {
	return "already serving"
}
