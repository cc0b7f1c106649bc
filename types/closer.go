package types

import (
	"context"
)

type Closer interface {
	Close(context.Context) error
}

type CloseChaner interface {
	CloseChan() <-chan struct{}
}
