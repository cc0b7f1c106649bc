package closuresignaler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClosureSignaler(t *testing.T) {
	s := New()
	require.False(t, s.IsClosed())
	select {
	case <-s.CloseChan():
		t.Fatal("the channel is closed before Close")
	default:
	}

	require.True(t, s.Close())
	require.False(t, s.Close())
	require.True(t, s.IsClosed())
	<-s.CloseChan()
}
