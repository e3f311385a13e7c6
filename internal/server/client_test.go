package server

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parlorchat/parlor/internal/database"
	"github.com/parlorchat/parlor/internal/testutil"
	"github.com/parlorchat/parlor/internal/types"
)

func Test_queueMessage(t *testing.T) {
	cs := newTestServer(t, &database.MockParlorRepository{})
	c := NewClient(types.User{Id: 1}, nil, cs, testutil.TestLogger(t))

	msg := NoErrOK(1, nil)
	assert.True(t, c.queueMessage(msg))
	assert.Equal(t, msg, <-c.send)
}

func Test_queueMessage_ChannelFull(t *testing.T) {
	cs := newTestServer(t, &database.MockParlorRepository{})
	c := NewClient(types.User{Id: 1}, nil, cs, testutil.TestLogger(t))

	for i := 0; i < cap(c.send); i++ {
		assert.True(t, c.queueMessage(NoErrOK(i, nil)))
	}

	// a slow consumer loses messages instead of blocking the hub
	assert.False(t, c.queueMessage(NoErrOK(-1, nil)))
}

func Test_stopClient(t *testing.T) {
	cs := newTestServer(t, &database.MockParlorRepository{})
	c := NewClient(types.User{Id: 1}, nil, cs, testutil.TestLogger(t))

	c.stopClient()
	select {
	case <-c.stop:
	default:
		t.Fatal("expected stop channel to be closed")
	}

	// repeated stops must not panic
	c.stopClient()
}
