package transport

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/nomadgto/dist-syst/internal/wire"
)

func TestSendAndServeRoundTrip(t *testing.T) {
	log := logrus.NewEntry(logrus.New())
	srv, err := Listen("127.0.0.1:0", log)
	require.NoError(t, err)
	defer srv.Close()

	received := make(chan string, 1)
	go srv.Serve(func(remoteAddr string, payload []byte) []byte {
		received <- string(payload)
		return []byte("authorized_permission")
	})

	reply, err := Send(srv.Addr().String(), []byte("acquire_permission"), true)
	require.NoError(t, err)
	require.Equal(t, "authorized_permission", string(reply))

	select {
	case got := <-received:
		require.Equal(t, "acquire_permission", got)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received payload")
	}
}

func TestSendToUnreachableAddrIsTransportError(t *testing.T) {
	_, err := Send("127.0.0.1:1", []byte("acquire_permission"), false)
	require.Error(t, err)

	var te *wire.TransportError
	require.ErrorAs(t, err, &te)
}

func TestBroadcastCollectsAllResults(t *testing.T) {
	log := logrus.NewEntry(logrus.New())
	srv, err := Listen("127.0.0.1:0", log)
	require.NoError(t, err)
	defer srv.Close()
	go srv.Serve(func(remoteAddr string, payload []byte) []byte { return nil })

	results := Broadcast([]string{srv.Addr().String(), srv.Addr().String()}, []byte("consensus_over"), time.Second)
	require.Len(t, results, 2)
	for _, r := range results {
		require.NoError(t, r.Err)
	}
}
