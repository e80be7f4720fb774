package main

import (
	"bytes"
	"io"
	"net"
	"strings"
	"testing"
)

// Clients receive whole lines only: the possibly partial first line is
// discarded, and a trailing fragment without a newline never goes out.
func TestForwardWholeLines(t *testing.T) {
	s := newServer()
	serverSide, clientSide := net.Pipe()
	s.clients[serverSide] = true

	var got bytes.Buffer
	done := make(chan struct{})
	go func() {
		io.Copy(&got, clientSide)
		close(done)
	}()

	in := strings.NewReader("artial line\nline1\nline2\nunfinished")
	if err := s.forward(in); err != nil {
		t.Fatal(err)
	}
	serverSide.Close()
	<-done

	want := "line1\nline2\n"
	if got.String() != want {
		t.Errorf("client stream mismatch; expected %q, got %q", want, got.String())
	}
}

func TestDropClosesOnce(t *testing.T) {
	s := newServer()
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()
	s.clients[serverSide] = true

	s.drop(serverSide)
	if len(s.clients) != 0 {
		t.Fatal("client not removed")
	}
	// A second drop of the same connection is a no-op.
	s.drop(serverSide)
}

func TestBroadcastDropsDeadClients(t *testing.T) {
	s := newServer()
	serverSide, clientSide := net.Pipe()
	s.clients[serverSide] = true
	clientSide.Close()
	serverSide.Close()

	s.broadcast([]byte("line\n"))
	if len(s.clients) != 0 {
		t.Fatal("dead client not dropped")
	}
}
