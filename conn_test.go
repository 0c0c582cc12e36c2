package govisa

import (
	"net"
	"testing"
)

func TestConn_ReadUntil(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	conn := NewConn(c1)

	go func() {
		c2.Write([]byte("CH1\nleftover"))
	}()

	// Stops at the terminator, terminator included
	data, err := conn.ReadUntil('\n', 64)
	if err != nil {
		t.Fatalf("ReadUntil failed: %v", err)
	}
	if string(data) != "CH1\n" {
		t.Errorf("data = %q, want %q", data, "CH1\n")
	}
}

func TestConn_ReadUntilMax(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	conn := NewConn(c1)

	go func() {
		c2.Write([]byte("0123456789\n"))
	}()

	// Stops after max bytes even without a terminator
	data, err := conn.ReadUntil('\n', 4)
	if err != nil {
		t.Fatalf("ReadUntil failed: %v", err)
	}
	if string(data) != "0123" {
		t.Errorf("data = %q, want %q", data, "0123")
	}
}

func TestConn_Write(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	conn := NewConn(c1)

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := c2.Read(buf)
		done <- buf[:n]
	}()

	// Write must flush immediately
	if _, err := conn.Write([]byte("INST:SEL CH1\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if got := <-done; string(got) != "INST:SEL CH1\n" {
		t.Errorf("received = %q, want %q", got, "INST:SEL CH1\n")
	}
}
