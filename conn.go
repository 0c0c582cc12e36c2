package govisa

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"
)

// Conn 封装 TCP 连接，提供带缓冲的 I/O 和同步机制。
// SCPI 原始套接字是面向行的文本流，没有额外的消息帧。
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	mu     sync.Mutex // 保护写操作
}

// NewConn 创建一个新的 Conn，封装给定的 net.Conn。
func NewConn(c net.Conn) *Conn {
	return &Conn{
		raw:    c,
		reader: bufio.NewReader(c),
		writer: bufio.NewWriter(c),
	}
}

// Write 向连接写入数据并立即刷新。
func (c *Conn) Write(p []byte) (n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err = c.writer.Write(p)
	if err != nil {
		return n, err
	}
	return n, c.writer.Flush()
}

// ReadUntil 读取数据直到遇到终止字符（含）、读满 max 字节或出错。
// 返回已收到的字节，不做任何裁剪。
func (c *Conn) ReadUntil(term byte, max int) ([]byte, error) {
	buf := make([]byte, 0, max)
	for len(buf) < max {
		b, err := c.reader.ReadByte()
		if err != nil {
			return buf, err
		}
		buf = append(buf, b)
		if b == term {
			break
		}
	}
	return buf, nil
}

// Close 关闭底层连接。
func (c *Conn) Close() error {
	return c.raw.Close()
}

// SetDeadline 设置读写超时时间。
func (c *Conn) SetDeadline(t time.Time) error {
	return c.raw.SetDeadline(t)
}

// SetReadDeadline 设置读取超时时间。
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.raw.SetReadDeadline(t)
}

// SetWriteDeadline 设置写入超时时间。
func (c *Conn) SetWriteDeadline(t time.Time) error {
	return c.raw.SetWriteDeadline(t)
}

// LocalAddr 返回本地网络地址。
func (c *Conn) LocalAddr() net.Addr {
	return c.raw.LocalAddr()
}

// RemoteAddr 返回远程网络地址。
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

// DialConn 连接到指定地址的仪器，超时由 timeout 控制。
func DialConn(address string, timeout time.Duration) (*Conn, error) {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return DialContext(ctx, address)
}

// DialContext 使用 context 连接到仪器。
func DialContext(ctx context.Context, address string) (*Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	return NewConn(conn), nil
}
