package govisa

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// Resource 表示一个已打开的仪器资源句柄。
// 由打开它的 Device 独占持有；关闭后不可复用。
type Resource struct {
	name     string
	mode     AccessMode
	conn     *Conn
	timeout  time.Duration
	termChar byte
	closed   bool
}

// Name 返回规范化的资源名称。
func (r *Resource) Name() string {
	return r.name
}

// AccessMode 返回打开时指定的锁模式（之后不可变更）。
func (r *Resource) AccessMode() AccessMode {
	return r.mode
}

// Write 向资源写入原始字节。
func (r *Resource) Write(p []byte) Status {
	if r.closed || r.conn == nil {
		return StatusErrorClosedResource
	}
	if r.timeout > 0 {
		if err := r.conn.SetWriteDeadline(time.Now().Add(r.timeout)); err != nil {
			return StatusErrorIO
		}
	}
	if _, err := r.conn.Write(p); err != nil {
		return mapIOError(err)
	}
	return StatusSuccess
}

// Read 读取数据直到终止字符（含）或读满 max 字节。
// 返回已收到的字节，不做任何裁剪。
func (r *Resource) Read(term byte, max int) ([]byte, Status) {
	if r.closed || r.conn == nil {
		return nil, StatusErrorClosedResource
	}
	if r.timeout > 0 {
		if err := r.conn.SetReadDeadline(time.Now().Add(r.timeout)); err != nil {
			return nil, StatusErrorIO
		}
	}
	data, err := r.conn.ReadUntil(term, max)
	if err != nil {
		return data, mapIOError(err)
	}
	return data, StatusSuccess
}

// Attribute 返回标量属性的当前值。
func (r *Resource) Attribute(attr Attr) (uint64, Status) {
	switch attr {
	case AttrTermChar:
		if r.termChar == 0 {
			// 终止字符未协商成功
			return 0, StatusErrorAttrUnknown
		}
		return uint64(r.termChar), StatusSuccess
	case AttrTimeout:
		return uint64(r.timeout / time.Millisecond), StatusSuccess
	default:
		return 0, StatusErrorAttrUnknown
	}
}

// StringAttribute 返回字符串属性的当前值。
func (r *Resource) StringAttribute(attr Attr) (string, Status) {
	switch attr {
	case AttrRsrcName:
		return r.name, StatusSuccess
	case AttrIntfInstName:
		if r.conn == nil {
			return "", StatusErrorClosedResource
		}
		return r.conn.RemoteAddr().String(), StatusSuccess
	case AttrManfName, AttrModelName:
		// 套接字资源不携带厂商信息
		return "", StatusErrorAttrUnknown
	default:
		return "", StatusErrorAttrUnknown
	}
}

// SetAttribute 设置标量属性。
func (r *Resource) SetAttribute(attr Attr, value uint64) Status {
	switch attr {
	case AttrTermChar:
		if value == 0 || value > 0xFF {
			return StatusErrorAttrUnknown
		}
		r.termChar = byte(value)
		return StatusSuccess
	case AttrTimeout:
		r.timeout = time.Duration(value) * time.Millisecond
		return StatusSuccess
	case AttrRsrcName, AttrManfName, AttrModelName, AttrIntfInstName:
		return StatusErrorAttrReadOnly
	default:
		return StatusErrorAttrUnknown
	}
}

// Close 释放资源句柄：关闭连接并释放持有的锁。
func (r *Resource) Close() Status {
	if r.closed {
		return StatusSuccess
	}
	r.closed = true
	locks.Release(r.name, r.mode)

	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			return StatusErrorIO
		}
	}
	return StatusSuccess
}

// StatusDesc 返回带资源上下文的状态描述。
func (r *Resource) StatusDesc(status Status) string {
	return fmt.Sprintf("%s: %s", r.name, status.Describe())
}

// mapIOError 将底层 I/O 错误映射为状态码。
func mapIOError(err error) Status {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return StatusErrorTimeout
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return StatusErrorConnLost
	}
	return StatusErrorIO
}
