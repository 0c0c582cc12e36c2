package govisa

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

// rsrcInfo 保存从资源名称解析出的寻址信息。
// 支持的格式: TCPIP[board]::host[::port]::SOCKET
type rsrcInfo struct {
	name  string // 规范化后的资源名称
	board int    // 接口序号（通常为 0）
	host  string
	port  int
}

// addr 返回可用于拨号的 host:port 地址。
func (r *rsrcInfo) addr() string {
	return net.JoinHostPort(r.host, strconv.Itoa(r.port))
}

// ParseResource 解析 VISA 风格的资源名称。
// 仅支持原始套接字资源 (SOCKET 类)；端口缺省为 DefaultPort。
func ParseResource(name string) (*rsrcInfo, Status) {
	parts := strings.Split(name, "::")
	if len(parts) < 2 {
		return nil, StatusErrorInvalidRsrcName
	}

	// 接口说明符: TCPIP 后跟可选的序号
	intf := strings.ToUpper(parts[0])
	if !strings.HasPrefix(intf, "TCPIP") {
		return nil, StatusErrorInvalidRsrcName
	}

	board := 0
	if suffix := intf[len("TCPIP"):]; suffix != "" {
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 0 {
			return nil, StatusErrorInvalidRsrcName
		}
		board = n
	}

	// 资源类缺省为 SOCKET；显式给出时必须匹配
	class := "SOCKET"
	rest := parts[1:]
	last := strings.ToUpper(rest[len(rest)-1])
	if last == "SOCKET" || last == "INSTR" {
		class = last
		rest = rest[:len(rest)-1]
	}
	if class != "SOCKET" {
		// INSTR 类需要 VXI-11/HiSLIP 通道，这里不支持
		return nil, StatusErrorInvalidRsrcName
	}

	if len(rest) < 1 || rest[0] == "" {
		return nil, StatusErrorInvalidRsrcName
	}

	info := &rsrcInfo{
		board: board,
		host:  rest[0],
		port:  DefaultPort,
	}

	if len(rest) > 2 {
		return nil, StatusErrorInvalidRsrcName
	}
	if len(rest) == 2 {
		p, err := strconv.Atoi(rest[1])
		if err != nil || p <= 0 || p > 0xFFFF {
			return nil, StatusErrorInvalidRsrcName
		}
		info.port = p
	}

	info.name = FormatResource(info.board, info.host, info.port)
	return info, StatusSuccess
}

// FormatResource 将寻址信息渲染为规范的资源名称。
// 超出 FindBufLen 的部分被截断。
func FormatResource(board int, host string, port int) string {
	name := fmt.Sprintf("TCPIP%d::%s::%d::SOCKET", board, host, port)
	if len(name) > FindBufLen {
		name = name[:FindBufLen]
	}
	return name
}

// compileFindExpr 将 VISA 风格的过滤表达式编译为正则。
// '?' 匹配任意单个字符，'*' 匹配任意字符序列，匹配不区分大小写。
func compileFindExpr(expr string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?i)^")
	for _, r := range expr {
		switch r {
		case '?':
			b.WriteString(".")
		case '*':
			b.WriteString(".*")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// matchResource 报告资源名称是否匹配过滤表达式。
func matchResource(expr, name string) (bool, error) {
	re, err := compileFindExpr(expr)
	if err != nil {
		return false, err
	}
	return re.MatchString(name), nil
}
