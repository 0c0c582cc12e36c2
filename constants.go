// Package govisa 实现 VISA 风格的 SCPI 传输会话，
// 用于通过 TCP/IP 原始套接字控制测试测量仪器。
package govisa

import "time"

// 传输常量
const (
	// SCPI 原始套接字默认端口
	DefaultPort = 5025

	// 默认终止字符（换行）
	DefaultTermChar byte = '\n'

	// 默认操作超时（与 query 的固定等待时长一致）
	DefaultTimeout = 2000 * time.Millisecond

	// read 操作默认缓冲区大小（字节）
	DefaultReadBufSize = 0x400

	// 单个资源标识符的最大长度（超出部分截断）
	FindBufLen = 256

	// 错误描述的最大长度
	ErrorMsgMax = 512
)

// 资源发现常量
const (
	// mDNS 服务类型（SCPI 原始套接字仪器）
	DiscoveryService = "_scpi-raw._tcp"

	// mDNS 域
	DiscoveryDomain = "local"

	// 单次资源枚举的浏览窗口
	DefaultBrowseWindow = 1 * time.Second
)

// AccessMode 表示打开资源时的锁模式。
type AccessMode uint32

const (
	AccessModeNone      AccessMode = 0 // 不加锁
	AccessModeExclusive AccessMode = 1 // 独占锁
	AccessModeShared    AccessMode = 2 // 共享锁
)

// accessModeNames 将锁模式映射到描述
var accessModeNames = map[AccessMode]string{
	AccessModeNone:      "None",
	AccessModeExclusive: "Exclusive",
	AccessModeShared:    "Shared",
}

// String 返回锁模式的可读名称。
func (m AccessMode) String() string {
	if name, ok := accessModeNames[m]; ok {
		return name
	}
	return "Unknown"
}

// Attr 标识一个资源属性。
type Attr uint32

// 资源属性
const (
	AttrTermChar     Attr = 0x0018 // 终止字符（标量）
	AttrTimeout      Attr = 0x001a // 操作超时，毫秒（标量）
	AttrRsrcName     Attr = 0x01bf // 资源名称（字符串）
	AttrManfName     Attr = 0x00d9 // 制造商名称（字符串）
	AttrModelName    Attr = 0x00dd // 型号名称（字符串）
	AttrIntfInstName Attr = 0x00e9 // 接口实例名称（字符串）
)
