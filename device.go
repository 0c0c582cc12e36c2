package govisa

import (
	"log"
	"strings"
	"time"
)

// Config 保存创建 Device 的配置。
type Config struct {
	// Timeout 操作超时时间，同时也是 Query 的固定等待时长（默认 2s）
	Timeout time.Duration

	// TermChar 打开资源时协商的终止字符（默认 '\n'）。
	// 为 0 表示未知：协商会失败，刚打开的资源会被立即关闭。
	TermChar byte

	// BrowseWindow 单次资源枚举的浏览窗口（默认 1s）
	BrowseWindow time.Duration

	// Logger 用于调试输出（nil 禁用日志）
	Logger *log.Logger
}

// DefaultConfig 返回带默认值的 Config。
func DefaultConfig() *Config {
	return &Config{
		Timeout:      DefaultTimeout,
		TermChar:     DefaultTermChar,
		BrowseWindow: DefaultBrowseWindow,
	}
}

// Device 表示一个 VISA 风格的传输会话。
// 它持有发现上下文的句柄，打开后再持有具体资源的句柄，
// 并将底层状态码翻译为 成功/失败 加可读的错误描述。
//
// 一个 Device 同一时间只服务一个调用方线程；
// 仪器本身也会串行处理命令。
type Device struct {
	rm  *ResourceManager
	res *Resource

	initialized bool
	open        bool

	timeout  time.Duration
	termChar byte

	closeCmd  []string
	lastError string

	config *Config
}

// NewDevice 创建新的 Device 并打开发现上下文。
// 底层子系统不可达时进入未初始化状态而不是报错；
// 之后的所有操作都会检查该状态并以失败返回。
func NewDevice(config *Config) *Device {
	if config == nil {
		config = DefaultConfig()
	}

	d := &Device{config: config, timeout: config.Timeout}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}

	rm, status := OpenDefaultRM()
	if d.processStatus(status) {
		if config.BrowseWindow > 0 {
			rm.browseWindow = config.BrowseWindow
		}
		d.rm = rm
		d.initialized = true
	}
	return d
}

// IsInitialized 返回发现上下文是否有效。
func (d *Device) IsInitialized() bool {
	return d.initialized
}

// IsOpen 返回是否有已打开的资源。
func (d *Device) IsOpen() bool {
	return d.open
}

// Timeout 返回当前配置的超时时间。
func (d *Device) Timeout() time.Duration {
	return d.timeout
}

// FindInstruments 枚举匹配过滤表达式的仪器资源名称。
// 不要求有已打开的资源；未初始化或无匹配时返回空序列。
// 枚举中途失败时返回已收集到的名称（错误描述写入 LastError）。
func (d *Device) FindInstruments(expr string) []string {
	var list []string
	if d.initialized {
		instr, status := d.rm.FindResources(expr)
		d.processStatus(status)
		list = instr
	}
	return list
}

// Open 按给定锁模式和超时打开命名资源。
// 打开成功后协商终止字符；协商失败时关闭刚打开的资源，
// 不留下孤立的打开状态。timeout <= 0 时沿用当前超时。
func (d *Device) Open(name string, mode AccessMode, timeout time.Duration) bool {
	if timeout > 0 {
		d.timeout = timeout
	}

	if !d.initialized {
		d.processStatus(StatusErrorNotInitialized)
		return false
	}
	if d.open {
		d.processStatus(StatusErrorAlreadyOpen)
		return false
	}

	res, status := d.rm.openResource(name, mode, d.timeout, d.config.TermChar)
	if !d.processStatus(status) {
		return false
	}

	d.res = res
	d.open = true
	d.log("opened %s (mode=%s, timeout=%v)", res.Name(), mode, d.timeout)

	// 获取写操作使用的终止字符
	term, st := res.Attribute(AttrTermChar)
	if !d.processStatus(st) {
		// 终止字符未知时无法安全执行任何写操作，直接关闭
		d.Close()
		return false
	}
	d.termChar = byte(term)

	return d.open
}

// Close 关闭已打开的资源。
// 注册过 CloseSequence 时先尽力发送；发送失败记为警告，不阻止关闭。
// 幂等：资源已关闭时立即返回 true。
func (d *Device) Close() bool {
	if d.open {
		if len(d.closeCmd) > 0 {
			if !d.WriteAll(d.closeCmd) {
				d.lastError = "[WARN]: failed to send onClose command!"
			}
		}

		if d.processStatus(d.res.Close()) {
			d.open = false
			d.res = nil
			d.log("closed")
		}
	}
	return !d.open
}

// Destroy 销毁会话：关闭仍然打开的资源，然后释放发现上下文。
// 通常配合 defer 使用，保证所有退出路径上的清理顺序。
func (d *Device) Destroy() {
	if d.initialized {
		if d.open {
			d.Close()
		}

		if !d.open {
			if d.processStatus(d.rm.Close()) {
				d.initialized = false
				d.rm = nil
			}
		}
	}
}

// OnClose 注册/替换关闭前发送的单条命令。
func (d *Device) OnClose(cmd string) {
	d.closeCmd = []string{cmd}
}

// OnCloseAll 注册/替换关闭前发送的命令序列。
// 序列作为一次批量写入发送，恰好执行一次。
func (d *Device) OnCloseAll(cmds []string) {
	d.closeCmd = append([]string(nil), cmds...)
}

// Write 向仪器写入一条命令，自动追加终止字符。
func (d *Device) Write(msg string) bool {
	buf := make([]byte, 0, len(msg)+1)
	buf = append(buf, msg...)
	buf = append(buf, d.termChar)
	return d.writeBytes(buf)
}

// WriteAll 将多条命令合并为一次写入。
// 命令之间用 ";" 加终止字符分隔，只有最后一条命令带显式终止符，
// 分隔符本身已让接收方把前面的命令视为独立的 SCPI 语句。
func (d *Device) WriteAll(cmds []string) bool {
	return d.Write(strings.Join(cmds, d.cmdSeparator()))
}

// cmdSeparator 返回批量写入的命令分隔符。
func (d *Device) cmdSeparator() string {
	return ";" + string(d.termChar)
}

// writeBytes 执行原始字节写入。
func (d *Device) writeBytes(buf []byte) bool {
	if !d.initialized {
		d.processStatus(StatusErrorNotInitialized)
		return false
	}
	if !d.open {
		d.processStatus(StatusErrorNotOpen)
		return false
	}

	d.log("write: %q", buf)
	return d.processStatus(d.res.Write(buf))
}

// Read 读取至多 bufSize 字节并原样返回收到的内容。
// 未初始化、未打开或读取失败时返回空字符串。
// bufSize <= 0 时使用 DefaultReadBufSize。
func (d *Device) Read(bufSize int) string {
	if bufSize <= 0 {
		bufSize = DefaultReadBufSize
	}
	if !d.initialized {
		d.processStatus(StatusErrorNotInitialized)
		return ""
	}
	if !d.open {
		d.processStatus(StatusErrorNotOpen)
		return ""
	}

	data, status := d.res.Read(d.termChar, bufSize)
	if !d.processStatus(status) {
		return ""
	}
	d.log("read: %q", data)
	return string(data)
}

// Query 写入命令，挂起调用线程恰好一个超时时长，然后读取应答。
// 固定延时是刻意设计：协议没有应答就绪通知，不要改成轮询或事件等待。
// 写入失败时直接返回空字符串，不尝试读取。
func (d *Device) Query(cmd string) string {
	if !d.Write(cmd) {
		return ""
	}

	time.Sleep(d.timeout)

	return d.Read(DefaultReadBufSize)
}

// GetLastError 返回并清除最近一次失败的描述。
// 无未读错误时返回空字符串；每次新的失败都会覆盖旧值。
func (d *Device) GetLastError() string {
	tmp := d.lastError
	d.lastError = ""
	return tmp
}

// SetAttribute 设置已打开资源的标量属性。
func (d *Device) SetAttribute(attr Attr, value uint64) bool {
	if !d.open {
		d.processStatus(StatusErrorNotOpen)
		return false
	}

	if !d.processStatus(d.res.SetAttribute(attr, value)) {
		return false
	}

	// 会话缓存与资源属性保持一致
	switch attr {
	case AttrTermChar:
		d.termChar = byte(value)
	case AttrTimeout:
		d.timeout = time.Duration(value) * time.Millisecond
	}
	return true
}

// ScalarAttribute 返回已打开资源的标量属性值。
func (d *Device) ScalarAttribute(attr Attr) (uint64, bool) {
	if !d.open {
		d.processStatus(StatusErrorNotOpen)
		return 0, false
	}

	value, status := d.res.Attribute(attr)
	return value, d.processStatus(status)
}

// StringAttribute 返回已打开资源的字符串属性值。
// 资源未打开或属性未知时返回空字符串。
func (d *Device) StringAttribute(attr Attr) string {
	attrVal := ""
	if d.open {
		value, status := d.res.StringAttribute(attr)
		d.processStatus(status)
		attrVal = value
	}
	return attrVal
}

// DeviceDescription 返回已打开资源的可读描述。
func (d *Device) DeviceDescription() string {
	desc := ""
	if d.open {
		parts := make([]string, 0, 3)
		for _, attr := range []Attr{AttrManfName, AttrModelName, AttrIntfInstName} {
			if value, status := d.res.StringAttribute(attr); status.Succeeded() && value != "" {
				parts = append(parts, value)
			}
		}
		desc = strings.Join(parts, " : ")
	}
	return desc
}

// processStatus 将状态码翻译为 成功/失败 并记录错误描述。
// 选择哪个句柄提供描述取决于是否有已打开的资源：
// 打开的资源更具体，优先使用；两者都无效时用固定文案。
// 成功状态不会清除之前记录的错误。
func (d *Device) processStatus(status Status) bool {
	if status.Succeeded() {
		return true
	}

	switch {
	case d.open && d.res != nil:
		d.lastError = d.res.StatusDesc(status)
	case d.initialized && d.rm != nil:
		d.lastError = d.rm.StatusDesc(status)
	default:
		d.lastError = "neither resource manager nor device is initialized"
	}

	if len(d.lastError) > ErrorMsgMax {
		d.lastError = d.lastError[:ErrorMsgMax]
	}

	d.log("status %d: %s", int32(status), d.lastError)
	return false
}

// log 在配置了日志记录器时输出调试消息。
func (d *Device) log(format string, args ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Printf("[visa] "+format, args...)
	}
}
