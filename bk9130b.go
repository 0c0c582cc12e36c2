package govisa

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
)

// 通道名称
const (
	ChannelCH1 = "CH1"
	ChannelCH2 = "CH2"
	ChannelCH3 = "CH3"
)

// 电压/电流设定范围。CH3 的电压上限更低。
const (
	MaxVoltage    = 30.0
	MaxVoltageCH3 = 5.0
	MaxCurrent    = 3.0
)

// PSUConfig 保存创建 BK9130B 的配置。
type PSUConfig struct {
	// Filter 资源发现的过滤表达式（默认 "?*"）
	Filter string

	// Resource 显式资源名称；为空时使用发现结果的第一个
	Resource string

	// LockMode 打开资源时的锁模式
	LockMode AccessMode

	// Timeout 操作超时时间（默认 2s）
	Timeout time.Duration

	// Logger 用于调试输出（nil 禁用日志）
	Logger *log.Logger
}

// DefaultPSUConfig 返回带默认值的 PSUConfig。
func DefaultPSUConfig() *PSUConfig {
	return &PSUConfig{
		Filter:   "?*",
		LockMode: AccessModeNone,
		Timeout:  DefaultTimeout,
	}
}

// BK9130B 驱动 BK Precision 9130B 三通道程控电源。
// 它在传输会话之上发送具体的 SCPI 命令并解析应答，
// 维护本地缓存（活动通道、输出状态、设定值），
// 缓存只在对应的传输操作成功后更新，从不提前。
type BK9130B struct {
	dev    *Device
	config *PSUConfig

	initialized bool

	activeChannel string
	outputOn      bool
	voltage       float64
	current       float64
}

// NewBK9130B 创建新的 BK9130B 驱动。
func NewBK9130B(config *PSUConfig) *BK9130B {
	if config == nil {
		config = DefaultPSUConfig()
	}
	if config.Filter == "" {
		config.Filter = "?*"
	}

	devConfig := DefaultConfig()
	devConfig.Timeout = config.Timeout
	devConfig.Logger = config.Logger

	return &BK9130B{
		dev:    NewDevice(devConfig),
		config: config,
	}
}

// Initialize 建立与电源的连接：发现并打开资源，
// 注册关闭序列（逐通道选中并关断输出），写入上电默认值
// （CH1、输出关、1.0 V、0.0 A）。已初始化时为空操作。
func (b *BK9130B) Initialize() error {
	if b.initialized {
		return nil
	}

	name := b.config.Resource
	if name == "" {
		ids := b.dev.FindInstruments(b.config.Filter)
		if len(ids) == 0 {
			return ErrNoInstrument
		}
		name = ids[0]
	}

	if !b.dev.Open(name, b.config.LockMode, b.config.Timeout) {
		return fmt.Errorf("visa: open %s failed: %s", name, b.dev.GetLastError())
	}

	// 关闭前逐通道关断输出
	b.dev.OnCloseAll([]string{
		"INST:SEL CH1",
		"SOUR:CHAN:OUTP:STAT OFF",
		"INST:SEL CH2",
		"SOUR:CHAN:OUTP:STAT OFF",
		"INST:SEL CH3",
		"SOUR:CHAN:OUTP:STAT OFF",
	})

	// 上电默认值
	if !b.dev.WriteAll([]string{
		"INST:SEL CH1",
		"SOUR:CHAN:OUTP:STAT OFF",
		"SOUR:VOLT 1.0 V",
		"SOUR:CURR 0.0 A",
	}) {
		b.logLastError()
		b.dev.Close()
		return ErrWriteFailed
	}

	b.activeChannel = ChannelCH1
	b.outputOn = false
	b.voltage = 1.0
	b.current = 0.0
	b.initialized = true
	return nil
}

// Shutdown 关闭与电源的连接（触发已注册的关闭序列）。
// 关闭后可以再次 Initialize。
func (b *BK9130B) Shutdown() error {
	if !b.initialized {
		return nil
	}

	b.initialized = false
	if !b.dev.Close() {
		b.logLastError()
		return ErrWriteFailed
	}
	return nil
}

// Destroy 销毁驱动持有的传输会话。之后不可再使用。
func (b *BK9130B) Destroy() {
	if b.initialized {
		b.Shutdown()
	}
	b.dev.Destroy()
}

// IsInitialized 返回连接是否已建立。
func (b *BK9130B) IsInitialized() bool {
	return b.initialized
}

// SetActiveChannel 切换活动通道（CH1/CH2/CH3）。
// 切换成功后查询新通道的输出状态以刷新缓存。
func (b *BK9130B) SetActiveChannel(ch string) error {
	switch ch {
	case ChannelCH1, ChannelCH2, ChannelCH3:
	default:
		return ErrInvalidChannel
	}
	if !b.initialized {
		return ErrNotInitialized
	}

	if !b.dev.Write("INST:SEL " + ch) {
		b.logLastError()
		return ErrWriteFailed
	}
	b.activeChannel = ch

	// 刷新输出状态缓存；查询失败时按关断处理
	b.outputOn = b.query("SOUR:CHAN:OUTP:STAT?") == "1"
	return nil
}

// ActiveChannel 查询仪器当前的活动通道。
func (b *BK9130B) ActiveChannel() (string, error) {
	if !b.initialized {
		return "", ErrNotInitialized
	}

	reply := b.query("INST:SEL?")
	if reply == "" {
		b.logLastError()
		return "", ErrQueryFailed
	}
	b.activeChannel = reply
	return reply, nil
}

// SetOutput 打开/关闭活动通道的输出。
// 状态未变化时不发送任何命令。
func (b *BK9130B) SetOutput(on bool) error {
	if !b.initialized {
		return ErrNotInitialized
	}
	if on == b.outputOn {
		return nil
	}

	state := "OFF"
	if on {
		state = "ON"
	}

	// 发送通道选中命令（INST:SEL）理论上不是必须的，保险起见保留
	if !b.dev.WriteAll([]string{
		"INST:SEL " + b.activeChannel,
		"SOUR:CHAN:OUTP:STAT " + state,
	}) {
		b.logLastError()
		return ErrWriteFailed
	}
	b.outputOn = on
	return nil
}

// Output 返回活动通道输出状态的本地缓存。
func (b *BK9130B) Output() bool {
	return b.outputOn
}

// SetVoltage 设置活动通道的输出电压。
// CH1/CH2 范围 0-30 V，CH3 范围 0-5 V；超出范围的请求
// 被钳位到最近的合法边界并返回 ErrInvalidVoltage，
// 但钳位后的命令仍会发出。
func (b *BK9130B) SetVoltage(v float64) error {
	return b.setLevel(v, 'V')
}

// Voltage 查询活动通道的电压设定值。
func (b *BK9130B) Voltage() (float64, error) {
	return b.level('V')
}

// SetCurrent 设置活动通道的输出电流，范围 0-3 A。
// 钳位策略与 SetVoltage 相同，范围错误为 ErrInvalidCurrent。
func (b *BK9130B) SetCurrent(a float64) error {
	return b.setLevel(a, 'A')
}

// Current 查询活动通道的电流设定值。
func (b *BK9130B) Current() (float64, error) {
	return b.level('A')
}

// setLevel 发送电压/电流设定命令。
func (b *BK9130B) setLevel(value float64, unit byte) error {
	if !b.initialized {
		return ErrNotInitialized
	}

	cmd := "SOUR:VOLT"
	rangeErr := ErrInvalidVoltage
	max := MaxVoltage
	if unit == 'A' {
		cmd = "SOUR:CURR"
		rangeErr = ErrInvalidCurrent
		max = MaxCurrent
	} else if b.activeChannel == ChannelCH3 {
		// CH3 的电压上限是 5 V
		max = MaxVoltageCH3
	}

	var clampErr error
	if value < 0 {
		value = 0
		clampErr = rangeErr
	} else if value > max {
		value = max
		clampErr = rangeErr
	}

	if !b.dev.Write(cmd + " " + formatValue(value, unit)) {
		b.logLastError()
		return ErrWriteFailed
	}

	if unit == 'A' {
		b.current = value
	} else {
		b.voltage = value
	}
	return clampErr
}

// level 查询电压/电流设定值。
func (b *BK9130B) level(unit byte) (float64, error) {
	if !b.initialized {
		return 0, ErrNotInitialized
	}

	cmd := "SOUR:VOLT"
	if unit == 'A' {
		cmd = "SOUR:CURR"
	}

	reply := b.query(cmd + ":LEV?")
	if reply == "" {
		b.logLastError()
		return 0, ErrQueryFailed
	}

	value, err := strconv.ParseFloat(reply, 64)
	if err != nil {
		return 0, ErrReadFailed
	}

	if unit == 'A' {
		b.current = value
	} else {
		b.voltage = value
	}
	return value, nil
}

// query 执行查询并去掉应答两端的空白和终止字符。
func (b *BK9130B) query(cmd string) string {
	return strings.TrimSpace(b.dev.Query(cmd))
}

// logLastError 取出并记录传输层最近的错误。
func (b *BK9130B) logLastError() {
	msg := b.dev.GetLastError()
	if b.config.Logger != nil && msg != "" {
		b.config.Logger.Printf("[bk9130b] %s", msg)
	}
}

// formatValue 将设定值格式化为带单位的 SCPI 参数，如 "1.000000 V"。
func formatValue(value float64, unit byte) string {
	return fmt.Sprintf("%f %c", value, unit)
}
