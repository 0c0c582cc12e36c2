package govisa

import "fmt"

// Status 表示一次传输操作的状态码。
// 零为成功，负值为失败（与 VISA 的 ViStatus 约定一致）。
type Status int32

// 状态码
const (
	StatusSuccess Status = 0

	StatusErrorNotInitialized  Status = -1 // 资源管理器未初始化
	StatusErrorNotOpen         Status = -2 // 资源未打开
	StatusErrorAlreadyOpen     Status = -3 // 资源已打开
	StatusErrorInvalidRsrcName Status = -4 // 资源名称无效
	StatusErrorInvalidExpr     Status = -5 // 过滤表达式无效
	StatusErrorInvalidMode     Status = -6 // 锁模式无效
	StatusErrorRsrcNotFound    Status = -7 // 资源不存在或无法连接
	StatusErrorRsrcLocked      Status = -8 // 资源被其他会话锁定
	StatusErrorTimeout         Status = -9 // 操作超时

	StatusErrorIO             Status = -10 // 底层 I/O 错误
	StatusErrorConnLost       Status = -11 // 连接已断开
	StatusErrorAttrUnknown    Status = -12 // 属性不存在或值未知
	StatusErrorFindFailed     Status = -13 // 资源枚举中断
	StatusErrorAttrReadOnly   Status = -14 // 属性为只读
	StatusErrorClosedResource Status = -15 // 对已关闭的资源句柄进行操作
)

// statusNames 将状态码映射到描述
var statusNames = map[Status]string{
	StatusSuccess:              "operation completed successfully",
	StatusErrorNotInitialized:  "resource manager is not initialized",
	StatusErrorNotOpen:         "no resource is open",
	StatusErrorAlreadyOpen:     "a resource is already open on this session",
	StatusErrorInvalidRsrcName: "invalid resource name",
	StatusErrorInvalidExpr:     "invalid resource filter expression",
	StatusErrorInvalidMode:     "invalid access mode",
	StatusErrorRsrcNotFound:    "resource not found or not reachable",
	StatusErrorRsrcLocked:      "resource is locked by another session",
	StatusErrorTimeout:         "operation timed out",
	StatusErrorIO:              "input/output error",
	StatusErrorConnLost:        "connection to the resource was lost",
	StatusErrorAttrUnknown:     "attribute is unknown or has no value",
	StatusErrorFindFailed:      "resource enumeration was interrupted",
	StatusErrorAttrReadOnly:    "attribute is read-only",
	StatusErrorClosedResource:  "resource handle is closed",
}

// Succeeded 返回状态是否表示成功。
func (s Status) Succeeded() bool {
	return s >= StatusSuccess
}

// Describe 返回状态码的可读描述。
func (s Status) Describe() string {
	if desc, ok := statusNames[s]; ok {
		return desc
	}
	return fmt.Sprintf("unknown status code %d", int32(s))
}

// String 实现 fmt.Stringer。
func (s Status) String() string {
	return fmt.Sprintf("visa status %d: %s", int32(s), s.Describe())
}
