package govisa

import (
	"context"
	"errors"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// resourceLister 枚举当前可达的资源名称。
// 枚举中途失败时返回已收集到的名称和错误。
type resourceLister interface {
	List(ctx context.Context) ([]string, error)
}

// ResourceManager 表示与资源发现子系统的连接（发现上下文）。
// 由一个 Device 独占持有；发现和打开操作都要求它有效。
type ResourceManager struct {
	lister       resourceLister
	dial         func(address string, timeout time.Duration) (*Conn, error)
	browseWindow time.Duration
	closed       bool
}

// OpenDefaultRM 打开默认的资源管理器。
// 创建资源管理器不需要与任何仪器通信，开销很小。
func OpenDefaultRM() (*ResourceManager, Status) {
	rm := &ResourceManager{
		lister: &mdnsLister{
			service: DiscoveryService,
			domain:  DiscoveryDomain,
		},
		dial:         DialConn,
		browseWindow: DefaultBrowseWindow,
	}
	return rm, StatusSuccess
}

// FindResources 枚举匹配过滤表达式的资源名称。
// 表达式支持 VISA 风格的通配符：'?' 匹配单个字符，'*' 匹配任意序列。
// 零匹配不是失败；枚举中途失败时返回已收集到的名称和失败状态。
func (rm *ResourceManager) FindResources(expr string) ([]string, Status) {
	if rm.closed {
		return nil, StatusErrorNotInitialized
	}

	re, err := compileFindExpr(expr)
	if err != nil {
		return nil, StatusErrorInvalidExpr
	}

	ctx, cancel := context.WithTimeout(context.Background(), rm.browseWindow)
	defer cancel()

	names, listErr := rm.lister.List(ctx)

	var matched []string
	seen := make(map[string]bool)
	for _, name := range names {
		if len(name) > FindBufLen {
			name = name[:FindBufLen]
		}
		if seen[name] || !re.MatchString(name) {
			continue
		}
		seen[name] = true
		matched = append(matched, name)
	}

	if listErr != nil {
		return matched, StatusErrorFindFailed
	}
	return matched, StatusSuccess
}

// openResource 打开命名资源：解析名称、按模式获取锁并建立连接。
// 任一步骤失败时不留下任何持有状态。
func (rm *ResourceManager) openResource(name string, mode AccessMode, timeout time.Duration, termChar byte) (*Resource, Status) {
	if rm.closed {
		return nil, StatusErrorNotInitialized
	}

	info, status := ParseResource(name)
	if !status.Succeeded() {
		return nil, status
	}

	if status := locks.Acquire(info.name, mode, timeout); !status.Succeeded() {
		return nil, status
	}

	conn, err := rm.dial(info.addr(), timeout)
	if err != nil {
		locks.Release(info.name, mode)
		if st := mapIOError(err); st == StatusErrorTimeout {
			return nil, st
		}
		return nil, StatusErrorRsrcNotFound
	}

	return &Resource{
		name:     info.name,
		mode:     mode,
		conn:     conn,
		timeout:  timeout,
		termChar: termChar,
	}, StatusSuccess
}

// Close 释放资源管理器。之后的发现和打开操作都会失败。
func (rm *ResourceManager) Close() Status {
	rm.closed = true
	return StatusSuccess
}

// StatusDesc 返回状态描述。
func (rm *ResourceManager) StatusDesc(status Status) string {
	return status.Describe()
}

// mdnsLister 通过 mDNS 浏览发现 SCPI 原始套接字仪器。
type mdnsLister struct {
	service string
	domain  string
}

// List 在 ctx 的生存期内浏览服务并渲染资源名称。
// ctx 到期是正常结束；浏览本身失败时返回已收集的名称和错误。
func (l *mdnsLister) List(ctx context.Context) ([]string, error) {
	entries := make(chan *zeroconf.ServiceEntry, 8)
	removed := make(chan *zeroconf.ServiceEntry, 8)
	errc := make(chan error, 1)

	go func() {
		errc <- zeroconf.Browse(ctx, l.service, l.domain, entries, removed)
	}()

	var names []string
	for {
		select {
		case <-ctx.Done():
			return names, nil

		case err := <-errc:
			if err != nil && ctx.Err() == nil &&
				!errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
				return names, err
			}
			return names, nil

		case entry, ok := <-entries:
			if !ok {
				entries = nil
				continue
			}
			names = append(names, entryToResources(entry)...)

		case _, ok := <-removed:
			if !ok {
				removed = nil
			}
		}
	}
}

// entryToResources 将一条 mDNS 服务记录渲染为资源名称。
// 一条记录可能在多个接口上携带多个地址。
func entryToResources(entry *zeroconf.ServiceEntry) []string {
	var names []string
	for _, ip := range entry.AddrIPv4 {
		names = append(names, FormatResource(0, ip.String(), entry.Port))
	}
	for _, ip := range entry.AddrIPv6 {
		if ip.To4() != nil {
			continue
		}
		names = append(names, FormatResource(0, ip.String(), entry.Port))
	}
	return names
}
