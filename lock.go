package govisa

import (
	"sync"
	"time"
)

// rsrcLock 记录单个资源上的锁持有情况。
type rsrcLock struct {
	mode  AccessMode // AccessModeShared 或 AccessModeExclusive
	count int        // 共享锁的持有者数量（独占锁恒为 1）
}

// lockRegistry 维护进程内所有会话对资源的锁持有状态。
// VISA 的锁作用于资源管理器范围；同一进程内的多个会话
// 通过该注册表感知彼此的共享/独占锁。
type lockRegistry struct {
	mu    sync.Mutex
	locks map[string]*rsrcLock
}

// 进程级锁注册表
var locks = newLockRegistry()

// newLockRegistry 创建新的 lockRegistry。
func newLockRegistry() *lockRegistry {
	return &lockRegistry{
		locks: make(map[string]*rsrcLock),
	}
}

// lockPollInterval 是等待锁释放时的重试间隔。
const lockPollInterval = 10 * time.Millisecond

// Acquire 按给定模式获取资源锁，最多等待 timeout。
// AccessModeNone 不注册任何锁，总是成功。
func (r *lockRegistry) Acquire(name string, mode AccessMode, timeout time.Duration) Status {
	switch mode {
	case AccessModeNone:
		return StatusSuccess
	case AccessModeShared, AccessModeExclusive:
	default:
		return StatusErrorInvalidMode
	}

	deadline := time.Now().Add(timeout)
	for {
		if r.tryAcquire(name, mode) {
			return StatusSuccess
		}
		if !time.Now().Before(deadline) {
			return StatusErrorRsrcLocked
		}
		time.Sleep(lockPollInterval)
	}
}

// tryAcquire 尝试立即获取锁。
func (r *lockRegistry) tryAcquire(name string, mode AccessMode) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	held := r.locks[name]
	if held == nil {
		r.locks[name] = &rsrcLock{mode: mode, count: 1}
		return true
	}

	// 共享锁可以与其他共享锁共存
	if mode == AccessModeShared && held.mode == AccessModeShared {
		held.count++
		return true
	}
	return false
}

// Release 释放先前获取的锁。
// AccessModeNone 或未持有锁时为空操作。
func (r *lockRegistry) Release(name string, mode AccessMode) {
	if mode == AccessModeNone {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	held := r.locks[name]
	if held == nil {
		return
	}
	held.count--
	if held.count <= 0 {
		delete(r.locks, name)
	}
}

// Held 返回资源上当前的锁模式。
func (r *lockRegistry) Held(name string) AccessMode {
	r.mu.Lock()
	defer r.mu.Unlock()

	if held := r.locks[name]; held != nil {
		return held.mode
	}
	return AccessModeNone
}
