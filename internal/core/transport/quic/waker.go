package quic

import "sync"

// Waker 协作式挂起的恢复令牌
//
// 挂起方持有 C() 返回的通道等待；唤醒方调用 Wake()。
// 容量为 1 的通道保证：唤醒发生在挂起之前也不会丢失，
// 重复唤醒不会阻塞唤醒方。
type Waker struct {
	ch chan struct{}
}

// NewWaker 创建唤醒令牌
func NewWaker() *Waker {
	return &Waker{ch: make(chan struct{}, 1)}
}

// Wake 唤醒等待者（非阻塞，可重复调用）
func (w *Waker) Wake() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

// C 返回等待通道
func (w *Waker) C() <-chan struct{} {
	return w.ch
}

// Finisher 一次性终态通知
//
// 与 Waker 不同，Finisher 面向等待单一终态事件的调用方
// （如等待 FIN 刷出），通知后不可复用。通道关闭使任意多个
// 等待者都能观察到通知。
type Finisher struct {
	once sync.Once
	ch   chan struct{}
}

// NewFinisher 创建一次性通知
func NewFinisher() *Finisher {
	return &Finisher{ch: make(chan struct{})}
}

// Notify 发出通知（幂等）
func (f *Finisher) Notify() {
	f.once.Do(func() { close(f.ch) })
}

// Done 返回通知通道，通知发出后该通道关闭
func (f *Finisher) Done() <-chan struct{} {
	return f.ch
}
