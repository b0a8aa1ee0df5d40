package quic

// streamState 单个流的唤醒簿记
//
// 两条相互独立的轴：
//   - 读轴：空闲 | 有读等待者
//   - 写轴：畅通 | 有写等待者 | 正在结束（一次性通知）
//
// 不变量：每条轴最多一个活跃等待者；新等待者顶替旧等待者时，
// 被顶替者必须立即被唤醒（它需要重试并重新注册），绝不静默丢弃——
// 被覆盖而无人唤醒的等待者会永远挂起。
//
// streamState 由 StreamTable 独占持有，所有访问在表锁内串行化。
type streamState struct {
	reader *Waker

	// 写轴最多一项非 nil
	writer   *Waker
	finisher *Finisher
}

// setReader 注册读等待者，顶替并唤醒已有的读等待者
func (s *streamState) setReader(w *Waker) {
	if s.reader != nil {
		s.reader.Wake()
	}
	s.reader = w
}

// wakeReader 唤醒并清除读等待者，无等待者则为空操作
func (s *streamState) wakeReader() {
	if s.reader != nil {
		s.reader.Wake()
		s.reader = nil
	}
}

// setWriter 注册写等待者，先解决写轴原有的状态
func (s *streamState) setWriter(w *Waker) {
	s.wakeWriter()
	s.writer = w
}

// setFinisher 注册结束通知，先解决写轴原有的状态
func (s *streamState) setFinisher(f *Finisher) {
	s.wakeWriter()
	s.finisher = f
}

// wakeWriter 解决写轴当前状态（唤醒或通知）并复位为畅通
func (s *streamState) wakeWriter() {
	if s.writer != nil {
		s.writer.Wake()
		s.writer = nil
	}
	if s.finisher != nil {
		s.finisher.Notify()
		s.finisher = nil
	}
}

// wakeAll 解决两条轴上的所有等待者
//
// 流销毁时必须调用：被唤醒的等待者重查流状态会发现流已不在，
// 将其解读为流结束/重置，而不是可以继续。
func (s *streamState) wakeAll() {
	s.wakeReader()
	s.wakeWriter()
}
