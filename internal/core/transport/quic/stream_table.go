package quic

import (
	"slices"
	"sync"

	"github.com/quic-go/quic-go"
)

// StreamTable 连接内所有流的唤醒簿记注册表
//
// 按流 ID 索引 streamState。事件来源分两类，宽严有别：
//
//   - 严格操作（AddStream/RemoveStream/Set*）：调用方是本地受信
//     代码，ID 错乱意味着 bug，以 InvariantError panic 终止连接；
//   - 宽松操作（WakeReader/WakeWriter）：就绪事件可能与流的并发
//     拆除交错到达，未知 ID 是正常竞态，静默忽略。
//
// 表关闭后（连接拆除），所有操作都降级为已定义的关闭语义，
// 不再视为不变量违例。
type StreamTable struct {
	mu      sync.Mutex
	streams map[quic.StreamID]*streamState
	closed  bool
}

// NewStreamTable 创建流表
func NewStreamTable() *StreamTable {
	return &StreamTable{
		streams: make(map[quic.StreamID]*streamState),
	}
}

// AddStream 登记新流
//
// 重复的 ID 说明命名空间被破坏或跨属主复用，属不变量违例。
// 表已关闭时返回 ErrConnectionClosed。
func (t *StreamTable) AddStream(id quic.StreamID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrConnectionClosed
	}
	if _, ok := t.streams[id]; ok {
		panic(&InvariantError{Op: "add duplicate stream", StreamID: id})
	}
	t.streams[id] = &streamState{}
	return nil
}

// RemoveStream 注销流并唤醒其全部等待者
//
// 被唤醒的等待者重查后发现流已不在，解读为流结束/重置。
// 在打开的表中删除不存在的 ID 属不变量违例；表已关闭则为空操作
// （连接拆除已经唤醒并清空了所有流）。
func (t *StreamTable) RemoveStream(id quic.StreamID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	state, ok := t.streams[id]
	if !ok {
		panic(&InvariantError{Op: "remove missing stream", StreamID: id})
	}
	state.wakeAll()
	delete(t.streams, id)
}

// SetReader 在流上注册读等待者
//
// 已有的读等待者被唤醒顶替。流不存在属不变量违例；
// 表已关闭时唤醒新等待者并返回 ErrConnectionClosed。
func (t *StreamTable) SetReader(id quic.StreamID, w *Waker) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		w.Wake()
		return ErrConnectionClosed
	}
	state, ok := t.streams[id]
	if !ok {
		panic(&InvariantError{Op: "set reader on missing stream", StreamID: id})
	}
	state.setReader(w)
	return nil
}

// SetWriter 在流上注册写等待者，写轴原有状态先被解决
func (t *StreamTable) SetWriter(id quic.StreamID, w *Waker) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		w.Wake()
		return ErrConnectionClosed
	}
	state, ok := t.streams[id]
	if !ok {
		panic(&InvariantError{Op: "set writer on missing stream", StreamID: id})
	}
	state.setWriter(w)
	return nil
}

// SetFinisher 在流的写轴上注册一次性结束通知
func (t *StreamTable) SetFinisher(id quic.StreamID, f *Finisher) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		f.Notify()
		return ErrConnectionClosed
	}
	state, ok := t.streams[id]
	if !ok {
		panic(&InvariantError{Op: "set finisher on missing stream", StreamID: id})
	}
	state.setFinisher(f)
	return nil
}

// WakeReader 唤醒流的读等待者，未知 ID 为空操作
func (t *StreamTable) WakeReader(id quic.StreamID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if state, ok := t.streams[id]; ok {
		state.wakeReader()
	}
}

// WakeWriter 解决流的写轴状态，未知 ID 为空操作
func (t *StreamTable) WakeWriter(id quic.StreamID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if state, ok := t.streams[id]; ok {
		state.wakeWriter()
	}
}

// IDs 返回当前所有活跃流 ID 的快照（升序）
func (t *StreamTable) IDs() []quic.StreamID {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]quic.StreamID, 0, len(t.streams))
	for id := range t.streams {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len 返回活跃流数量
func (t *StreamTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.streams)
}

// Close 关闭流表：唤醒所有流的所有等待者并清空（幂等）
//
// 连接拆除时调用，保证没有任何任务还挂在已消失的流上。
func (t *StreamTable) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	for _, state := range t.streams {
		state.wakeAll()
	}
	t.streams = make(map[quic.StreamID]*streamState)
}
