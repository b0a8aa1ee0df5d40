package quic

import (
	"os"
	"sync"
	"time"

	"github.com/quic-go/quic-go"
)

const (
	// maxRecvBuffer 接收缓冲上限，达到后接收泵暂停
	maxRecvBuffer = 256 << 10

	// maxSendBuffer 发送缓冲上限，写满后 Write 挂起等待写轴唤醒
	maxSendBuffer = 256 << 10

	// recvChunk 接收泵单次读取的块大小
	recvChunk = 32 << 10
)

// Stream 多路复用流句柄
//
// 句柄只持有流 ID 这一个指向流表的回引，不拥有 streamState——
// 流可以在句柄存活时被拆除，句柄通过"删除即唤醒"信号察觉。
//
// 读写都走唤醒状态机：每个方向一个泵 goroutine 在底层 QUIC 流
// 与缓冲之间搬运数据，就绪时通过流表唤醒挂起的调用方；
// Read/Write 无法立即推进时注册等待者挂起。
// 同一时刻最多一个并发读方和一个并发写方。
type Stream struct {
	id   quic.StreamID
	conn *Conn
	qs   quic.Stream

	mu sync.Mutex

	recvStarted bool
	recvBuf     []byte
	recvErr     error
	recvSpace   chan struct{}

	sendStarted  bool
	sendBuf      []byte
	sendErr      error
	sendSignal   chan struct{}
	finRequested bool

	readClosed  bool
	writeClosed bool
	removed     bool

	readDeadline  deadline
	writeDeadline deadline
}

func newStream(qs quic.Stream, conn *Conn) *Stream {
	return &Stream{
		id:            qs.StreamID(),
		conn:          conn,
		qs:            qs,
		recvSpace:     make(chan struct{}, 1),
		sendSignal:    make(chan struct{}, 1),
		readDeadline:  makeDeadline(),
		writeDeadline: makeDeadline(),
	}
}

// ID 返回流 ID
func (s *Stream) ID() quic.StreamID {
	return s.id
}

// Conn 返回所属连接
func (s *Stream) Conn() *Conn {
	return s.conn
}

// Read 从流中读取数据
//
// 缓冲有数据立即返回；否则注册读等待者挂起，由接收泵、
// 流拆除或连接关闭唤醒。
func (s *Stream) Read(p []byte) (n int, err error) {
	defer s.conn.trapInvariant(&err)

	if len(p) == 0 {
		return 0, nil
	}
	for {
		s.mu.Lock()
		if len(s.recvBuf) > 0 {
			n = copy(p, s.recvBuf)
			s.recvBuf = s.recvBuf[n:]
			if len(s.recvBuf) == 0 {
				s.recvBuf = nil
			}
			s.signalRecvSpace()
			s.mu.Unlock()
			return n, nil
		}
		if s.readClosed || s.removed {
			s.mu.Unlock()
			return 0, ErrStreamClosed
		}
		if s.recvErr != nil {
			err = s.recvErr
			s.mu.Unlock()
			return 0, err
		}
		s.ensureRecvPump()

		w := NewWaker()
		regErr := s.conn.streams.SetReader(s.id, w)
		s.mu.Unlock()
		if regErr != nil {
			return 0, regErr
		}

		select {
		case <-w.C():
		case <-s.readDeadline.wait():
			return 0, os.ErrDeadlineExceeded
		}
	}
}

// Write 向流写入数据
//
// 数据先进发送缓冲，由发送泵异步刷向底层流；缓冲写满时
// 注册写等待者挂起，缓冲腾空后被唤醒继续。
func (s *Stream) Write(p []byte) (n int, err error) {
	defer s.conn.trapInvariant(&err)

	for len(p) > 0 {
		s.mu.Lock()
		if s.writeClosed || s.removed {
			s.mu.Unlock()
			return n, ErrStreamClosed
		}
		if s.sendErr != nil {
			err = s.sendErr
			s.mu.Unlock()
			return n, err
		}
		if space := maxSendBuffer - len(s.sendBuf); space > 0 {
			c := min(space, len(p))
			s.sendBuf = append(s.sendBuf, p[:c]...)
			p = p[c:]
			n += c
			s.ensureSendPump()
			s.signalSend()
			s.mu.Unlock()
			continue
		}

		w := NewWaker()
		regErr := s.conn.streams.SetWriter(s.id, w)
		s.mu.Unlock()
		if regErr != nil {
			return n, regErr
		}

		select {
		case <-w.C():
		case <-s.writeDeadline.wait():
			return n, os.ErrDeadlineExceeded
		}
	}
	return n, nil
}

// CloseWrite 关闭写方向并等待缓冲数据连同 FIN 刷出
//
// 调用方等待的是单一终态事件，走写轴的一次性结束通知，
// 而不是可重试的写等待者。流拆除或连接关闭同样会解除等待。
func (s *Stream) CloseWrite() (err error) {
	defer s.conn.trapInvariant(&err)

	s.mu.Lock()
	if s.writeClosed || s.removed {
		s.mu.Unlock()
		return nil
	}
	s.writeClosed = true

	if !s.sendStarted {
		// 无待刷数据，直接发 FIN
		s.mu.Unlock()
		return s.qs.Close()
	}
	if s.sendErr != nil {
		// 发送泵已经出错退出，没有人会发结束通知
		err = s.sendErr
		s.mu.Unlock()
		return err
	}

	s.finRequested = true
	fin := NewFinisher()
	regErr := s.conn.streams.SetFinisher(s.id, fin)
	s.signalSend()
	s.mu.Unlock()
	if regErr != nil {
		return regErr
	}

	<-fin.Done()

	s.mu.Lock()
	err = s.sendErr
	s.mu.Unlock()
	return err
}

// CloseRead 关闭读方向
func (s *Stream) CloseRead() error {
	s.mu.Lock()
	if s.readClosed {
		s.mu.Unlock()
		return nil
	}
	s.readClosed = true
	s.signalRecvSpace()
	s.mu.Unlock()

	s.qs.CancelRead(0)
	// 叫醒挂起的读方，重查后得到 ErrStreamClosed
	s.conn.streams.WakeReader(s.id)
	return nil
}

// Close 关闭流并将其从流表注销
//
// 注销唤醒两条轴上残留的等待者；不等待 FIN 刷出，
// 发送泵在后台完成排空。对任何挂起的唤醒幂等。
func (s *Stream) Close() (err error) {
	defer s.conn.trapInvariant(&err)

	s.mu.Lock()
	if s.removed {
		s.mu.Unlock()
		return nil
	}
	s.removed = true
	s.readClosed = true

	if !s.writeClosed {
		s.writeClosed = true
		if s.sendStarted {
			s.finRequested = true
			s.signalSend()
		} else if cerr := s.qs.Close(); cerr != nil {
			err = cerr
		}
	}
	s.signalRecvSpace()

	// 持 s.mu 注销，保证没有并发操作能在注销后再注册等待者
	s.conn.streams.RemoveStream(s.id)
	s.mu.Unlock()

	s.qs.CancelRead(0)
	return err
}

// SetDeadline 设置读写超时
func (s *Stream) SetDeadline(t time.Time) error {
	s.readDeadline.set(t)
	s.writeDeadline.set(t)
	return nil
}

// SetReadDeadline 设置读超时
func (s *Stream) SetReadDeadline(t time.Time) error {
	s.readDeadline.set(t)
	return nil
}

// SetWriteDeadline 设置写超时
func (s *Stream) SetWriteDeadline(t time.Time) error {
	s.writeDeadline.set(t)
	return nil
}

// ============================================================
// 泵：底层 QUIC 流与缓冲之间的搬运 goroutine
// ============================================================

// ensureRecvPump 惰性启动接收泵（须持 s.mu 调用）
func (s *Stream) ensureRecvPump() {
	if s.recvStarted {
		return
	}
	s.recvStarted = true
	go s.recvPump()
}

// recvPump 从底层流读入缓冲，每次有数据或出错都唤醒读轴
func (s *Stream) recvPump() {
	buf := make([]byte, recvChunk)
	for {
		s.mu.Lock()
		for len(s.recvBuf) >= maxRecvBuffer && !s.readClosed {
			s.mu.Unlock()
			<-s.recvSpace
			s.mu.Lock()
		}
		stop := s.readClosed
		s.mu.Unlock()
		if stop {
			return
		}

		n, err := s.qs.Read(buf)

		s.mu.Lock()
		if n > 0 {
			s.recvBuf = append(s.recvBuf, buf[:n]...)
		}
		if err != nil {
			s.recvErr = err
		}
		s.mu.Unlock()

		// 流可能已被并发拆除，唤醒走宽松路径
		s.conn.streams.WakeReader(s.id)
		if err != nil {
			return
		}
	}
}

// ensureSendPump 惰性启动发送泵（须持 s.mu 调用）
func (s *Stream) ensureSendPump() {
	if s.sendStarted {
		return
	}
	s.sendStarted = true
	go s.sendPump()
}

// sendPump 将发送缓冲刷向底层流
//
// 缓冲腾空后唤醒写轴；收到结束请求且缓冲排空时发出 FIN，
// 写轴唤醒此时命中的是结束通知。
func (s *Stream) sendPump() {
	for {
		s.mu.Lock()
		for len(s.sendBuf) == 0 && !s.finRequested {
			s.mu.Unlock()
			<-s.sendSignal
			s.mu.Lock()
		}
		if len(s.sendBuf) == 0 {
			// 结束请求且已排空
			s.mu.Unlock()
			err := s.qs.Close()
			s.mu.Lock()
			if err != nil {
				s.sendErr = err
			}
			s.mu.Unlock()
			s.conn.streams.WakeWriter(s.id)
			return
		}
		chunk := s.sendBuf
		s.sendBuf = nil
		s.mu.Unlock()

		if _, err := s.qs.Write(chunk); err != nil {
			s.mu.Lock()
			s.sendErr = err
			s.mu.Unlock()
			s.conn.streams.WakeWriter(s.id)
			return
		}

		// 缓冲腾空，唤醒可能挂起的写方
		s.conn.streams.WakeWriter(s.id)
	}
}

// signalRecvSpace 通知接收泵缓冲有空间（须持 s.mu 调用）
func (s *Stream) signalRecvSpace() {
	select {
	case s.recvSpace <- struct{}{}:
	default:
	}
}

// signalSend 通知发送泵有数据或结束请求（须持 s.mu 调用）
func (s *Stream) signalSend() {
	select {
	case s.sendSignal <- struct{}{}:
	default:
	}
}
