package quic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// woken 非阻塞探测唤醒令牌是否已被唤醒
func woken(w *Waker) bool {
	select {
	case <-w.C():
		return true
	default:
		return false
	}
}

// notified 非阻塞探测结束通知是否已发出
func notified(f *Finisher) bool {
	select {
	case <-f.Done():
		return true
	default:
		return false
	}
}

func TestWakerWakeBeforeWait(t *testing.T) {
	w := NewWaker()
	w.Wake()
	// 唤醒先于等待也不丢失
	assert.True(t, woken(w))
}

func TestWakerRepeatedWakeNonBlocking(t *testing.T) {
	w := NewWaker()
	// 重复唤醒不阻塞唤醒方
	w.Wake()
	w.Wake()
	w.Wake()
	assert.True(t, woken(w))
	// 多次唤醒折叠为一次
	assert.False(t, woken(w))
}

func TestFinisherOneShot(t *testing.T) {
	f := NewFinisher()
	assert.False(t, notified(f))

	f.Notify()
	assert.True(t, notified(f))

	// 幂等，且通道保持关闭，任意多次观察都成立
	f.Notify()
	assert.True(t, notified(f))
	assert.True(t, notified(f))
}

func TestFinisherMultipleWaiters(t *testing.T) {
	f := NewFinisher()

	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		go func() {
			<-f.Done()
			done <- struct{}{}
		}()
	}

	f.Notify()
	for i := 0; i < 3; i++ {
		<-done
	}
}
