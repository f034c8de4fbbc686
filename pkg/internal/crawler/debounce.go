package crawler

import (
	"sync"
	"time"
)

// Debouncer 按 key 去抖：窗口内对同一 key 的重复触发只保留最后一次.
// 编辑器保存一个文件往往触发一串 create/write 事件，去抖后索引流水线
// 对该路径只执行一次.
type Debouncer struct {
	window time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewDebouncer 创建去抖器.window <= 0 时触发立即执行（不去抖）.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window: window,
		timers: make(map[string]*time.Timer),
	}
}

// Trigger 为 key 安排一次回调.窗口内重复触发会重置计时并丢弃之前的回调.
func (d *Debouncer) Trigger(key string, fn func()) {
	if d.window <= 0 {
		fn()

		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[key]; ok {
		t.Stop()
	}

	d.timers[key] = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()

		fn()
	})
}

// Pending 返回尚未触发的 key 数量.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.timers)
}

// Stop 取消所有未触发的回调.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
