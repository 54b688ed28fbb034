// monitor.go
package file

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileMonitor 监控数据目录, 指标文件变更后触发回调
type FileMonitor struct {
	watchDir string
	watcher  *fsnotify.Watcher
	names    map[string]bool // 只关心这些文件名, 为空时关心全部
	debounce time.Duration
	lastMod  map[string]time.Time
	mu       sync.Mutex
}

func NewFileMonitor(dir string, names []string, debounce time.Duration) (*FileMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[filepath.Base(n)] = true
	}

	return &FileMonitor{
		watchDir: dir,
		watcher:  watcher,
		names:    set,
		debounce: debounce,
		lastMod:  make(map[string]time.Time),
	}, nil
}

// Close 停止监控
func (m *FileMonitor) Close() error {
	return m.watcher.Close()
}

// relevant 判断事件是否需要处理
func (m *FileMonitor) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	if len(m.names) > 0 && !m.names[filepath.Base(event.Name)] {
		return false
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !info.ModTime().After(m.lastMod[event.Name]) {
		return false
	}
	m.lastMod[event.Name] = info.ModTime()
	return true
}

// Watch 阻塞直到ctx结束; 一批变更在debounce内合并为一次回调
// handler 收到最后一个变更的文件路径
func (m *FileMonitor) Watch(ctx context.Context, handler func(string)) error {
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if !m.relevant(event) {
				continue
			}
			pending = event.Name
			if timer == nil {
				timer = time.NewTimer(m.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(m.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			handler(pending)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// SetupSignalHandler 设置信号处理器
func SetupSignalHandler(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()
}
