package camera

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 150 * time.Millisecond

// Reload is a freshly loaded profile.
type Reload struct {
	Profile string
	Config  Config
}

// ProfileWatcher reloads a profile file when it changes on disk. Results are
// delivered on Updates; the sim thread drains it at frame start.
type ProfileWatcher struct {
	path    string
	profile string
	log     *zap.Logger

	watcher *fsnotify.Watcher
	updates chan Reload
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// WatchProfile watches the directory holding path so editors that replace
// the file by rename are seen too.
func WatchProfile(path, profile string, log *zap.Logger) (*ProfileWatcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, err
	}
	pw := &ProfileWatcher{
		path:    filepath.Clean(path),
		profile: profile,
		log:     log,
		watcher: w,
		updates: make(chan Reload, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go pw.run()
	return pw, nil
}

func (pw *ProfileWatcher) Updates() <-chan Reload { return pw.updates }

// Poll returns the pending reload, if any, without blocking.
func (pw *ProfileWatcher) Poll() (Reload, bool) {
	select {
	case r := <-pw.updates:
		return r, true
	default:
		return Reload{}, false
	}
}

func (pw *ProfileWatcher) Close() error {
	var err error
	pw.once.Do(func() {
		close(pw.closeCh)
		err = pw.watcher.Close()
		<-pw.done
	})
	return err
}

func (pw *ProfileWatcher) run() {
	defer close(pw.done)
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case ev, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != pw.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			pw.reload()
		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			pw.log.Warn("camera profile watcher", zap.Error(err))
		case <-pw.closeCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (pw *ProfileWatcher) reload() {
	profiles, err := ParseProfilesFile(pw.path)
	if err != nil {
		pw.log.Warn("camera profile reload failed, keeping current config",
			zap.String("path", pw.path), zap.Error(err))
		return
	}
	cfg, used, _ := SelectProfile(profiles, pw.profile)
	r := Reload{Profile: used, Config: cfg}
	// 只保留最新一次結果
	select {
	case <-pw.updates:
	default:
	}
	select {
	case pw.updates <- r:
	default:
	}
	pw.log.Info("camera profile reloaded", zap.String("path", pw.path), zap.String("profile", used))
}
