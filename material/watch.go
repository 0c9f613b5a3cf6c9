package material

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a material file when it changes on disk. Each successful reload
// is delivered on Tables; callers swap it in between ticks.
type Watcher struct {
	watcher  *fsnotify.Watcher
	filename string
	Tables   chan *Table
	Errors   chan error
	closeCh  chan struct{}
	done     chan struct{}
	once     sync.Once
}

// Watch starts watching filename. The parent directory is watched so editors
// replacing the file are picked up too.
func Watch(filename string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(filename)
	if err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}

	watcher := &Watcher{
		watcher:  w,
		filename: abs,
		Tables:   make(chan *Table, 1),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Tables)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)

	// a save usually arrives as several events, reload once they settle
	settle := time.NewTimer(time.Hour)
	settle.Stop()
	defer settle.Stop()

	name := filepath.Base(w.filename)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			settle.Reset(100 * time.Millisecond)
		case <-settle.C:
			t, err := Load(w.filename)
			if err != nil {
				w.send(nil, err)
				continue
			}
			w.send(t, nil)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.send(nil, err)
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) send(t *Table, err error) {
	if err != nil {
		select {
		case w.Errors <- err:
		case <-w.closeCh:
		}
		return
	}
	select {
	case w.Tables <- t:
	case <-w.closeCh:
	}
}
