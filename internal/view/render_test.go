package view

import (
	"testing"
	"time"

	"shellview/internal/shell"
)

func TestRenderDoesNotBlock(t *testing.T) {
	env := newTestEnv(t, func(env *testEnv, s *Settings) {
		env.provider.block = make(chan struct{})
		s.IconSize = 48
	})
	env.provider.add("/f/app.exe", fakeEntry{perInstance: true})
	env.navigate(t, "/f")
	s := env.session

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			for row := 0; row < s.Len(); row++ {
				s.Render(row)
				for col := range s.Columns() {
					s.CellText(row, col)
				}
			}
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("render blocked on a blocking provider")
	}

	v, ok := s.Render(rowOf(t, s, "/f/app.exe"))
	if !ok || v.Icon != env.provider.fallback || v.Thumbnail {
		t.Errorf("unresolved per-instance item should draw the fallback icon: %+v", v)
	}
	if v.Overlay != 0 || v.Shield != 0 {
		t.Errorf("unresolved badges should not be drawn: %+v", v)
	}
}

func TestRenderResolvesIconsAndBadges(t *testing.T) {
	env := newTestEnv(t)
	env.provider.overlay = 2
	env.provider.shield = 1
	env.provider.add("/f/app.exe", fakeEntry{perInstance: true})
	env.navigate(t, "/f")
	s := env.session

	app := rowOf(t, s, "/f/app.exe")
	text := rowOf(t, s, "/f/a.txt")
	v, _ := s.Render(text)
	if v.Icon != env.provider.classIcon {
		t.Error("per-class item should draw the class icon")
	}
	if it, _ := s.Item(text); it.ShieldState() != 0 {
		t.Error("non-executable shield should resolve to 0 at once")
	}

	s.Render(app)
	eventually(t, func() bool {
		v, _ := s.Render(rowOf(t, s, "/f/app.exe"))
		return v.Icon == env.provider.instance && v.Overlay == 2 && v.Shield == 1
	}, "icon and badges resolved")
	if n := env.provider.iconCalls.Load(); n != 1 {
		t.Errorf("icon resolved %d times", n)
	}
}

func TestRenderThumbnails(t *testing.T) {
	env := newTestEnv(t, func(env *testEnv, s *Settings) {
		s.IconSize = 48
	})
	env.navigate(t, "/f")
	s := env.session
	row := rowOf(t, s, "/f/a.txt")

	s.Render(row)
	eventually(t, func() bool {
		v, _ := s.Render(row)
		return v.Thumbnail && v.Icon == env.provider.thumb
	}, "thumbnail drawn")

	if v, _ := s.Render(rowOf(t, s, "/f/C")); v.Thumbnail {
		t.Error("folders never get thumbnails")
	}

	before := env.host.fullRedraws()
	s.Resize(96)
	it, _ := s.Item(row)
	if it.ThumbnailLoaded() || s.thumbs.Len() != 0 {
		t.Error("resize should drop thumbnails")
	}
	if env.host.fullRedraws() == before {
		t.Error("resize should redraw everything")
	}
	eventually(t, func() bool {
		v, _ := s.Render(row)
		return v.Thumbnail
	}, "thumbnail at the new size")
}

func TestRenderMissingThumbnailNotRequestedAgain(t *testing.T) {
	env := newTestEnv(t, func(env *testEnv, s *Settings) {
		env.provider.thumb = nil
		s.IconSize = 48
	})
	env.navigate(t, "/f")
	s := env.session
	row := rowOf(t, s, "/f/a.txt")
	it, _ := s.Item(row)

	s.Render(row)
	eventually(t, it.ThumbnailLoaded, "thumbnail lookup finished")
	for i := 0; i < 5; i++ {
		if v, _ := s.Render(row); v.Thumbnail || v.Icon != env.provider.classIcon {
			t.Fatalf("missing thumbnail should fall back to the icon: %+v", v)
		}
	}
	time.Sleep(20 * time.Millisecond)
	if n := env.provider.thumbCalls.Load(); n != 1 {
		t.Errorf("thumbnail looked up %d times", n)
	}
}

func TestItemDisplayedOnce(t *testing.T) {
	env := newTestEnv(t)
	env.navigate(t, "/f")
	rec := record(env.session)
	env.session.Render(0)
	env.session.Render(0)
	env.session.Render(1)
	if n := rec.count(EventItemDisplayed); n != 2 {
		t.Fatalf("displayed events = %d, want 2", n)
	}
	if _, ok := env.session.Render(42); ok {
		t.Error("render past the end should fail")
	}
}

func TestCellText(t *testing.T) {
	env := newTestEnv(t)
	env.navigate(t, "/f")
	s := env.session
	a := rowOf(t, s, "/f/a.txt")
	c := rowOf(t, s, "/f/C")

	if got := s.CellText(a, 0); got != "a.txt" {
		t.Errorf("name = %q", got)
	}
	if got := s.CellText(a, 3); got != "" {
		t.Errorf("uncached size should be blank, got %q", got)
	}
	eventually(t, func() bool { return s.CellText(a, 3) == "2 KB" }, "size column")
	eventually(t, func() bool { return s.CellText(a, 2) == "Text Document" }, "type column")

	it, _ := s.Item(a)
	want := it.Modified.Local().Format(s.dateFormat())
	eventually(t, func() bool { return s.CellText(a, 1) == want }, "date column")

	s.CellText(c, 3)
	eventually(t, func() bool { return s.values.Has("/f/C", shell.KeySize) }, "folder size resolved")
	if got := s.CellText(c, 3); got != "" {
		t.Errorf("folder size should be blank, got %q", got)
	}
	if s.CellText(a, 9) != "" || s.CellText(99, 1) != "" {
		t.Error("out of range cells should be blank")
	}
}

func TestSubitemResolvedAtMostOnce(t *testing.T) {
	env := newTestEnv(t)
	env.navigate(t, "/f")
	s := env.session
	row := rowOf(t, s, "/f/a.txt")
	w := s.workers[subitemWorker]

	s.gate.Suspend()
	tok := Token{ID: "/f/a.txt", Row: row, Key: shell.KeySize}
	for i := 0; i < 10; i++ {
		if !w.queue.TryEnqueue(tok) {
			t.Fatal("queue full")
		}
	}
	s.gate.Resume()

	eventually(t, func() bool { return w.queue.Len() == 0 && s.values.Has("/f/a.txt", shell.KeySize) }, "tokens consumed")
	time.Sleep(20 * time.Millisecond)
	if n := env.provider.propCalls.Load(); n != 1 {
		t.Fatalf("property resolved %d times, want 1", n)
	}
}

func TestSubitemSkipsInvisibleRows(t *testing.T) {
	env := newTestEnv(t)
	env.host.setVisible(func(row int) bool { return false })
	env.navigate(t, "/f")
	s := env.session
	s.CellText(rowOf(t, s, "/f/a.txt"), 3)
	eventually(t, func() bool { return s.workers[subitemWorker].pending.Len() == 0 }, "token processed")
	if env.provider.propCalls.Load() != 0 || s.values.Len() != 0 {
		t.Error("invisible row should not be resolved")
	}
}

func TestStaleTokenDropped(t *testing.T) {
	env := newTestEnv(t)
	env.navigate(t, "/f")
	s := env.session
	s.gate.Suspend()
	s.request(subitemWorker, Token{ID: "/f/gone.txt", Row: 1, Key: shell.KeySize})
	s.gate.Resume()
	eventually(t, func() bool { return s.workers[subitemWorker].pending.Len() == 0 }, "stale token processed")
	if env.provider.propCalls.Load() != 0 {
		t.Error("token for a missing identity must not resolve the row it pointed at")
	}
}

func TestScrollSweepKeepsVisibleRows(t *testing.T) {
	env := newTestEnv(t)
	for _, n := range []string{"/f/c.txt", "/f/d.txt"} {
		env.provider.add(n, fakeEntry{size: 1})
	}
	env.navigate(t, "/f")
	s := env.session
	w := s.workers[subitemWorker]

	park(t, s, subitemWorker)
	for row := 0; row < s.Len(); row++ {
		s.CellText(row, 3)
	}
	if w.queue.Len() != 5 {
		t.Fatalf("queued %d subitem tokens", w.queue.Len())
	}

	env.host.setVisible(func(row int) bool { return row < 2 })
	s.ScrollBegin()
	if !s.gate.Suspended() {
		t.Fatal("scroll should suspend the workers")
	}
	eventually(t, func() bool { return w.queue.Len() == 2 && w.pending.Len() == 2 }, "visible rows re-queued")

	s.ScrollEnd()
	eventually(t, func() bool { return s.values.Len() == 2 }, "visible rows resolved")
	time.Sleep(20 * time.Millisecond)
	if n := env.provider.propCalls.Load(); n != 2 {
		t.Errorf("resolved %d properties, want 2", n)
	}
	if s.gate.Suspended() {
		t.Error("gate should resume after the scroll delay")
	}
}

func TestScrollBeginCancelsPendingResume(t *testing.T) {
	env := newTestEnv(t, func(env *testEnv, s *Settings) {
		s.ScrollResumeDelay = 30 * time.Millisecond
	})
	s := env.session
	s.ScrollBegin()
	s.ScrollEnd()
	s.ScrollBegin()
	time.Sleep(60 * time.Millisecond)
	if !s.gate.Suspended() {
		t.Fatal("a new scroll should cancel the scheduled resume")
	}
	s.ScrollEnd()
	eventually(t, func() bool { return !s.gate.Suspended() }, "resume")
}

func TestRenderQueueFullSkipsEnqueue(t *testing.T) {
	env := newTestEnv(t, func(env *testEnv, s *Settings) {
		s.Queues.Overlay = 1
	})
	env.navigate(t, "/f")
	s := env.session
	park(t, s, overlayWorker)
	s.Render(0)
	s.Render(1)
	w := s.workers[overlayWorker]
	if w.queue.Len() != 1 || w.pending.Len() != 1 {
		t.Fatalf("queue %d pending %d", w.queue.Len(), w.pending.Len())
	}
	s.gate.Resume()
	eventually(t, func() bool {
		s.Render(1)
		it, _ := s.Item(1)
		return it.OverlayIndex() == 0
	}, "skipped row retried on a later paint")
}

func TestThumbnailOffscreenUsesCacheOnly(t *testing.T) {
	env := newTestEnv(t, func(env *testEnv, s *Settings) {
		env.provider.cached["/f/b.txt"] = true
		s.IconSize = 48
	})
	env.host.setVisible(func(row int) bool { return false })
	env.navigate(t, "/f")
	s := env.session
	w := s.workers[thumbnailWorker]

	a := rowOf(t, s, "/f/a.txt")
	s.Render(a)
	eventually(t, func() bool { return w.pending.Len() == 0 }, "off-screen token processed")
	if it, _ := s.Item(a); it.ThumbnailLoaded() {
		t.Error("an off-screen row without a cached thumbnail must stay unloaded")
	}

	b := rowOf(t, s, "/f/b.txt")
	s.Render(b)
	eventually(t, func() bool {
		v, _ := s.Render(b)
		return v.Thumbnail
	}, "cached thumbnail for an off-screen row")
	if n := env.provider.thumbCalls.Load(); n != 0 {
		t.Errorf("rendered %d thumbnails for off-screen rows", n)
	}

	env.host.setVisible(nil)
	eventually(t, func() bool {
		v, _ := s.Render(a)
		return v.Thumbnail
	}, "thumbnail once the row is on screen")
	if n := env.provider.thumbCalls.Load(); n != 1 {
		t.Errorf("rendered %d thumbnails, want 1", n)
	}
}
