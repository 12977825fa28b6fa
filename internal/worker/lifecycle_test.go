package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFreshInstallActivatesImmediately(t *testing.T) {
	env := newTestEnv(t, "v1", Options{Precache: []string{"/"}})
	env.transport.set(testOrigin+"/", "shell")
	l := NewLifecycle(env.manager, false, time.Hour, env.bus, nil)

	l.Start(context.Background())
	defer l.Stop()
	waitPhase(t, l, PhaseActivated)

	if v := env.manager.ActiveVersion(); v != "v1" {
		t.Errorf("active version = %q", v)
	}
}

func TestUpgradeWaitsForSkipWaiting(t *testing.T) {
	env := newTestEnv(t, "v2", Options{Precache: []string{"/"}})
	env.transport.set(testOrigin+"/", "shell-v2")
	_ = env.versions.PutValue(ActiveVersionKey, "v1")
	env.seed(t, "flood-alert-dynamic-v1", testOrigin+"/icons/a.png", "old")
	l := NewLifecycle(env.manager, false, time.Hour, env.bus, nil)

	l.Start(context.Background())
	defer l.Stop()
	waitPhase(t, l, PhaseInstalled)
	time.Sleep(20 * time.Millisecond)
	if p := l.Phase(); p != PhaseInstalled {
		t.Fatalf("phase = %q, want installed until skip-waiting", p)
	}
	if has, _ := env.storage.Has("flood-alert-dynamic-v1"); !has {
		t.Fatal("old generation deleted before activation")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Send(ctx, ControlSkipWaiting); err != nil {
		t.Fatal(err)
	}
	if p := l.Phase(); p != PhaseActivated {
		t.Errorf("phase = %q, want activated", p)
	}
	if has, _ := env.storage.Has("flood-alert-dynamic-v1"); has {
		t.Error("old generation survived activation")
	}
}

func TestSkipWaitingConfigActivatesUpgrade(t *testing.T) {
	env := newTestEnv(t, "v2", Options{Precache: []string{"/"}})
	env.transport.set(testOrigin+"/", "shell")
	_ = env.versions.PutValue(ActiveVersionKey, "v1")
	l := NewLifecycle(env.manager, true, time.Hour, env.bus, nil)

	l.Start(context.Background())
	defer l.Stop()
	waitPhase(t, l, PhaseActivated)
}

func TestInstallRetriesUntilAssetsAvailable(t *testing.T) {
	env := newTestEnv(t, "v1", Options{Precache: []string{"/"}})
	env.transport.offline.Store(true)
	l := NewLifecycle(env.manager, false, 10*time.Millisecond, env.bus, nil)

	l.Start(context.Background())
	defer l.Stop()
	time.Sleep(30 * time.Millisecond)
	if p := l.Phase(); p != PhaseInstalling {
		t.Fatalf("phase = %q, want installing while assets fail", p)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Send(ctx, ControlRefreshManifest); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("refresh before install err = %v, want ErrNotInstalled", err)
	}

	env.transport.set(testOrigin+"/", "shell")
	env.transport.offline.Store(false)
	waitPhase(t, l, PhaseActivated)
}

func TestRequestsPassThroughBeforeActivation(t *testing.T) {
	env := newTestEnv(t, "v1", Options{})
	url := testOrigin + "/icons/a.png"
	env.seed(t, env.manager.Names().Dynamic, url, "cached")
	env.transport.set(url, "network")
	l := NewLifecycle(env.manager, false, time.Hour, env.bus, nil)

	resp, err := l.RoundTrip(getReq(url))
	if err != nil {
		t.Fatal(err)
	}
	if got := readBody(t, resp); got != "network" {
		t.Errorf("body = %q, want network before activation", got)
	}
}

func TestRefreshManifestRewritesStatic(t *testing.T) {
	env := newTestEnv(t, "v1", Options{Precache: []string{"/"}})
	env.transport.set(testOrigin+"/", "shell-1")
	refreshed, unsub := env.bus.Subscribe("worker.manifest_refreshed", 1)
	defer unsub()
	l := NewLifecycle(env.manager, false, time.Hour, env.bus, nil)
	l.Start(context.Background())
	defer l.Stop()
	waitPhase(t, l, PhaseActivated)

	env.transport.set(testOrigin+"/", "shell-2")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Send(ctx, ControlRefreshManifest); err != nil {
		t.Fatal(err)
	}
	static, _ := env.storage.Open(env.manager.Names().Static)
	if r, _ := static.Match(getReq(testOrigin + "/")); r == nil || string(r.Body) != "shell-2" {
		t.Errorf("static root = %v, want shell-2", r)
	}
	select {
	case <-refreshed:
	default:
		t.Error("no manifest_refreshed event")
	}
}

func TestSendAfterStop(t *testing.T) {
	env := newTestEnv(t, "v1", Options{})
	l := NewLifecycle(env.manager, false, time.Hour, env.bus, nil)
	l.Start(context.Background())
	l.Stop()

	if err := l.Send(context.Background(), ControlSkipWaiting); !errors.Is(err, ErrStopped) {
		t.Errorf("err = %v, want ErrStopped", err)
	}
}
