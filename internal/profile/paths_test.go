package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDirDefaultsToHome(t *testing.T) {
	t.Setenv(HomeEnv, "")
	home, _ := os.UserHomeDir()
	got := Dir("main")
	want := filepath.Join(home, ".floodline", "profiles", "main")
	if got != want {
		t.Errorf("Dir(main) = %q, want %q", got, want)
	}
}

func TestDirHonorsHomeEnv(t *testing.T) {
	base := t.TempDir()
	t.Setenv(HomeEnv, base)
	if got, want := Dir("x"), filepath.Join(base, "profiles", "x"); got != want {
		t.Errorf("Dir(x) = %q, want %q", got, want)
	}
	if got, want := ConfigPath(), filepath.Join(base, "config.toml"); got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}
}

func TestSocketPath(t *testing.T) {
	got := SocketPath("test")
	if !strings.HasSuffix(got, filepath.Join("profiles", "test", "floodd.sock")) {
		t.Errorf("SocketPath(test) = %q, want suffix profiles/test/floodd.sock", got)
	}
}

func TestLockPath(t *testing.T) {
	got := LockPath("test")
	if !strings.HasSuffix(got, filepath.Join("profiles", "test", "LOCK")) {
		t.Errorf("LockPath(test) = %q, want suffix profiles/test/LOCK", got)
	}
}

func TestEnsureDirAndList(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())

	if err := EnsureDir("alpha"); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDir("beta"); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(LogDir("alpha"))
	if err != nil {
		t.Fatalf("log dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("log dir is not a directory")
	}

	names, err := List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("List() = %v, want [alpha beta]", names)
	}
}

func TestListWithoutProfiles(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())
	names, err := List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 {
		t.Errorf("List() = %v, want empty", names)
	}
}
