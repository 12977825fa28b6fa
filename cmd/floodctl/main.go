package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/matheus3301/floodline/internal/config"
	"github.com/matheus3301/floodline/internal/profile"
	"github.com/matheus3301/floodline/internal/tui/client"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fail(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Commands that do not need the daemon.
	switch args[0] {
	case "profiles":
		cmdProfiles(*jsonFlag)
		return
	case "config":
		cmdConfig(args[1:])
		return
	}

	socketPath := profile.SocketPath(profileName)
	c, err := client.New(socketPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot connect to daemon for profile %q: %v\n", profileName, err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	if args[0] == "watch" {
		prefix := ""
		if len(args) > 1 {
			prefix = args[1]
		}
		cmdWatch(c, prefix, *jsonFlag)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := &command{ctx: ctx, c: c, json: *jsonFlag}
	switch args[0] {
	case "status":
		cmd.status()
	case "enqueue":
		if len(args) < 2 {
			usageError("enqueue <report|update|delete> [json]")
		}
		data := "{}"
		if len(args) > 2 {
			data = args[2]
		}
		cmd.enqueue(args[1], data)
	case "actions":
		cmd.actions()
	case "flush":
		cmd.flush()
	case "online":
		cmd.setOnline(true)
	case "offline":
		cmd.setOnline(false)
	case "snapshot":
		sub := "get"
		if len(args) > 1 {
			sub = args[1]
		}
		switch sub {
		case "get":
			cmd.snapshotGet()
		case "save":
			if len(args) < 3 {
				usageError("snapshot save <json>")
			}
			cmd.snapshotSave(args[2])
		case "clear":
			cmd.snapshotClear()
		default:
			usageError("snapshot <get|save|clear>")
		}
	case "settings":
		if len(args) > 1 {
			cmd.settingsSave(args[1:])
		} else {
			cmd.settingsGet()
		}
	case "caches":
		cmd.caches()
	case "worker":
		cmd.worker()
	case "refresh":
		cmd.refresh()
	case "skip-waiting":
		cmd.skipWaiting()
	case "push":
		payload := ""
		if len(args) > 1 {
			payload = args[1]
		}
		cmd.push(payload)
	case "click":
		if len(args) < 2 {
			usageError("click <view|dismiss|\"\"> [url]")
		}
		url := ""
		if len(args) > 2 {
			url = args[2]
		}
		cmd.click(args[1], url)
	case "gateway-qr":
		cmd.qr()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: floodctl [--profile <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                      Show sync status and recent runs")
	fmt.Fprintln(os.Stderr, "  enqueue <type> [json]       Queue a report, update or delete")
	fmt.Fprintln(os.Stderr, "  actions                     List queued actions")
	fmt.Fprintln(os.Stderr, "  flush                       Sync the queue now")
	fmt.Fprintln(os.Stderr, "  online | offline            Override connectivity")
	fmt.Fprintln(os.Stderr, "  snapshot [get|save|clear]   Manage the offline snapshot")
	fmt.Fprintln(os.Stderr, "  settings [key=value ...]    Show or change offline settings")
	fmt.Fprintln(os.Stderr, "  caches                      List worker caches")
	fmt.Fprintln(os.Stderr, "  worker                      Show worker lifecycle state")
	fmt.Fprintln(os.Stderr, "  refresh                     Re-fetch the precache manifest")
	fmt.Fprintln(os.Stderr, "  skip-waiting                Activate a waiting worker")
	fmt.Fprintln(os.Stderr, "  push [payload]              Deliver a test push")
	fmt.Fprintln(os.Stderr, "  click <action> [url]        Simulate a notification click")
	fmt.Fprintln(os.Stderr, "  gateway-qr                  Print the gateway URL as a QR code")
	fmt.Fprintln(os.Stderr, "  watch [prefix]              Stream daemon events")
	fmt.Fprintln(os.Stderr, "  profiles                    List known profiles")
	fmt.Fprintln(os.Stderr, "  config init                 Write the default config.toml")
}

func cmdProfiles(jsonOut bool) {
	names, err := profile.List()
	if err != nil {
		fail(err)
	}
	type entry struct {
		Name    string `json:"name"`
		Path    string `json:"path"`
		Running bool   `json:"running"`
		PID     int    `json:"pid,omitempty"`
	}
	entries := make([]entry, 0, len(names))
	for _, name := range names {
		e := entry{Name: name, Path: profile.Dir(name)}
		if h, ok := inspectLock(name); ok {
			e.Running, e.PID = true, h
		}
		entries = append(entries, e)
	}
	if jsonOut {
		outputJSON(entries)
		return
	}
	if len(entries) == 0 {
		fmt.Println("No profiles found.")
		return
	}
	for _, e := range entries {
		running := "stopped"
		if e.Running {
			running = fmt.Sprintf("running, pid %d", e.PID)
		}
		fmt.Printf("%-20s %s (%s)\n", e.Name, e.Path, running)
	}
}

func cmdConfig(args []string) {
	if len(args) == 0 || args[0] != "init" {
		usageError("config init")
	}
	path := profile.ConfigPath()
	if _, err := os.Stat(path); err == nil {
		fail(fmt.Errorf("%s already exists", path))
	}
	if err := config.Save(path, config.Default()); err != nil {
		fail(err)
	}
	fmt.Printf("Wrote %s\n", path)
}

func usageError(usage string) {
	fmt.Fprintln(os.Stderr, "usage: floodctl "+usage)
	os.Exit(1)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
