package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/matheus3301/floodline/internal/lock"
	"github.com/matheus3301/floodline/internal/profile"
	"github.com/matheus3301/floodline/internal/rpc"
	"github.com/matheus3301/floodline/internal/tui/client"
	"github.com/matheus3301/floodline/internal/tui/views"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type command struct {
	ctx  context.Context
	c    *client.Client
	json bool
}

// decode unpacks a Struct response into v, exiting on any error.
func decode(resp *structpb.Struct, err error, v any) {
	if err != nil {
		fail(err)
	}
	if err := rpc.FromStruct(resp, v); err != nil {
		fail(err)
	}
}

func (c *command) status() {
	var st rpc.SyncState
	resp, err := c.c.Sync.GetSyncState(c.ctx, &emptypb.Empty{})
	decode(resp, err, &st)
	if c.json {
		outputJSON(st)
		return
	}
	fmt.Printf("Status:   %s\n", st.Status)
	fmt.Printf("Online:   %v\n", st.Online)
	fmt.Printf("Pending:  %d\n", st.Pending)
	fmt.Printf("Running:  %v\n", st.Running)
	if !st.LastSync.IsZero() {
		fmt.Printf("LastSync: %s\n", st.LastSync.Local().Format(time.RFC3339))
	}
	if st.LastError != "" {
		fmt.Printf("Error:    %s\n", st.LastError)
	}
	if len(st.Runs) > 0 {
		fmt.Println("\nRecent runs:")
		for _, r := range st.Runs {
			fmt.Printf("  %s  %-7s synced=%d retried=%d dropped=%d remaining=%d\n",
				r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Status, r.Synced, r.Retried, r.Dropped, r.Remaining)
		}
	}
}

func (c *command) enqueue(kind, data string) {
	if !json.Valid([]byte(data)) {
		fail(fmt.Errorf("payload is not valid JSON: %s", data))
	}
	req, err := rpc.ToStruct(rpc.EnqueueRequest{Type: kind, Data: json.RawMessage(data)})
	if err != nil {
		fail(err)
	}
	id, err := c.c.Sync.Enqueue(c.ctx, req)
	if err != nil {
		fail(err)
	}
	if c.json {
		outputJSON(map[string]string{"id": id.GetValue()})
		return
	}
	fmt.Println(id.GetValue())
}

func (c *command) actions() {
	var list rpc.ActionList
	resp, err := c.c.Sync.ListActions(c.ctx, &emptypb.Empty{})
	decode(resp, err, &list)
	if c.json {
		outputJSON(list.Actions)
		return
	}
	if len(list.Actions) == 0 {
		fmt.Println("Queue is empty.")
		return
	}
	for _, a := range list.Actions {
		fmt.Printf("%s  %-7s retries=%d  %s  %s\n",
			a.ID, a.Type, a.RetryCount, a.Timestamp.Local().Format("2006-01-02 15:04:05"), a.Data)
	}
}

func (c *command) flush() {
	var res rpc.FlushResult
	resp, err := c.c.Sync.Flush(c.ctx, &emptypb.Empty{})
	decode(resp, err, &res)
	if c.json {
		outputJSON(res)
		return
	}
	switch {
	case res.Coalesced:
		fmt.Println("A flush is already running.")
	case res.Skipped != "":
		fmt.Printf("Skipped: %s\n", res.Skipped)
	default:
		fmt.Printf("Status: %s\nSynced: %d  Retried: %d  Dropped: %d  Remaining: %d\n",
			res.Status, res.Synced, res.Retried, res.Dropped, res.Remaining)
	}
}

func (c *command) setOnline(online bool) {
	var res rpc.SetOnlineResult
	resp, err := c.c.Sync.SetOnline(c.ctx, wrapperspb.Bool(online))
	decode(resp, err, &res)
	if c.json {
		outputJSON(res)
		return
	}
	state := "offline"
	if res.Online {
		state = "online"
	}
	if res.Changed {
		fmt.Printf("Now %s.\n", state)
	} else {
		fmt.Printf("Already %s.\n", state)
	}
}

func (c *command) snapshotGet() {
	var snap rpc.Snapshot
	resp, err := c.c.Sync.GetSnapshot(c.ctx, &emptypb.Empty{})
	decode(resp, err, &snap)
	if snap.Absent && !c.json {
		fmt.Println("No snapshot stored.")
		return
	}
	outputJSON(snap)
}

func (c *command) snapshotSave(data string) {
	patch := &structpb.Struct{}
	if err := patch.UnmarshalJSON([]byte(data)); err != nil {
		fail(fmt.Errorf("snapshot must be a JSON object: %w", err))
	}
	var snap rpc.Snapshot
	resp, err := c.c.Sync.SaveSnapshot(c.ctx, patch)
	decode(resp, err, &snap)
	outputJSON(snap)
}

func (c *command) snapshotClear() {
	if _, err := c.c.Sync.ClearSnapshot(c.ctx, &emptypb.Empty{}); err != nil {
		fail(err)
	}
	fmt.Println("Snapshot cleared.")
}

func (c *command) settingsGet() {
	var st rpc.Settings
	resp, err := c.c.Sync.GetSettings(c.ctx, &emptypb.Empty{})
	decode(resp, err, &st)
	c.printSettings(st)
}

// settingsSave accepts key=value pairs such as autoSync=false.
func (c *command) settingsSave(pairs []string) {
	fields, err := parseSettings(pairs)
	if err != nil {
		fail(err)
	}
	req, err := structpb.NewStruct(fields)
	if err != nil {
		fail(err)
	}
	var st rpc.Settings
	resp, err := c.c.Sync.SaveSettings(c.ctx, req)
	decode(resp, err, &st)
	c.printSettings(st)
}

var settingKeys = map[string]string{
	"offlinemode": "offlineMode",
	"autosync":    "autoSync",
	"cachemaps":   "cacheMaps",
}

func parseSettings(pairs []string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		key, known := settingKeys[strings.ToLower(strings.ReplaceAll(k, "-", ""))]
		if !known {
			return nil, fmt.Errorf("unknown setting %q", k)
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("setting %s: %w", k, err)
		}
		fields[key] = b
	}
	return fields, nil
}

func (c *command) printSettings(st rpc.Settings) {
	if c.json {
		outputJSON(st)
		return
	}
	fmt.Printf("offlineMode: %v\n", st.OfflineMode)
	fmt.Printf("autoSync:    %v\n", st.AutoSync)
	fmt.Printf("cacheMaps:   %v\n", st.CacheMaps)
}

func (c *command) caches() {
	var list rpc.CacheList
	resp, err := c.c.Cache.ListCaches(c.ctx, &emptypb.Empty{})
	decode(resp, err, &list)
	if c.json {
		outputJSON(list.Caches)
		return
	}
	if len(list.Caches) == 0 {
		fmt.Println("No caches.")
		return
	}
	for _, ci := range list.Caches {
		marker := " "
		if ci.Current {
			marker = "*"
		}
		fmt.Printf("%s %-36s %d entries\n", marker, ci.Name, ci.Entries)
	}
}

func (c *command) workerState() rpc.WorkerState {
	var ws rpc.WorkerState
	resp, err := c.c.Cache.GetWorkerState(c.ctx, &emptypb.Empty{})
	decode(resp, err, &ws)
	return ws
}

func (c *command) worker() {
	ws := c.workerState()
	if c.json {
		outputJSON(ws)
		return
	}
	fmt.Printf("Phase:   %s\n", ws.Phase)
	fmt.Printf("Version: %s (active %s)\n", ws.Version, ws.ActiveVersion)
	fmt.Printf("Caches:  %s\n", strings.Join(ws.Names, ", "))
	fmt.Printf("Gateway: %s\n", views.GatewayURL(ws.Gateway))
}

func (c *command) refresh() {
	if _, err := c.c.Cache.RefreshManifest(c.ctx, &emptypb.Empty{}); err != nil {
		fail(err)
	}
	fmt.Println("Manifest refreshed.")
}

func (c *command) skipWaiting() {
	if _, err := c.c.Cache.SkipWaiting(c.ctx, &emptypb.Empty{}); err != nil {
		fail(err)
	}
	fmt.Println("Worker activated.")
}

func (c *command) push(payload string) {
	resp, err := c.c.Cache.Push(c.ctx, wrapperspb.Bytes([]byte(payload)))
	if err != nil {
		fail(err)
	}
	var n map[string]any
	decode(resp, nil, &n)
	outputJSON(n)
}

func (c *command) click(action, url string) {
	data, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		fail(err)
	}
	req, err := rpc.ToStruct(rpc.NotificationClick{Action: action, Data: data})
	if err != nil {
		fail(err)
	}
	target, err := c.c.Cache.ClickNotification(c.ctx, req)
	if err != nil {
		fail(err)
	}
	if target.GetValue() == "" {
		fmt.Println("Dismissed.")
		return
	}
	fmt.Println(target.GetValue())
}

func (c *command) qr() {
	url := views.GatewayURL(c.workerState().Gateway)
	if url == "" {
		fail(fmt.Errorf("gateway address unknown"))
	}
	fmt.Println(url)
	fmt.Print(views.RenderQR(url))
}

func cmdWatch(c *client.Client, prefix string, jsonOut bool) {
	stream, err := c.Sync.WatchEvents(context.Background(), wrapperspb.String(prefix))
	if err != nil {
		fail(err)
	}
	for {
		msg, err := stream.Recv()
		if err != nil {
			fail(err)
		}
		var evt rpc.Event
		if err := rpc.FromStruct(msg, &evt); err != nil {
			fmt.Fprintf(os.Stderr, "decode event: %v\n", err)
			continue
		}
		if jsonOut {
			line, _ := json.Marshal(evt)
			fmt.Println(string(line))
			continue
		}
		fmt.Printf("%s  %-26s %s\n", evt.OccurredAt.Local().Format("15:04:05.000"), evt.Kind, evt.Payload)
	}
}

// inspectLock returns the PID holding the profile lock, if any.
func inspectLock(name string) (int, bool) {
	h, ok := lock.Inspect(profile.Dir(name))
	if !ok || h.PID == 0 {
		return 0, false
	}
	return h.PID, true
}
