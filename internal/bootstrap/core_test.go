package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yuqie6/GitQuest/internal/cache"
	"github.com/yuqie6/GitQuest/internal/pkg/config"
	"github.com/yuqie6/GitQuest/internal/service"
)

func writeTestConfig(t *testing.T) (cfgPath, sourceDir string) {
	t.Helper()
	dir := t.TempDir()
	sourceDir = filepath.Join(dir, "activity")
	if err := os.MkdirAll(sourceDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg := config.Default()
	cfg.Storage.DBPath = filepath.Join(dir, "gitquest.db")
	cfg.Source.Dir = sourceDir
	cfg.Sync.Users = []string{"alice"}
	cfgPath = filepath.Join(dir, "config.yaml")
	if err := config.WriteFile(cfgPath, cfg); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath, sourceDir
}

func TestNewCoreSyncsFromFileSource(t *testing.T) {
	cfgPath, sourceDir := writeTestConfig(t)
	today := time.Now().Format("2006-01-02")
	body := fmt.Sprintf(`{"counters":{"commits":5,"prs":1},"calendar":[{"date":%q,"count":3}]}`, today)
	if err := os.WriteFile(filepath.Join(sourceDir, "alice.json"), []byte(body), 0o644); err != nil {
		t.Fatalf("write activity: %v", err)
	}

	core, err := NewCore(cfgPath)
	if err != nil {
		t.Fatalf("NewCore: %v", err)
	}
	defer core.Close()

	if core.DB.SafeMode {
		t.Fatalf("unexpected safe mode: %s", core.DB.MigrationError)
	}
	if _, ok := core.Cache.(*cache.LRUStore); ok {
		t.Fatalf("cli cache store should bypass LRU front")
	}

	res, err := core.Services.Sync.Sync(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Outcome != service.OutcomeFresh {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if res.Dashboard.Streak.Current != 1 || res.Dashboard.Counters.Commits != 5 {
		t.Fatalf("dashboard = %+v", res.Dashboard)
	}

	// 数据源失效后回落到上一次成功拉取的数据
	if err := os.Remove(filepath.Join(sourceDir, "alice.json")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	res, err = core.Services.Sync.Sync(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Sync after removal: %v", err)
	}
	if res.Outcome != service.OutcomeCached || !res.Dashboard.FromCache {
		t.Fatalf("outcome = %s", res.Outcome)
	}
}

func TestCLISeesCacheWrittenByAgent(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)

	agent, err := newCore(cfgPath, true)
	if err != nil {
		t.Fatalf("agent core: %v", err)
	}
	defer agent.Close()
	if _, ok := agent.Cache.(*cache.LRUStore); !ok {
		t.Fatalf("agent cache store = %T, want LRU front", agent.Cache)
	}

	cli, err := NewCore(cfgPath)
	if err != nil {
		t.Fatalf("cli core: %v", err)
	}
	defer cli.Close()

	ctx := context.Background()
	key := cache.Key{Type: "activity", UserID: "alice"}
	if err := cli.Cache.Put(ctx, cache.Entry{Key: key, Data: []byte(`{"v":1}`), CachedAt: time.Now()}); err != nil {
		t.Fatalf("put v1: %v", err)
	}
	if _, err := agent.Cache.Get(ctx, key); err != nil {
		t.Fatalf("agent get v1: %v", err)
	}
	if _, err := cli.Cache.Get(ctx, key); err != nil {
		t.Fatalf("cli get v1: %v", err)
	}
	// Agent 写入新值后，CLI 下一次读取必须拿到
	if err := agent.Cache.Put(ctx, cache.Entry{Key: key, Data: []byte(`{"v":2}`), CachedAt: time.Now()}); err != nil {
		t.Fatalf("put v2: %v", err)
	}
	got, err := cli.Cache.Get(ctx, key)
	if err != nil || got == nil {
		t.Fatalf("cli get v2: %v", err)
	}
	if string(got.Data) != `{"v":2}` {
		t.Fatalf("cli read %s, want v2", got.Data)
	}
}

func TestRequireWritable(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)
	core, err := NewCore(cfgPath)
	if err != nil {
		t.Fatalf("NewCore: %v", err)
	}
	defer core.Close()

	if err := core.RequireWritable(); err != nil {
		t.Fatalf("fresh db should be writable: %v", err)
	}
	core.DB.SafeMode = true
	if err := core.RequireWritable(); err == nil {
		t.Fatalf("safe mode must reject writes")
	}
}
