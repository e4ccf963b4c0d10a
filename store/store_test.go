package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ceyewan/marketdata/xerrors"
)

// newTestStores 构造 memory 与 file 两个驱动的实例，redis 驱动需要外部服务，
// 由集成测试覆盖
func newTestStores(t *testing.T) map[string]Store {
	t.Helper()

	mem, err := New(&Config{Driver: DriverMemory})
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}

	file, err := New(&Config{Driver: DriverFile, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	return map[string]Store{"memory": mem, "file": file}
}

// TestSetGetRemove 测试基本读写删语义
func TestSetGetRemove(t *testing.T) {
	ctx := context.Background()

	for name, st := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			defer st.Close()

			if _, err := st.Get(ctx, "sectors"); !xerrors.Is(err, ErrNotFound) {
				t.Fatalf("Get on empty store should return ErrNotFound, got: %v", err)
			}

			if err := st.Set(ctx, "sectors", `{"a":1}`); err != nil {
				t.Fatalf("Set: %v", err)
			}
			val, err := st.Get(ctx, "sectors")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if val != `{"a":1}` {
				t.Errorf("Get = %q, want %q", val, `{"a":1}`)
			}

			// Set 是替换语义
			if err := st.Set(ctx, "sectors", `{"a":2}`); err != nil {
				t.Fatalf("Set replace: %v", err)
			}
			val, _ = st.Get(ctx, "sectors")
			if val != `{"a":2}` {
				t.Errorf("Get after replace = %q, want %q", val, `{"a":2}`)
			}

			if err := st.Remove(ctx, "sectors"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if _, err := st.Get(ctx, "sectors"); !xerrors.Is(err, ErrNotFound) {
				t.Errorf("Get after Remove should return ErrNotFound, got: %v", err)
			}

			// 删除不存在的 key 不算错误
			if err := st.Remove(ctx, "missing"); err != nil {
				t.Errorf("Remove missing key should not fail, got: %v", err)
			}
		})
	}
}

// TestFileStoreSurvivesReopen 测试 file 驱动跨实例存活
func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st1, err := New(&Config{Driver: DriverFile, Dir: dir})
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := st1.Set(ctx, "sectors", "persisted"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	st1.Close()

	st2, err := New(&Config{Driver: DriverFile, Dir: dir})
	if err != nil {
		t.Fatalf("reopen file store: %v", err)
	}
	defer st2.Close()

	val, err := st2.Get(ctx, "sectors")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if val != "persisted" {
		t.Errorf("Get = %q, want persisted", val)
	}
}

// TestFileStoreKeyEncoding 测试特殊字符 key 不会逃出存储目录
func TestFileStoreKeyEncoding(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, err := New(&Config{Driver: DriverFile, Dir: dir})
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	defer st.Close()

	key := "../escape/attempt"
	if err := st.Set(ctx, key, "value"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), "..") {
			t.Errorf("encoded file name should not contain path separators: %s", e.Name())
		}
		if filepath.Dir(filepath.Join(dir, e.Name())) != dir {
			t.Errorf("file escaped store dir: %s", e.Name())
		}
	}

	val, err := st.Get(ctx, key)
	if err != nil || val != "value" {
		t.Errorf("Get(%q) = %q, %v; want value, nil", key, val, err)
	}
}

// TestNewValidation 测试工厂函数校验
func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr error
	}{
		{"nil config", nil, ErrConfigNil},
		{"unknown driver", &Config{Driver: "etcd"}, ErrUnknownDriver},
		{"redis without connector", &Config{Driver: DriverRedis}, ErrRedisConnRequired},
		{"file without dir", &Config{Driver: DriverFile}, ErrDirRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if !xerrors.Is(err, tt.wantErr) {
				t.Errorf("New error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
