package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/John-Robertt/doubanhot/internal/infra/fsx"
)

// FileStore 把条目写到 <Dir>/<sha256(key)>.json，进程重启后缓存仍然可用。
//
// 约束：写入走 fsx.WriteFileAtomicReplace，读者不会看到半截文件。
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) FileStore {
	return FileStore{Dir: filepath.Clean(strings.TrimSpace(dir))}
}

// Path 返回 key 对应的文件路径；key 经过哈希，避免路径穿越。
func (s FileStore) Path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.Dir, hex.EncodeToString(sum[:])+".json")
}

func (s FileStore) Load(_ context.Context, key string) (Entry, bool, error) {
	b, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

func (s FileStore) Save(_ context.Context, key string, e Entry, _ time.Duration) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomicReplace(s.Dir, filepath.Base(s.Path(key)), b)
}
