//go:build unix

package fsx

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

func TestWriteFile_CrossDeviceKeepsOldExport(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "douban_movies.json")
	if err := os.WriteFile(out, []byte(`{"old":true}`), 0o644); err != nil {
		t.Fatal(err)
	}

	old := renameFunc
	renameFunc = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
	}
	defer func() { renameFunc = old }()

	err := WriteFile(out, []byte(`{"new":true}`))
	if err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
	if !IsCrossDevice(err) {
		t.Fatalf("期望 CrossDeviceError，实际：%T %v", err, err)
	}

	got, rerr := os.ReadFile(out)
	if rerr != nil {
		t.Fatal(rerr)
	}
	if string(got) != `{"old":true}` {
		t.Fatalf("旧导出被破坏：%s", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("临时文件未清理：%d 个条目", len(entries))
	}
}

func TestRename_PlainErrorNotCrossDevice(t *testing.T) {
	old := renameFunc
	renameFunc = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EACCES}
	}
	defer func() { renameFunc = old }()

	err := Rename("/a", "/b")
	if err == nil || IsCrossDevice(err) {
		t.Fatalf("期望普通错误，实际：%T %v", err, err)
	}
}
