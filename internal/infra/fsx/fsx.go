// Package fsx 提供原子文件写入：临时文件 + rename，读者要么看到旧内容，要么看到新内容。
package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// 测试通过替换它来模拟 EXDEV 等错误。
var renameFunc = os.Rename

// CrossDeviceError 表示跨文件系统（EXDEV）导致的 rename 失败。
// 临时文件与目标同目录时不应出现；出现说明目标目录是挂载点之类的特殊路径。
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("跨文件系统 rename 失败（EXDEV）：%q -> %q：%v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename 封装 os.Rename，并把 EXDEV 显式标记为 CrossDeviceError。
func Rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// WriteFile 原子写入 path（覆盖同名文件），父目录不存在时自动创建。
func WriteFile(path string, data []byte) error {
	path = filepath.Clean(path)
	return WriteFileAtomicReplace(filepath.Dir(path), filepath.Base(path), data)
}

// WriteFileAtomicReplace 在 dir 下原子写入 name 并覆盖同名文件（Windows 上为 best-effort）。
//
// 临时文件与目标同目录，以保证 rename 的原子性；对临时文件做 Sync，目录 Sync 为 best-effort。
func WriteFileAtomicReplace(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if fi, err := os.Lstat(filepath.Join(dir, name)); err == nil && fi.IsDir() {
		return fmt.Errorf("目标是目录：%q", filepath.Join(dir, name))
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := writeAll(tmp, data); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := Rename(tmpName, filepath.Join(dir, name)); err != nil {
		return err
	}
	_ = syncDirBestEffort(dir)
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func syncDirBestEffort(dir string) error {
	// Windows 上目录 Sync 不可靠，直接跳过。
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
