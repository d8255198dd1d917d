package system

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/ivlev/recipetool/internal/params"
)

// cpuCount reports the logical processors of the host.
var cpuCount = func() (int, error) {
	return cpu.Counts(true)
}

// InitResourceLimits raises the open file limit so that many recipes can
// be processed at once.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	if rLimit.Cur >= 2048 {
		return
	}
	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	}
}

// Processors resolves a worker count: "max", "half" or a number between
// 1 and the logical processor count.
func Processors(value string) (int, error) {
	available, err := cpuCount()
	if err != nil || available < 1 {
		log.Printf("[!] Не удалось определить число процессоров: %v", err)
		available = runtime.NumCPU()
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "max":
		return available, nil
	case "half":
		if available < 2 {
			return 1, nil
		}
		return available / 2, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > available {
		return 0, fmt.Errorf("invalid cpu count: %s; processors available = %d", value, available)
	}
	return n, nil
}

// Verify reports whether path holds a JSON object whose keys are all
// recipe parameters of the given version. Unreadable files are errors.
func Verify(path string, version int) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	var data any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return false, fmt.Errorf("%s: invalid JSON: %w", path, err)
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return false, nil
	}
	for key := range obj {
		if !params.IsKey(key, version) {
			return false, nil
		}
	}
	return true, nil
}

// Search expands files and directories into verified recipe files.
// Directories are walked for .json files; files that fail verification
// are skipped.
func Search(paths []string, version int) ([]string, error) {
	var found []string
	for _, path := range paths {
		fi, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("not a valid file or directory : %s", path)
		}

		candidates := []string{path}
		if fi.IsDir() {
			candidates, err = walkJSON(path)
			if err != nil {
				return nil, err
			}
		}

		for _, c := range candidates {
			ok, err := Verify(c, version)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			abs, err := filepath.Abs(c)
			if err != nil {
				return nil, err
			}
			found = append(found, abs)
		}
	}
	return found, nil
}

func walkJSON(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// FindLatestRecipe returns the most recently modified verified recipe in dir
func FindLatestRecipe(dir string, version int) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(strings.ToLower(f.Name()), ".json") {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dir, f.Name())
		if ok, err := Verify(path, version); err != nil || !ok {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = path
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено файлов рецептов", dir)
	}

	return latestFile, nil
}
