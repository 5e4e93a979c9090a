package opener

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// desktopEntry is the subset of a freedesktop .desktop file needed to
// decide whether a spoken name refers to a launchable GUI application.
type desktopEntry struct {
	ID       string // file name without .desktop, as gtk-launch expects
	Name     string
	Type     string
	Terminal bool
	Hidden   bool
}

func (e desktopEntry) launchable() bool {
	return e.Type == "Application" && !e.Terminal && !e.Hidden
}

// xdgDataDirs lists $XDG_DATA_HOME then $XDG_DATA_DIRS, with the
// freedesktop defaults.
func xdgDataDirs() []string {
	home := os.Getenv("XDG_DATA_HOME")
	if home == "" {
		if h, err := os.UserHomeDir(); err == nil {
			home = filepath.Join(h, ".local", "share")
		}
	}

	dirs := os.Getenv("XDG_DATA_DIRS")
	if dirs == "" {
		dirs = "/usr/local/share:/usr/share"
	}

	var res []string
	if home != "" {
		res = append(res, home)
	}
	return append(res, filepath.SplitList(dirs)...)
}

// findDesktopApp matches name against entry ids first, then against the
// Name= key, case-insensitively. Earlier data dirs win.
func findDesktopApp(dataDirs []string, name string) (desktopEntry, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return desktopEntry{}, false
	}
	id := strings.ReplaceAll(want, " ", "-")

	var byName *desktopEntry
	for _, dir := range dataDirs {
		files, _ := filepath.Glob(filepath.Join(dir, "applications", "*.desktop"))
		for _, f := range files {
			e, err := readDesktopEntry(f)
			if err != nil || !e.launchable() {
				continue
			}
			if strings.ToLower(e.ID) == id {
				return e, true
			}
			if byName == nil && strings.ToLower(e.Name) == want {
				byName = &e
			}
		}
	}

	if byName != nil {
		return *byName, true
	}
	return desktopEntry{}, false
}

func readDesktopEntry(path string) (desktopEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return desktopEntry{}, err
	}
	defer f.Close()

	e := desktopEntry{ID: strings.TrimSuffix(filepath.Base(path), ".desktop")}
	inMain := false

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "[") {
			inMain = line == "[Desktop Entry]"
			continue
		}
		if !inMain {
			continue
		}

		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "Name":
			e.Name = strings.TrimSpace(val)
		case "Type":
			e.Type = strings.TrimSpace(val)
		case "Terminal":
			e.Terminal = strings.TrimSpace(val) == "true"
		case "NoDisplay", "Hidden":
			if strings.TrimSpace(val) == "true" {
				e.Hidden = true
			}
		}
	}

	return e, sc.Err()
}
