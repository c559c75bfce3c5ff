//go:build linux

package login

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Path is the XDG autostart entry.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "autostart", "hark.desktop")
}

func Enabled() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Enable writes an autostart entry that runs exe with args. HARK_*
// variables of the current environment are carried over through env(1).
func Enable(exe string, args []string) error {
	var argv []string
	if env := harkEnv(); len(env) > 0 {
		argv = append([]string{"env"}, env...)
	}
	argv = append(argv, exe)
	argv = append(argv, args...)

	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = quoteExec(a)
	}

	entry := fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=hark
Comment=Push-to-talk dictation
Exec=%s
Terminal=false
X-GNOME-Autostart-enabled=true
`, strings.Join(quoted, " "))

	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create autostart dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(entry), 0600); err != nil {
		return fmt.Errorf("write autostart entry: %w", err)
	}
	return nil
}

func Disable() error {
	if err := os.Remove(Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove autostart entry: %w", err)
	}
	return nil
}

// quoteExec quotes an argument for the Exec key of a desktop entry.
func quoteExec(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\"'\\$`") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")
	return `"` + r.Replace(s) + `"`
}
