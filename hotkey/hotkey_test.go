package hotkey

import "testing"

func TestParse(t *testing.T) {
	for _, tt := range []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "Ctrl+Shift+Space", false},
		{"ctrl+shift+space", "Ctrl+Shift+Space", false},
		{"Cmd + Option + d", "Super+Alt+D", false},
		{"ctrl+ctrl+h", "Ctrl+H", false},
		{"space", "", true},
		{"ctrl+f5", "", true},
		{"hyper+space", "", true},
	} {
		c, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) err = %v", tt.in, err)
			continue
		}
		if err == nil && c.String() != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.in, c, tt.want)
		}
	}
}

func TestComboHas(t *testing.T) {
	c, _ := Parse("ctrl+alt+k")
	if !c.Has(Ctrl) || !c.Has(Alt) || c.Has(Shift) {
		t.Errorf("mods = %v", c.Mods)
	}
}
