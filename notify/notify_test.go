package notify

import (
	"strings"
	"testing"
)

func TestMulti(t *testing.T) {
	var a, b []string
	m := Multi{
		Func{OnInfo: func(s string) { a = append(a, "i:"+s) }, OnError: func(s string) { a = append(a, "e:"+s) }},
		Func{OnError: func(s string) { b = append(b, "e:"+s) }},
		Log{},
	}
	m.Info("hello")
	m.Error("boom")

	if got := strings.Join(a, ","); got != "i:hello,e:boom" {
		t.Errorf("got %q", got)
	}
	if got := strings.Join(b, ","); got != "e:boom" {
		t.Errorf("got %q", got)
	}
}
