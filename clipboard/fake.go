package clipboard

import "sync"

// Fake is an in-memory clipboard.
type Fake struct {
	mu     sync.Mutex
	text   string
	writes int
	Err    error
}

func (f *Fake) Read() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	return f.text, nil
}

func (f *Fake) Copy(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.text = text
	f.writes++
	return nil
}

// Writes reports how many successful Copy calls were made.
func (f *Fake) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}
