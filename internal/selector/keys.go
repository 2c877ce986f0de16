package selector

// KeyKind classifies a keystroke for HandleKey.
type KeyKind int

const (
	KeyRune KeyKind = iota // printable character, see Key.Rune
	KeyUp
	KeyDown
	KeyPageUp
	KeyPageDown
	KeySpace
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyInterrupt
)

// Key is a single decoded keystroke.
type Key struct {
	Kind KeyKind
	Rune rune
}

// Rune returns a Key for a printable character.
func Rune(r rune) Key {
	return Key{Kind: KeyRune, Rune: r}
}

// Outcome tells the input loop whether to keep reading keys.
type Outcome int

const (
	Continue Outcome = iota
	Confirm
	Cancel
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "Continue"
	case Confirm:
		return "Confirm"
	case Cancel:
		return "Cancel"
	}
	return "Unknown"
}

// HandleKey applies one keystroke to the state. Interrupt cancels in either
// mode; every other key is interpreted according to the current mode.
func (s *State) HandleKey(k Key) Outcome {
	if k.Kind == KeyInterrupt {
		return Cancel
	}
	if s.mode == SearchEntry {
		return s.handleSearchKey(k)
	}
	return s.handleBrowseKey(k)
}

func (s *State) handleBrowseKey(k Key) Outcome {
	switch k.Kind {
	case KeyUp:
		s.MoveUp()
	case KeyDown:
		s.MoveDown()
	case KeyPageUp:
		s.PageUp()
	case KeyPageDown:
		s.PageDown()
	case KeySpace:
		s.Toggle()
	case KeyEscape:
		s.ClearSearch()
	case KeyEnter:
		return Confirm
	case KeyRune:
		switch k.Rune {
		case 'k':
			s.MoveUp()
		case 'j':
			s.MoveDown()
		case ' ':
			s.Toggle()
		case 'a':
			s.SelectAllVisible()
		case 'n', 'd':
			s.DeselectAllVisible()
		case 't':
			s.ToggleAllVisible()
		case '/':
			s.EnterSearch()
		case 'q':
			return Cancel
		}
	}
	return Continue
}

func (s *State) handleSearchKey(k Key) Outcome {
	switch k.Kind {
	case KeyEnter:
		s.ExitSearch(false)
	case KeyEscape:
		s.ExitSearch(true)
	case KeyBackspace:
		s.Backspace()
	case KeySpace:
		s.AppendSearch(' ')
	case KeyRune:
		if k.Rune >= ' ' {
			s.AppendSearch(k.Rune)
		}
	}
	return Continue
}
