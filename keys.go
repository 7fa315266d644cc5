package replx

import (
	"bufio"
	"io"
	"unicode"
	"unicode/utf8"
)

// Key identifies a decoded keyboard event. Values other than KeyRune
// carry no rune payload.
type Key int

const (
	KeyRune Key = iota
	KeyEnter
	KeyBackspace
	KeyDelete
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyTab
	KeyShiftTab
	KeyCtrlA
	KeyCtrlC
	KeyCtrlD
	KeyCtrlE
	KeyCtrlK
	KeyCtrlL
	KeyCtrlU
	KeyCtrlW
	KeyAltB
	KeyAltF
)

// KeyEvent is one decoded keystroke. Rune is set only for KeyRune.
type KeyEvent struct {
	Key  Key
	Rune rune
}

// readKeys decodes raw terminal bytes into key events until the reader
// fails, then closes out. CR LF pairs collapse into a single KeyEnter.
func readKeys(r io.Reader, out chan<- KeyEvent) {
	defer close(out)
	br := bufio.NewReader(r)
	lastWasCR := false
	for {
		b, err := br.ReadByte()
		if err != nil {
			return
		}
		if lastWasCR {
			lastWasCR = false
			if b == '\n' {
				continue
			}
		}
		switch b {
		case 0x1b:
			readEscape(br, out)
		case '\r':
			out <- KeyEvent{Key: KeyEnter}
			lastWasCR = true
		case '\n':
			out <- KeyEvent{Key: KeyEnter}
		case 0x7f, 0x08:
			out <- KeyEvent{Key: KeyBackspace}
		case 0x01:
			out <- KeyEvent{Key: KeyCtrlA}
		case 0x03:
			out <- KeyEvent{Key: KeyCtrlC}
		case 0x04:
			out <- KeyEvent{Key: KeyCtrlD}
		case 0x05:
			out <- KeyEvent{Key: KeyCtrlE}
		case 0x09:
			out <- KeyEvent{Key: KeyTab}
		case 0x0b:
			out <- KeyEvent{Key: KeyCtrlK}
		case 0x0c:
			out <- KeyEvent{Key: KeyCtrlL}
		case 0x15:
			out <- KeyEvent{Key: KeyCtrlU}
		case 0x17:
			out <- KeyEvent{Key: KeyCtrlW}
		default:
			if b < 0x20 {
				continue
			}
			if b < utf8.RuneSelf {
				out <- KeyEvent{Key: KeyRune, Rune: rune(b)}
				continue
			}
			_ = br.UnreadByte()
			rn, _, err := br.ReadRune()
			if err != nil {
				return
			}
			out <- KeyEvent{Key: KeyRune, Rune: rn}
		}
	}
}

func readEscape(br *bufio.Reader, out chan<- KeyEvent) {
	b, err := br.ReadByte()
	if err != nil {
		return
	}
	switch b {
	case '[':
		readCSI(br, out)
	case 'O':
		readSS3(br, out)
	case 'b', 'B':
		out <- KeyEvent{Key: KeyAltB}
	case 'f', 'F':
		out <- KeyEvent{Key: KeyAltF}
	}
}

func readCSI(br *bufio.Reader, out chan<- KeyEvent) {
	seq := []byte{}
	for {
		b, err := br.ReadByte()
		if err != nil {
			return
		}
		seq = append(seq, b)
		if b == '~' || unicode.IsLetter(rune(b)) {
			break
		}
		if len(seq) > 8 {
			return
		}
	}
	switch string(seq) {
	case "A":
		out <- KeyEvent{Key: KeyUp}
	case "B":
		out <- KeyEvent{Key: KeyDown}
	case "C":
		out <- KeyEvent{Key: KeyRight}
	case "D":
		out <- KeyEvent{Key: KeyLeft}
	case "H":
		out <- KeyEvent{Key: KeyHome}
	case "F":
		out <- KeyEvent{Key: KeyEnd}
	case "3~":
		out <- KeyEvent{Key: KeyDelete}
	case "5~":
		out <- KeyEvent{Key: KeyPageUp}
	case "6~":
		out <- KeyEvent{Key: KeyPageDown}
	case "Z", "1;2Z":
		out <- KeyEvent{Key: KeyShiftTab}
	}
}

func readSS3(br *bufio.Reader, out chan<- KeyEvent) {
	b, err := br.ReadByte()
	if err != nil {
		return
	}
	switch b {
	case 'H':
		out <- KeyEvent{Key: KeyHome}
	case 'F':
		out <- KeyEvent{Key: KeyEnd}
	}
}
