package audio

import (
	"strings"

	"github.com/tauraamui/xerror"
)

type Mode string

const (
	Mute       Mode = "mute"
	Original   Mode = "original"
	WhiteNoise Mode = Mode(White)
	BrownNoise Mode = Mode(Brown)
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Mute, Original, WhiteNoise, BrownNoise:
		return m, nil
	case "":
		return Mute, nil
	default:
		return Mute, xerror.Errorf("unknown audio mode %q", s)
	}
}

// Noise reports which kind of noise a mode synthesizes, if any.
func (m Mode) Noise() (Kind, bool) {
	switch m {
	case WhiteNoise:
		return White, true
	case BrownNoise:
		return Brown, true
	}
	return "", false
}
