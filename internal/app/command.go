package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Command is an input event from a control surface.
type Command struct {
	Cmd    string `mapstructure:"cmd" json:"cmd"`
	Choice string `mapstructure:"choice" json:"choice,omitempty"`
	Index  int    `mapstructure:"index" json:"index,omitempty"`
}

const (
	CmdNext   = "next"
	CmdPrev   = "prev"
	CmdChoose = "choose"
	CmdPause  = "pause"
	CmdResume = "resume"
	CmdToggle = "toggle"
	CmdExit   = "exit"
	CmdJump   = "jump"
)

var ErrUnknownCommand = errors.New("unknown command")

// DecodeCommand converts a loosely typed message (decoded JSON, form values)
// into a Command. Numeric strings are accepted for index.
func DecodeCommand(raw map[string]any) (Command, error) {
	var cmd Command
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cmd,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Command{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	cmd.Cmd = strings.ToLower(strings.TrimSpace(cmd.Cmd))
	if cmd.Cmd == "" {
		return Command{}, fmt.Errorf("%w: missing cmd", ErrUnknownCommand)
	}
	return cmd, nil
}
