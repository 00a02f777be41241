package terminal

import (
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/manifoldco/promptui"
)

type PromptSelectContent struct {
	Label string
	Items []string
}

// PromptSelectInput returns the index of the chosen item.
func PromptSelectInput(pc PromptSelectContent) (int, error) {
	prompt := promptui.Select{
		Label: pc.Label,
		Items: pc.Items,
		Size:  10,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return -1, breverrors.WrapAndTrace(err)
	}
	return idx, nil
}

type PromptContent struct {
	ErrorMsg   string
	Label      string
	AllowEmpty bool
	Mask       rune
}

func PromptGetInput(pc PromptContent) (string, error) {
	validate := func(input string) error {
		if !pc.AllowEmpty && len(input) == 0 {
			return breverrors.New(pc.ErrorMsg)
		}
		return nil
	}
	prompt := promptui.Prompt{
		Label:    pc.Label,
		Validate: validate,
		Mask:     pc.Mask,
	}
	result, err := prompt.Run()
	if err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	return result, nil
}

func DisplayAuroraLogo(t *Terminal) {
	t.Vprint(t.Blue("    _                               "))
	t.Vprint(t.Blue("   /_\\ _  _ _ _ ___ _ _ __ _        "))
	t.Vprint(t.Blue("  / _ \\ || | '_/ _ \\ '_/ _` |       "))
	t.Vprint(t.Blue(" /_/ \\_\\_,_|_| \\___/_| \\__,_|  cli  "))
}
