package ebitenhost

import (
	"maps"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/ByLCY/parley/dialogue"
)

// TurboAction toggles turbo while a dialogue plays.
const TurboAction = "turbo"

// DefaultKeys binds the confirm and turbo actions.
func DefaultKeys() map[string][]ebiten.Key {
	return map[string][]ebiten.Key{
		dialogue.DefaultConfirmAction: {ebiten.KeyEnter, ebiten.KeySpace, ebiten.KeyZ},
		TurboAction:                   {ebiten.KeyTab},
	}
}

// KeyInput maps named actions to keys and reports presses that started this tick.
// A left click also counts as the confirm action.
type KeyInput struct {
	Keys    map[string][]ebiten.Key
	Confirm string

	keyJustPressed   func(ebiten.Key) bool
	mouseJustPressed func(ebiten.MouseButton) bool
}

var _ dialogue.Input = (*KeyInput)(nil)

// NewKeyInput reads ebiten's input state through inpututil.
func NewKeyInput(keys map[string][]ebiten.Key, confirm string) *KeyInput {
	if keys == nil {
		keys = DefaultKeys()
	} else {
		keys = maps.Clone(keys)
	}
	if confirm == "" {
		confirm = dialogue.DefaultConfirmAction
	}
	if _, ok := keys[confirm]; !ok {
		keys[confirm] = DefaultKeys()[dialogue.DefaultConfirmAction]
	}
	return &KeyInput{
		Keys:             keys,
		Confirm:          confirm,
		keyJustPressed:   inpututil.IsKeyJustPressed,
		mouseJustPressed: inpututil.IsMouseButtonJustPressed,
	}
}

func (in *KeyInput) IsActionJustPressed(action string) bool {
	for _, k := range in.Keys[action] {
		if in.keyJustPressed(k) {
			return true
		}
	}
	return action == in.Confirm && in.mouseJustPressed != nil && in.mouseJustPressed(ebiten.MouseButtonLeft)
}
