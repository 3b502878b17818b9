//go:build !(386 || arm || mips || mipsle)

package translate

import (
	"github.com/wippyai/assetlayout"
	"github.com/wippyai/assetlayout/handle"
)

// NativeMode is the address mode Native selects on this platform.
const NativeMode = assetlayout.Wide

// Native returns the translator matching the host pointer width: here a Wide
// translator with its own handle table.
func Native() Translator {
	return NewWide(handle.NewTable())
}
