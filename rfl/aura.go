package rfl

import (
	"unsafe"

	"github.com/wippyai/assetlayout/graph"
)

// AuraTrainParameterSize is the on-disk size of AuraTrainParameter.
const AuraTrainParameterSize = 8

// AuraTrainParameter is the parameter block of the aura train object.
type AuraTrainParameter struct {
	FrontDistance  float32
	EffectInterval float32
}

var _ [AuraTrainParameterSize]byte = [unsafe.Sizeof(AuraTrainParameter{})]byte{}

func (p *AuraTrainParameter) Swap(s *graph.Swapper) error {
	s.F32(&p.FrontDistance, &p.EffectInterval)
	return nil
}

func (p *AuraTrainParameter) Relocate(*graph.Relocator) error { return nil }
