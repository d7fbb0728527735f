package doublet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLayers_Examples(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		layer int
		want  LayerRange
	}{
		{
			name:  "interior layer",
			layer: 3,
			want:  LayerRange{{5, true}, {4, true}, {2, true}, {1, true}},
		},
		{
			name:  "innermost layer",
			layer: 0,
			want:  LayerRange{{2, true}, {1, true}, {}, {}},
		},
		{
			name:  "second layer",
			layer: 1,
			want:  LayerRange{{3, true}, {2, true}, {0, true}, {}},
		},
		{
			name:  "outermost layer",
			layer: 9,
			want:  LayerRange{{}, {}, {8, true}, {7, true}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveLayers(tt.layer, 10))
		})
	}
}

func TestResolveLayers_AllLayers(t *testing.T) {
	t.Parallel()

	for _, nLayers := range []int{1, 2, 3, 5, 10} {
		for l := 0; l < nLayers; l++ {
			lr := ResolveLayers(l, nLayers)
			for i, off := range slotOffsets {
				want := l + off
				inRange := want >= 0 && want < nLayers
				assert.Equal(t, inRange, lr[i].Valid, "nLayers=%d layer=%d slot=%d", nLayers, l, i)
				if inRange {
					assert.Equal(t, want, lr[i].Layer)
				} else {
					assert.Equal(t, LayerSlot{}, lr[i])
				}
			}
		}
	}
}

func TestLayerRange_SlotAndEmpty(t *testing.T) {
	t.Parallel()

	lr := ResolveLayers(0, 1)
	assert.True(t, lr.Empty())
	_, ok := lr.Slot(0)
	assert.False(t, ok, "an empty slot must not match layer 0")

	lr = ResolveLayers(3, 10)
	assert.False(t, lr.Empty())
	slot, ok := lr.Slot(2)
	assert.True(t, ok)
	assert.Equal(t, 2, slot)
	_, ok = lr.Slot(3)
	assert.False(t, ok)
}
