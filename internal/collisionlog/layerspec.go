package collisionlog

import (
	"fmt"
	"strconv"
	"strings"
)

const layerSpecFields = 6

// ParseLayerSpecs reads a comma separated list of layers, each written as
// atom:events:depthStart:depthEnd:energyKeV:spreadKeV, e.g. "Si:30:10:300:2000:50".
func ParseLayerSpecs(s string) ([]LayerSpec, error) {
	var specs []LayerSpec
	for i, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ":")
		if len(parts) != layerSpecFields {
			return nil, fmt.Errorf("%w: layer %d: want %d colon separated fields, got %d", ErrInvalidSpec, i, layerSpecFields, len(parts))
		}

		events, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d events: %w", ErrInvalidSpec, i, err)
		}
		nums := make([]float64, 0, 4)
		for _, raw := range parts[2:] {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: layer %d: %w", ErrInvalidSpec, i, err)
			}
			nums = append(nums, v)
		}
		specs = append(specs, LayerSpec{
			Atom:       parts[0],
			Events:     events,
			DepthStart: nums[0],
			DepthEnd:   nums[1],
			EnergyKeV:  nums[2],
			SpreadKeV:  nums[3],
		})
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrInvalidSpec)
	}
	return specs, nil
}
