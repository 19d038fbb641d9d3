// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package hotspot

import "math"

// VisualizationWeight returns min(scale·ln(count+1), limit). It grows
// sub-linearly so a few dense clusters do not dominate a map. Counts below
// one have no meaning and yield zero.
func VisualizationWeight(count int, scale, limit float64) float64 {
	if count <= 0 {
		return 0
	}

	return math.Min(scale*math.Log(float64(count)+1), limit)
}

// Weight is VisualizationWeight with the engine's constants.
func (e *Engine) Weight(count int) float64 {
	return VisualizationWeight(count, e.cfg.WeightScale, e.cfg.WeightCap)
}
