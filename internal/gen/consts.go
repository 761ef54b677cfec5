// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package gen

import "github.com/ramonfueglister/roma-aeterna/world"

const (
	ChunkSize     = world.ChunkSize
	MapSize       = world.MapSize
	MaxHeight     = world.MaxHeight
	WaterLevel    = world.WaterLevel
	TilesPerChunk = world.TilesPerChunk
)
