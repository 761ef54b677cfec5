// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package gen

import (
	"fmt"
	"image"
	_ "image/png"
	"os"
)

// LoadRaster decodes an image file at path into a row-major MapSize x
// MapSize []uint8 raster, using its red channel as the sample value. This is
// the concrete loader behind RegisterHeightmap/RegisterProvinceRaster's
// "external raster" input (spec §4.1): an operator renders a heightmap or
// province map as a grayscale image and passes the decoded raster to
// RegisterHeightmap or RegisterProvinceRaster.
func LoadRaster(path string) ([]uint8, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() != MapSize || bounds.Dy() != MapSize {
		return nil, fmt.Errorf("gen: raster must be %dx%d, got %dx%d", MapSize, MapSize, bounds.Dx(), bounds.Dy())
	}

	out := make([]uint8, MapSize*MapSize)
	for y := 0; y < MapSize; y++ {
		for x := 0; x < MapSize; x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			out[y*MapSize+x] = uint8(r >> 8)
		}
	}
	return out, nil
}
