package bloom

// LevelSizes returns the dimensions of every mip chain level for the given
// source resolution. Level 0 is the full source resolution and every
// following level is the floored half of its parent. The chain ends at
// levels entries, or earlier when a dimension would fall below one pixel.
func LevelSizes(width, height, levels int) [][2]int {
	if levels < 1 || width < 1 || height < 1 {
		return nil
	}
	sizes := make([][2]int, 1, levels)
	sizes[0] = [2]int{width, height}
	for i := 1; i < levels; i++ {
		w, h := sizes[i-1][0]/2, sizes[i-1][1]/2
		if w < 1 || h < 1 {
			break
		}
		sizes = append(sizes, [2]int{w, h})
	}
	return sizes
}
