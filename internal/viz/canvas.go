package viz

import (
	"math"
	"strings"
)

// Braille cells hold 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
//
// starting at U+2800.
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a Braille dot canvas mapped onto a world rectangle, Y pointing
// up.
type Canvas struct {
	Width, Height int
	minX, maxX    float64
	minY, maxY    float64
	grid          [][]rune
}

// NewCanvas makes a canvas of w x h characters, which is 2w x 4h dots,
// over [-rangeX, rangeX] x [-rangeY, rangeY].
func NewCanvas(w, h int, rangeX, rangeY float64) *Canvas {
	return NewCanvasBounds(w, h, -rangeX, rangeX, -rangeY, rangeY)
}

// NewCanvasBounds makes a canvas over [minX, maxX] x [minY, maxY].
func NewCanvasBounds(w, h int, minX, maxX, minY, maxY float64) *Canvas {
	if maxX <= minX {
		maxX = minX + 1
	}
	if maxY <= minY {
		maxY = minY + 1
	}
	c := &Canvas{Width: w, Height: h, minX: minX, maxX: maxX, minY: minY, maxY: maxY, grid: make([][]rune, h)}
	for i := range c.grid {
		c.grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set turns on the dot at sub-pixel (x, y), origin top left.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.grid[row][col] |= pixelMap[y%4][x%2]
}

func (c *Canvas) Clear() {
	for i := range c.grid {
		for j := range c.grid[i] {
			c.grid[i][j] = brailleBlank
		}
	}
}

// dot maps a world point onto sub-pixel coordinates.
func (c *Canvas) dot(x, y float64) (int, int) {
	w, h := float64(c.Width*2-1), float64(c.Height*4-1)
	px := (x - c.minX) / (c.maxX - c.minX) * w
	py := (c.maxY - y) / (c.maxY - c.minY) * h
	return int(math.Round(px)), int(math.Round(py))
}

// Point plots a world point.
func (c *Canvas) Point(x, y float64) {
	c.Set(c.dot(x, y))
}

// Line draws a world segment with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 float64) {
	ax, ay := c.dot(x0, y0)
	bx, by := c.dot(x1, y1)
	c.drawLine(ax, ay, bx, by)
}

func (c *Canvas) drawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
