package scene

import "image/color"

// Material descreve a aparência de um grupo de vértices.
type Material struct {
	Name  string
	Color color.RGBA
}

// NewMaterial cria um material com a cor dada.
func NewMaterial(name string, r, g, b, a uint8) *Material {
	return &Material{Name: name, Color: color.RGBA{R: r, G: g, B: b, A: a}}
}

// Cores usadas quando a configuração não define outra.
var (
	DefaultBuildingColor  = color.RGBA{R: 210, G: 205, B: 195, A: 255}
	DefaultHighlightColor = color.RGBA{R: 0, G: 0, B: 255, A: 255}
)
