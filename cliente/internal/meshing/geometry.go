package meshing

import (
	"CityVision/shared/scene"
	"CityVision/shared/util"

	"github.com/go-gl/mathgl/mgl32"
)

// GeometryData contém os buffers de vértices para uma malha.
type GeometryData struct {
	Vertices []float32
	Normals  []float32
	Colors   []uint8
}

// Clone cria uma cópia profunda dos dados para evitar corrupção de memória.
func (g GeometryData) Clone() GeometryData {
	clone := GeometryData{}
	if len(g.Vertices) > 0 {
		clone.Vertices = append([]float32(nil), g.Vertices...)
	}
	if len(g.Normals) > 0 {
		clone.Normals = append([]float32(nil), g.Normals...)
	}
	if len(g.Colors) > 0 {
		clone.Colors = append([]uint8(nil), g.Colors...)
	}
	return clone
}

// VertexCount retorna o número de vértices.
func (g GeometryData) VertexCount() int {
	return len(g.Vertices) / 3
}

// BuildGeometry transforma os vértices do nó para o mundo e calcula normais e cores.
func BuildGeometry(node *scene.Node) GeometryData {
	geom := node.Mesh.Geometry
	world := node.WorldMatrix()

	out := GeometryData{Vertices: make([]float32, 0, len(geom.Positions))}
	for i := 0; i < geom.VertexCount(); i++ {
		p := util.TransformPoint(world, geom.Position(i))
		out.Vertices = append(out.Vertices, p[0], p[1], p[2])
	}
	out.Normals = FlatNormals(out.Vertices)
	out.Colors = VertexColors(geom, node.Mesh.Materials, nil)
	return out
}

// FlatNormals calcula uma normal por triângulo (não indexado) e repete nos três vértices.
// Vértices que sobram no fim (contagem não múltipla de 3) recebem a normal para cima.
func FlatNormals(vertices []float32) []float32 {
	n := len(vertices) / 3
	normals := make([]float32, 0, n*3)

	vec := func(i int) mgl32.Vec3 {
		return mgl32.Vec3{vertices[i*3], vertices[i*3+1], vertices[i*3+2]}
	}

	tri := 0
	for ; tri+3 <= n; tri += 3 {
		a, b, c := vec(tri), vec(tri+1), vec(tri+2)
		normal := b.Sub(a).Cross(c.Sub(a))
		if normal.Len() == 0 {
			normal = mgl32.Vec3{0, 1, 0}
		} else {
			normal = normal.Normalize()
		}
		for k := 0; k < 3; k++ {
			normals = append(normals, normal[0], normal[1], normal[2])
		}
	}
	for ; tri < n; tri++ {
		normals = append(normals, 0, 1, 0)
	}
	return normals
}

// VertexColors preenche a cor RGBA de cada vértice com o material do seu grupo.
// Reaproveita dst quando tem capacidade. Índices de material inválidos usam o material 0.
func VertexColors(geom *scene.Geometry, materials []*scene.Material, dst []uint8) []uint8 {
	n := geom.VertexCount()
	if cap(dst) < n*4 {
		dst = make([]uint8, n*4)
	}
	dst = dst[:n*4]

	fallback := scene.DefaultBuildingColor
	if len(materials) > 0 && materials[0] != nil {
		fallback = materials[0].Color
	}

	for i := 0; i < n; i++ {
		c := fallback
		if mi := geom.MaterialAt(i); mi > 0 && mi < len(materials) && materials[mi] != nil {
			c = materials[mi].Color
		}
		dst[i*4] = c.R
		dst[i*4+1] = c.G
		dst[i*4+2] = c.B
		dst[i*4+3] = c.A
	}
	return dst
}
