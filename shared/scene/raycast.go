package scene

import (
	"math"
	"sort"

	"CityVision/shared/util"

	"github.com/go-gl/mathgl/mgl32"
)

const rayEpsilon = 1e-6

// Intersection é uma colisão de raio com um triângulo de uma malha.
type Intersection struct {
	Node     *Node
	Distance float32
	Point    mgl32.Vec3
	// FaceIndex é o índice do triângulo; VertexIndex é seu primeiro vértice.
	FaceIndex   int
	VertexIndex int
}

// Raycast testa o raio (em espaço de mundo) contra todas as malhas sob as raízes.
// Nós invisíveis também são testados: o filtro de visibilidade é de quem consome.
// O resultado vem ordenado por distância.
func Raycast(ray util.Ray, roots ...*Node) []Intersection {
	var hits []Intersection
	for _, root := range roots {
		root.Traverse(func(n *Node) bool {
			if n.Kind == KindMesh && n.Mesh != nil && n.Mesh.Geometry != nil {
				hits = intersectMesh(ray, n, hits)
			}
			return true
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}

func intersectMesh(ray util.Ray, n *Node, hits []Intersection) []Intersection {
	world := n.WorldMatrix()
	if world.Det() == 0 {
		return hits
	}
	local := ray.Transform(world.Inv())
	geom := n.Mesh.Geometry

	lo, hi := geom.Bounds()
	if !HitsBox(local, lo, hi) {
		return hits
	}

	for face := 0; face*3+2 < geom.VertexCount(); face++ {
		a := geom.Position(face * 3)
		b := geom.Position(face*3 + 1)
		c := geom.Position(face*3 + 2)
		t, ok := intersectTriangle(local, a, b, c)
		if !ok {
			continue
		}
		point := util.TransformPoint(world, local.At(t))
		hits = append(hits, Intersection{
			Node:        n,
			Distance:    point.Sub(ray.Origin).Len(),
			Point:       point,
			FaceIndex:   face,
			VertexIndex: face * 3,
		})
	}
	return hits
}

// HitsBox verifica se o raio atinge a caixa [lo, hi] (teste de slabs).
func HitsBox(ray util.Ray, lo, hi mgl32.Vec3) bool {
	tmin := float32(-math.MaxFloat32)
	tmax := float32(math.MaxFloat32)

	for axis := 0; axis < 3; axis++ {
		if lo[axis] > hi[axis] {
			return false
		}
		d := ray.Direction[axis]
		o := ray.Origin[axis]
		if d == 0 {
			if o < lo[axis] || o > hi[axis] {
				return false
			}
			continue
		}
		t1 := (lo[axis] - o) / d
		t2 := (hi[axis] - o) / d
		tmin = max(tmin, min(t1, t2))
		tmax = min(tmax, max(t1, t2))
	}

	return tmin <= tmax && tmax >= 0
}

// intersectTriangle é o teste de Möller-Trumbore, dos dois lados.
func intersectTriangle(ray util.Ray, a, b, c mgl32.Vec3) (float32, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := ray.Direction.Cross(e2)
	det := e1.Dot(p)
	if det > -rayEpsilon && det < rayEpsilon {
		return 0, false
	}
	inv := 1 / det

	s := ray.Origin.Sub(a)
	u := s.Dot(p) * inv
	if !util.Between(0, u, 1) {
		return 0, false
	}

	q := s.Cross(e1)
	v := ray.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := e2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}
