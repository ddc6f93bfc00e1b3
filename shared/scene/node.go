package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// NodeKind diferencia nós de agrupamento (tiles, conteúdo) de folhas com geometria.
type NodeKind int

const (
	KindGroup NodeKind = iota
	KindMesh
)

func (k NodeKind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindMesh:
		return "mesh"
	default:
		return "unknown"
	}
}

// Node é um nó do grafo de cena. A posse (tile -> conteúdo -> malha) é
// representada pela cadeia de pais.
type Node struct {
	Name    string
	Kind    NodeKind
	Visible bool

	// Matrix é a transformação local (relativa ao pai).
	Matrix mgl32.Mat4

	// Mesh só é preenchido em nós KindMesh.
	Mesh *Mesh

	parent   *Node
	children []*Node

	// tile é preenchido apenas no nó raiz de um tile.
	tile *Tile
}

// NewGroup cria um nó de agrupamento visível com transformação identidade.
func NewGroup(name string) *Node {
	return &Node{
		Name:    name,
		Kind:    KindGroup,
		Visible: true,
		Matrix:  mgl32.Ident4(),
	}
}

// NewMeshNode cria uma folha com geometria.
func NewMeshNode(name string, mesh *Mesh) *Node {
	return &Node{
		Name:    name,
		Kind:    KindMesh,
		Visible: true,
		Matrix:  mgl32.Ident4(),
		Mesh:    mesh,
	}
}

// Add anexa child a n, removendo-o do pai anterior se houver.
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Remove desanexa child de n. Retorna false se child não era filho de n.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Parent retorna o pai do nó (nil na raiz).
func (n *Node) Parent() *Node {
	return n.parent
}

// Children retorna os filhos diretos na ordem de inserção.
func (n *Node) Children() []*Node {
	return n.children
}

// WorldMatrix compõe as transformações locais da raiz até este nó.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.Matrix
	for p := n.parent; p != nil; p = p.parent {
		m = p.Matrix.Mul4(m)
	}
	return m
}

// BatchTable é a consulta de capacidade usada para achar o tile dono de um nó:
// só o nó raiz de um tile (um grupo) responde com uma tabela.
func (n *Node) BatchTable() *BatchTable {
	if n == nil || n.Kind != KindGroup || n.tile == nil {
		return nil
	}
	return n.tile.BatchTable
}

// Tile retorna o tile cujo nó raiz é n, ou nil.
func (n *Node) Tile() *Tile {
	return n.tile
}

// Traverse percorre a subárvore em profundidade (pré-ordem).
// Se fn retornar false, os filhos daquele nó não são visitados.
func (n *Node) Traverse(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Traverse(fn)
	}
}
